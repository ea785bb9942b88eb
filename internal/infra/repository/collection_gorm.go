package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type CollectionGormRepository struct {
	db *gorm.DB
}

func NewCollectionGormRepository(db *gorm.DB) *CollectionGormRepository {
	return &CollectionGormRepository{db: db}
}

func (r *CollectionGormRepository) List(ctx context.Context, activeOnly bool) ([]model.Collection, error) {
	var list []model.Collection
	q := r.db.WithContext(ctx).Model(&model.Collection{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name asc").Find(&list).Error; err != nil {
		return []model.Collection{}, err
	}
	return list, nil
}

func (r *CollectionGormRepository) FindByID(ctx context.Context, id int64) (model.Collection, error) {
	var c model.Collection
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return model.Collection{}, mapError(err)
	}
	return c, nil
}

func (r *CollectionGormRepository) FindByHandle(ctx context.Context, handle string) (model.Collection, error) {
	var c model.Collection
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&c).Error; err != nil {
		return model.Collection{}, mapError(err)
	}
	return c, nil
}

func (r *CollectionGormRepository) Create(ctx context.Context, c model.Collection) (model.Collection, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Collection{}, mapError(err)
	}
	return c, nil
}

func (r *CollectionGormRepository) Update(ctx context.Context, c model.Collection) error {
	res := r.db.WithContext(ctx).Model(&model.Collection{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":        c.Name,
		"handle":      c.Handle,
		"description": c.Description,
		"rules":       c.Rules,
		"sort":        c.Sort,
		"is_active":   c.IsActive,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CollectionGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Collection{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
