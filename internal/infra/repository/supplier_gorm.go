package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type SupplierGormRepository struct {
	db *gorm.DB
}

func NewSupplierGormRepository(db *gorm.DB) *SupplierGormRepository {
	return &SupplierGormRepository{db: db}
}

func (r *SupplierGormRepository) List(ctx context.Context, activeOnly bool) ([]model.Supplier, error) {
	var list []model.Supplier
	q := r.db.WithContext(ctx).Model(&model.Supplier{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name asc").Find(&list).Error; err != nil {
		return []model.Supplier{}, err
	}
	return list, nil
}

func (r *SupplierGormRepository) FindByID(ctx context.Context, id int64) (model.Supplier, error) {
	var s model.Supplier
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return model.Supplier{}, mapError(err)
	}
	return s, nil
}

// code重複はErrConflict
func (r *SupplierGormRepository) Create(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Supplier{}, mapError(err)
	}
	return s, nil
}

func (r *SupplierGormRepository) Update(ctx context.Context, s model.Supplier) error {
	res := r.db.WithContext(ctx).Model(&model.Supplier{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"name":           s.Name,
		"code":           s.Code,
		"contact_name":   s.ContactName,
		"email":          s.Email,
		"phone":          s.Phone,
		"lead_time_days": s.LeadTimeDays,
		"is_active":      s.IsActive,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *SupplierGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Supplier{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
