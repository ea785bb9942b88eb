package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

// is_defaultはSetDefault以外で変えない
var addressEditableColumns = []string{"name", "line1", "line2", "city", "state", "postal_code", "country", "phone"}

type addressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, mapError(err)
	}
	return address, nil
}

// デフォルトが先頭
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var list []model.Address
	err := r.db.WithContext(ctx).Scopes(byUser(userID)).
		Order("is_default DESC").Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).First(&a, addressID).Error; err != nil {
		return model.Address{}, mapError(err)
	}
	return a, nil
}

func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	res := r.db.WithContext(ctx).Model(&model.Address{ID: address.ID}).
		Select(addressEditableColumns).
		Updates(address)
	return affected(res, repo.ErrNotFound)
}

func (r *addressGormRepository) Delete(ctx context.Context, addressID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Address{}, addressID), repo.ErrNotFound)
}

// 住所自体が無ければErrNotFound
func (r *addressGormRepository) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	var owners []int64
	err := r.db.WithContext(ctx).Model(&model.Address{}).
		Where("id = ?", addressID).
		Pluck("user_id", &owners).Error
	if err != nil {
		return false, err
	}
	if len(owners) == 0 {
		return false, repo.ErrNotFound
	}
	return owners[0] == userID, nil
}

// 他の住所のフラグを落としてから立てる
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target model.Address
		if err := tx.Scopes(byUser(userID)).Select("id").First(&target, addressID).Error; err != nil {
			return mapError(err)
		}

		if err := tx.Model(&model.Address{}).Scopes(byUser(userID)).
			Where("is_default").
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&target).Update("is_default", true).Error
	})
}
