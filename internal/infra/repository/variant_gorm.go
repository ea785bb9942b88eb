package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type VariantGormRepository struct {
	db *gorm.DB
}

func NewVariantGormRepository(db *gorm.DB) *VariantGormRepository {
	return &VariantGormRepository{db: db}
}

func (r *VariantGormRepository) FindByID(ctx context.Context, id int64) (model.ProductVariant, error) {
	var v model.ProductVariant
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return model.ProductVariant{}, mapError(err)
	}
	return v, nil
}

func (r *VariantGormRepository) ListByProductID(ctx context.Context, productID int64) ([]model.ProductVariant, error) {
	var list []model.ProductVariant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&list).Error; err != nil {
		return []model.ProductVariant{}, err
	}
	return list, nil
}

// バリアント追加（商品のtotal_stockも更新）
func (r *VariantGormRepository) Create(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		return recalcProductStock(tx, v.ProductID)
	})
	if err != nil {
		return model.ProductVariant{}, mapError(err)
	}
	return v, nil
}

// 在庫以外の項目を更新
func (r *VariantGormRepository) Update(ctx context.Context, v model.ProductVariant) error {
	res := r.db.WithContext(ctx).Model(&model.ProductVariant{}).Where("id = ?", v.ID).Updates(map[string]interface{}{
		"sku":            v.SKU,
		"size":           v.Size,
		"color":          v.Color,
		"material":       v.Material,
		"price_override": v.PriceOverride,
	})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *VariantGormRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v model.ProductVariant
		if err := tx.First(&v, id).Error; err != nil {
			return mapError(err)
		}
		if err := tx.Delete(&model.ProductVariant{}, id).Error; err != nil {
			return err
		}
		return recalcProductStock(tx, v.ProductID)
	})
}

// products.total_stockを生きているバリアントの合計にする
func recalcProductStock(tx *gorm.DB, productID int64) error {
	return tx.Exec(
		`UPDATE products SET total_stock = (
			SELECT COALESCE(SUM(stock), 0) FROM product_variants
			WHERE product_id = ? AND deleted_at IS NULL
		) WHERE id = ?`,
		productID, productID,
	).Error
}
