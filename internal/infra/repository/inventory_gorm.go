package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, variantID int64, newStock int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v model.ProductVariant
		if err := tx.Select("id", "product_id").First(&v, variantID).Error; err != nil {
			return mapError(err)
		}
		if err := tx.Model(&model.ProductVariant{}).
			Where("id = ?", variantID).
			Update("stock", newStock).Error; err != nil {
			return err
		}
		return recalcProductStock(tx, v.ProductID)
	})
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	ok := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ProductVariant{}).
			Where("id = ? AND stock >= ?", variantID, qty).
			Update("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		ok = true
		return recalcStockForVariant(tx, variantID)
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// 在庫戻し（キャンセル・入荷）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, variantID int64, qty int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ProductVariant{}).
			Where("id = ?", variantID).
			Update("stock", gorm.Expr("stock + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return recalcStockForVariant(tx, variantID)
	})
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

// しきい値以下のバリアント（在庫の少ない順）
func (r *InventoryGormRepository) ListLowStock(ctx context.Context, threshold int64, limit int) ([]repo.LowStockRow, error) {
	var rows []repo.LowStockRow
	err := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select("v.id AS variant_id, v.product_id, p.name AS product_name, v.sku, v.size, v.color, v.stock").
		Joins("JOIN products AS p ON p.id = v.product_id AND p.deleted_at IS NULL").
		Where("v.deleted_at IS NULL AND v.stock <= ?", threshold).
		Order("v.stock ASC, v.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return []repo.LowStockRow{}, err
	}
	return rows, nil
}

func recalcStockForVariant(tx *gorm.DB, variantID int64) error {
	return tx.Exec(
		`UPDATE products SET total_stock = (
			SELECT COALESCE(SUM(stock), 0) FROM product_variants
			WHERE product_id = products.id AND deleted_at IS NULL
		) WHERE id = (SELECT product_id FROM product_variants WHERE id = ?)`,
		variantID,
	).Error
}
