package repository

import (
	"context"

	"menswear/internal/domain/model"
)

// 在庫不足のバリアント
type LowStockRow struct {
	VariantID   int64  `json:"variant_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Stock       int64  `json:"stock"`
}

// バリアント在庫を変更したら商品のtotal_stockも同じTxで再計算する
type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, variantID int64, newStock int64) error

	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル・入荷など）
	IncreaseStock(ctx context.Context, variantID int64, qty int64) error

	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error

	ListLowStock(ctx context.Context, threshold int64, limit int) ([]LowStockRow, error)
}
