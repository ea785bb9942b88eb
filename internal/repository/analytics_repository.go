package repository

import (
	"context"
	"time"
)

type SalesTotals struct {
	Revenue      int64
	OrderCount   int64
	NewCustomers int64
}

type TopProductRow struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitsSold   int64  `json:"units_sold"`
	Revenue     int64  `json:"revenue"`
}

type CategorySalesRow struct {
	Category  string `json:"category"`
	UnitsSold int64  `json:"units_sold"`
	Revenue   int64  `json:"revenue"`
}

// 集計クエリ（売上に数えるのは支払い済み以降の注文）
type AnalyticsRepository interface {
	SalesTotals(ctx context.Context, from, to time.Time) (SalesTotals, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProductRow, error)
	SalesByCategory(ctx context.Context, from, to time.Time) ([]CategorySalesRow, error)
}
