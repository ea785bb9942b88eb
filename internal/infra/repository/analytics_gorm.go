package repository

import (
	"context"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type AnalyticsGormRepository struct {
	db *gorm.DB
}

func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

// 期間内の売上合計・件数・新規顧客数
func (r *AnalyticsGormRepository) SalesTotals(ctx context.Context, from, to time.Time) (repo.SalesTotals, error) {
	var out repo.SalesTotals

	var row struct {
		Revenue    int64
		OrderCount int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS revenue, COUNT(*) AS order_count").
		Where("status IN ? AND created_at >= ? AND created_at < ?", model.RevenueStatuses(), from, to).
		Scan(&row).Error
	if err != nil {
		return repo.SalesTotals{}, err
	}
	out.Revenue = row.Revenue
	out.OrderCount = row.OrderCount

	if err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ? AND created_at >= ? AND created_at < ?", model.RoleUser, from, to).
		Count(&out.NewCustomers).Error; err != nil {
		return repo.SalesTotals{}, err
	}
	return out, nil
}

// 販売数の多い順
func (r *AnalyticsGormRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repo.TopProductRow, error) {
	var rows []repo.TopProductRow
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(`oi.product_id, MAX(oi.product_name_snapshot) AS product_name,
			SUM(oi.quantity) AS units_sold, SUM(oi.quantity * oi.unit_price_snapshot) AS revenue`).
		Joins("JOIN orders AS o ON o.id = oi.order_id").
		Where("o.status IN ? AND o.created_at >= ? AND o.created_at < ?", model.RevenueStatuses(), from, to).
		Group("oi.product_id").
		Order("units_sold DESC, oi.product_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return []repo.TopProductRow{}, err
	}
	return rows, nil
}

func (r *AnalyticsGormRepository) SalesByCategory(ctx context.Context, from, to time.Time) ([]repo.CategorySalesRow, error) {
	var rows []repo.CategorySalesRow
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(`p.category, SUM(oi.quantity) AS units_sold,
			SUM(oi.quantity * oi.unit_price_snapshot) AS revenue`).
		Joins("JOIN orders AS o ON o.id = oi.order_id").
		Joins("JOIN products AS p ON p.id = oi.product_id").
		Where("o.status IN ? AND o.created_at >= ? AND o.created_at < ?", model.RevenueStatuses(), from, to).
		Group("p.category").
		Order("revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return []repo.CategorySalesRow{}, err
	}
	return rows, nil
}
