package repository

import (
	"context"
	"errors"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).First(&o, orderID).Error; err != nil {
		return model.Order{}, mapError(err)
	}
	return o, nil
}

// 件数と1ページ分を同じ条件で取る
func paginateOrders(q *gorm.DB, page, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}
	orders := []model.Order{}
	err := q.Order("id desc").Limit(limit).Offset(pageOffset(page, limit)).Find(&orders).Error
	if err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(byUser(userID))
	return paginateOrders(q, page, limit)
}

// 冪等キーの一意制約違反はErrConflict
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, mapError(err)
	}
	return order.ID, nil
}

// 読んだ後に別Txが変えていたら0件になる
func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{ID: orderID}).
		Where("status = ?", from).
		Update("status", to)
	return affected(res, repo.ErrConflict)
}

// PENDING以外は触らない（0件ならErrNotFound）
func (r *OrderGormRepository) MarkPaid(ctx context.Context, orderID int64, paymentIntentID string, paidAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Order{ID: orderID}).
		Where("status = ?", model.OrderStatusPending).
		Updates(map[string]any{
			"status":            model.OrderStatusPaid,
			"payment_intent_id": paymentIntentID,
			"paid_at":           paidAt,
		})
	return affected(res, repo.ErrNotFound)
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Scopes(byUser(userID)).
		First(&o, "idempotency_key = ?", key).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.Order{}, false, nil
	case err != nil:
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Scopes(byUser(*f.UserID))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	return paginateOrders(q, f.Page, f.Limit)
}
