package repository

import (
	"context"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type CheckoutGormRepository struct {
	db *gorm.DB
}

func NewCheckoutGormRepository(db *gorm.DB) *CheckoutGormRepository {
	return &CheckoutGormRepository{db: db}
}

func (r *CheckoutGormRepository) Create(ctx context.Context, s model.CheckoutSession) (model.CheckoutSession, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.CheckoutSession{}, err
	}
	return s, nil
}

func (r *CheckoutGormRepository) FindByID(ctx context.Context, id int64) (model.CheckoutSession, error) {
	var s model.CheckoutSession
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return model.CheckoutSession{}, mapError(err)
	}
	return s, nil
}

// 同じカートの最新のOPENセッション
func (r *CheckoutGormRepository) FindOpenByCartID(ctx context.Context, cartID int64) (model.CheckoutSession, error) {
	var s model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND status = ?", cartID, model.CheckoutStatusOpen).
		Order("id desc").
		First(&s).Error
	if err != nil {
		return model.CheckoutSession{}, mapError(err)
	}
	return s, nil
}

func (r *CheckoutGormRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.CheckoutSession, error) {
	var s model.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		Order("id desc").
		First(&s).Error
	if err != nil {
		return model.CheckoutSession{}, mapError(err)
	}
	return s, nil
}

// 全項目を保存（ステップごとに呼ばれる）
func (r *CheckoutGormRepository) Save(ctx context.Context, s model.CheckoutSession) error {
	res := r.db.WithContext(ctx).Model(&model.CheckoutSession{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"address_id":         s.AddressID,
		"shipping_rate_code": s.ShippingRateCode,
		"shipping_cost":      s.ShippingCost,
		"subtotal":           s.Subtotal,
		"total":              s.Total,
		"payment_intent_id":  s.PaymentIntentID,
		"status":             s.Status,
		"order_id":           s.OrderID,
		"expires_at":         s.ExpiresAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
