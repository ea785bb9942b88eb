package repository

import (
	"context"

	"menswear/internal/domain/model"
)

type CheckoutRepository interface {
	Create(ctx context.Context, s model.CheckoutSession) (model.CheckoutSession, error)
	FindByID(ctx context.Context, id int64) (model.CheckoutSession, error)
	// 同じカートのOPENセッション
	FindOpenByCartID(ctx context.Context, cartID int64) (model.CheckoutSession, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.CheckoutSession, error)
	Save(ctx context.Context, s model.CheckoutSession) error
}
