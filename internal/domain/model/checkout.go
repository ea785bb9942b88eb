package model

import "time"

type CheckoutStatus string

const (
	CheckoutStatusOpen      CheckoutStatus = "OPEN"
	CheckoutStatusCompleted CheckoutStatus = "COMPLETED"
	CheckoutStatusExpired   CheckoutStatus = "EXPIRED"
	CheckoutStatusAbandoned CheckoutStatus = "ABANDONED"
)

// チェックアウトの各ステップは前のステップの値があるかで進める
type CheckoutSession struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           int64          `gorm:"not null;index" json:"user_id"`
	CartID           int64          `gorm:"not null;index" json:"cart_id"`
	AddressID        *int64         `json:"address_id"`
	ShippingRateCode string         `gorm:"type:varchar(30)" json:"shipping_rate_code"`
	ShippingCost     int64          `gorm:"not null;default:0" json:"shipping_cost"`
	Subtotal         int64          `gorm:"not null" json:"subtotal"`
	Total            int64          `gorm:"not null" json:"total"`
	Currency         string         `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentIntentID  string         `gorm:"type:varchar(255);index" json:"payment_intent_id"`
	Status           CheckoutStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	OrderID          *int64         `json:"order_id,omitempty"`
	ExpiresAt        time.Time      `gorm:"not null" json:"expires_at"`
	CreatedAt        time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (s CheckoutSession) HasAddress() bool       { return s.AddressID != nil && *s.AddressID > 0 }
func (s CheckoutSession) HasShippingRate() bool  { return s.ShippingRateCode != "" }
func (s CheckoutSession) HasPaymentIntent() bool { return s.PaymentIntentID != "" }

func (s CheckoutSession) IsExpired(now time.Time) bool {
	return s.Status == CheckoutStatusExpired || (s.Status == CheckoutStatusOpen && !now.Before(s.ExpiresAt))
}

// 送料を入れて合計を計算し直す
func (s *CheckoutSession) Recalculate() {
	s.Total = s.Subtotal + s.ShippingCost
}

// 配送方法
type ShippingRate struct {
	Code          string `json:"code"`
	Label         string `json:"label"`
	Amount        int64  `json:"amount"`
	EstimatedDays string `json:"estimated_days"`
}
