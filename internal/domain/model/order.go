package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// 許可される遷移（同じステータスへの更新は呼び出し側で何もしない）
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCanceled, OrderStatusRefunded},
	OrderStatusShipped: {OrderStatusDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	switch st {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCanceled, OrderStatusRefunded:
		return st, true
	}
	return "", false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, to := range orderTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// 終端ステータス
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// 在庫戻しが必要な遷移か
func (s OrderStatus) RestocksOn(next OrderStatus) bool {
	if next != OrderStatusCanceled && next != OrderStatusRefunded {
		return false
	}
	return s == OrderStatusPending || s == OrderStatusPaid
}

// 売上として数えるステータス
func RevenueStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered}
}

type Order struct {
	ID                int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64       `gorm:"not null;index;uniqueIndex:idx_order_idem" json:"user_id"`
	AddressID         int64       `gorm:"not null" json:"address_id"`
	CheckoutSessionID *int64      `gorm:"index" json:"checkout_session_id,omitempty"`
	Status            OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal          int64       `gorm:"not null" json:"subtotal"`
	ShippingCost      int64       `gorm:"not null;default:0" json:"shipping_cost"`
	TotalPrice        int64       `gorm:"not null" json:"total_price"`
	Currency          string      `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	ShippingRateCode  string      `gorm:"type:varchar(30)" json:"shipping_rate_code"`
	PaymentIntentID   string      `gorm:"type:varchar(255);index" json:"payment_intent_id,omitempty"`
	IdempotencyKey    string      `gorm:"type:varchar(255);not null;uniqueIndex:idx_order_idem" json:"-"`
	PaidAt            *time.Time  `json:"paid_at,omitempty"`
	CreatedAt         time.Time   `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	VariantID           int64     `gorm:"not null;index" json:"variant_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	SKUSnapshot         string    `gorm:"column:sku_snapshot;type:varchar(100);not null" json:"sku_snapshot"`
	SizeSnapshot        string    `gorm:"type:varchar(30)" json:"size_snapshot"`
	ColorSnapshot       string    `gorm:"type:varchar(50)" json:"color_snapshot"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (i OrderItem) LineTotal() int64 {
	return i.UnitPriceSnapshot * i.Quantity
}
