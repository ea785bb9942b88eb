package model

import (
	"time"

	"gorm.io/gorm"
)

type Supplier struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	Code         string         `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	ContactName  string         `gorm:"type:varchar(255)" json:"contact_name"`
	Email        string         `gorm:"type:varchar(255)" json:"email"`
	Phone        string         `gorm:"type:varchar(30)" json:"phone"`
	LeadTimeDays int            `gorm:"not null;default:0" json:"lead_time_days"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

type PurchaseOrderStatus string

const (
	POStatusDraft    PurchaseOrderStatus = "DRAFT"
	POStatusOrdered  PurchaseOrderStatus = "ORDERED"
	POStatusReceived PurchaseOrderStatus = "RECEIVED"
	POStatusCanceled PurchaseOrderStatus = "CANCELED"
)

var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	POStatusDraft:   {POStatusOrdered, POStatusCanceled},
	POStatusOrdered: {POStatusReceived, POStatusCanceled},
}

func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	for _, to := range poTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

type PurchaseOrder struct {
	ID         int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	SupplierID int64               `gorm:"not null;index" json:"supplier_id"`
	Status     PurchaseOrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalCost  int64               `gorm:"not null;default:0" json:"total_cost"`
	Notes      string              `gorm:"type:text" json:"notes"`
	ExpectedAt *time.Time          `json:"expected_at,omitempty"`
	OrderedAt  *time.Time          `json:"ordered_at,omitempty"`
	ReceivedAt *time.Time          `json:"received_at,omitempty"`
	CreatedBy  int64               `gorm:"not null" json:"created_by"`
	CreatedAt  time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time           `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID" json:"items"`
}

type PurchaseOrderItem struct {
	ID               int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseOrderID  int64 `gorm:"not null;index" json:"purchase_order_id"`
	VariantID        int64 `gorm:"not null;index" json:"variant_id"`
	Quantity         int64 `gorm:"not null" json:"quantity"`
	UnitCost         int64 `gorm:"not null" json:"unit_cost"`
	ReceivedQuantity int64 `gorm:"not null;default:0" json:"received_quantity"`
}
