package model

import "time"

// 在庫更新、注文ステータス更新など。
type AuditAction string

const (
	AuditActionUpdateStock       AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionUpdateCollection  AuditAction = "UPDATE_COLLECTION"
	AuditActionReceivePO         AuditAction = "RECEIVE_PURCHASE_ORDER"
	AuditActionUpdatePOStatus    AuditAction = "UPDATE_PURCHASE_ORDER_STATUS"
	AuditActionForceLogout       AuditAction = "FORCE_LOGOUT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct       AuditResourceType = "product"
	AuditResourceVariant       AuditResourceType = "variant"
	AuditResourceOrder         AuditResourceType = "order"
	AuditResourceUser          AuditResourceType = "user"
	AuditResourceCollection    AuditResourceType = "collection"
	AuditResourcePurchaseOrder AuditResourceType = "purchase_order"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザー（主に管理者）のID。webhook経由は0
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
