package repository

import (
	"context"

	"menswear/internal/domain/model"
)

type SupplierRepository interface {
	List(ctx context.Context, activeOnly bool) ([]model.Supplier, error)
	FindByID(ctx context.Context, id int64) (model.Supplier, error)
	Create(ctx context.Context, s model.Supplier) (model.Supplier, error)
	Update(ctx context.Context, s model.Supplier) error
	SoftDelete(ctx context.Context, id int64) error
}

type PurchaseOrderListFilter struct {
	Page       int
	Limit      int
	SupplierID *int64
	Status     string
}

type PurchaseOrderRepository interface {
	// 明細も一緒に作成する
	Create(ctx context.Context, po model.PurchaseOrder) (model.PurchaseOrder, error)
	// 明細付きで取得
	FindByID(ctx context.Context, id int64) (model.PurchaseOrder, error)
	List(ctx context.Context, f PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error)
	// 保存時点のステータスがfromでなければErrConflict
	Save(ctx context.Context, po model.PurchaseOrder, from model.PurchaseOrderStatus) error
	SetReceivedQuantity(ctx context.Context, itemID int64, qty int64) error
}
