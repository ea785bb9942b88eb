package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Inventory() InventoryRepository
	Products() ProductRepository
	Variants() VariantRepository
	Checkouts() CheckoutRepository
	Customers() CustomerRepository
	PurchaseOrders() PurchaseOrderRepository
	AuditLogs() AuditLogRepository
	Users() UserRepository
	Collections() CollectionRepository
	Suppliers() SupplierRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
