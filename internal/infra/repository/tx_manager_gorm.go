package repository

import (
	"context"

	repo "menswear/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders         repo.OrderRepository
	orderItems     repo.OrderItemRepository
	carts          repo.CartRepository
	cartItems      repo.CartItemRepository
	inventory      repo.InventoryRepository
	products       repo.ProductRepository
	variants       repo.VariantRepository
	checkouts      repo.CheckoutRepository
	customers      repo.CustomerRepository
	purchaseOrders repo.PurchaseOrderRepository
	auditLogs      repo.AuditLogRepository
	users          repo.UserRepository
	collections    repo.CollectionRepository
	suppliers      repo.SupplierRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                 { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository         { return r.orderItems }
func (r *txReposGorm) Carts() repo.CartRepository                   { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository           { return r.cartItems }
func (r *txReposGorm) Inventory() repo.InventoryRepository          { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository             { return r.products }
func (r *txReposGorm) Variants() repo.VariantRepository             { return r.variants }
func (r *txReposGorm) Checkouts() repo.CheckoutRepository           { return r.checkouts }
func (r *txReposGorm) Customers() repo.CustomerRepository           { return r.customers }
func (r *txReposGorm) PurchaseOrders() repo.PurchaseOrderRepository { return r.purchaseOrders }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository           { return r.auditLogs }
func (r *txReposGorm) Users() repo.UserRepository                   { return r.users }
func (r *txReposGorm) Collections() repo.CollectionRepository       { return r.collections }
func (r *txReposGorm) Suppliers() repo.SupplierRepository           { return r.suppliers }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:         NewOrderGormRepository(tx),
			orderItems:     NewOrderItemGormRepository(tx),
			carts:          NewCartGormRepository(tx),
			cartItems:      NewCartItemGormRepository(tx),
			inventory:      NewInventoryGormRepository(tx),
			products:       NewProductGormRepository(tx),
			variants:       NewVariantGormRepository(tx),
			checkouts:      NewCheckoutGormRepository(tx),
			customers:      NewCustomerGormRepository(tx),
			purchaseOrders: NewPurchaseOrderGormRepository(tx),
			auditLogs:      NewAuditLogGormRepository(tx),
			users:          NewUserGormRepository(tx),
			collections:    NewCollectionGormRepository(tx),
			suppliers:      NewSupplierGormRepository(tx),
		}
		return fn(r)
	})
}
