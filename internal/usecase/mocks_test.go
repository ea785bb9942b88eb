package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
	"menswear/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos *TxReposMock
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

// 使わないものはnilのまま
type TxReposMock struct {
	orders         *OrderRepoMock
	orderItems     *OrderItemRepoMock
	carts          *CartRepoMock
	cartItems      *CartItemRepoMock
	inventory      *InventoryRepoMock
	products       *ProductRepoMock
	variants       *VariantRepoMock
	checkouts      *CheckoutRepoMock
	customers      *CustomerRepoMock
	purchaseOrders *PurchaseOrderRepoMock
	auditLogs      *AuditRepoMock
	users          *UserRepoMock
	collections    *CollectionRepoMock
	suppliers      *SupplierRepoMock
}

func (r *TxReposMock) Orders() repo.OrderRepository                 { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository         { return r.orderItems }
func (r *TxReposMock) Carts() repo.CartRepository                   { return r.carts }
func (r *TxReposMock) CartItems() repo.CartItemRepository           { return r.cartItems }
func (r *TxReposMock) Inventory() repo.InventoryRepository          { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository             { return r.products }
func (r *TxReposMock) Variants() repo.VariantRepository             { return r.variants }
func (r *TxReposMock) Checkouts() repo.CheckoutRepository           { return r.checkouts }
func (r *TxReposMock) Customers() repo.CustomerRepository           { return r.customers }
func (r *TxReposMock) PurchaseOrders() repo.PurchaseOrderRepository { return r.purchaseOrders }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository           { return r.auditLogs }
func (r *TxReposMock) Users() repo.UserRepository                   { return r.users }
func (r *TxReposMock) Collections() repo.CollectionRepository       { return r.collections }
func (r *TxReposMock) Suppliers() repo.SupplierRepository           { return r.suppliers }

func newTx(repos *TxReposMock) *TxManagerMock {
	tx := &TxManagerMock{Repos: repos}
	tx.On("WithinTx", mock.Anything).Return(nil)
	return tx
}

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	return m.Called(ctx, orderID, from, to).Error(0)
}

func (m *OrderRepoMock) MarkPaid(ctx context.Context, orderID int64, paymentIntentID string, paidAt time.Time) error {
	return m.Called(ctx, orderID, paymentIntentID, paidAt).Error(0)
}

func (m *OrderRepoMock) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, userID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	args := m.Called(ctx, cartID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	return m.Called(ctx, cartID, status).Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	return m.Called(ctx, cartID).Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndVariant(ctx context.Context, cartID int64, productID int64, variantID int64, addQty int64, unitPriceSnapshot int64) error {
	return m.Called(ctx, cartID, productID, variantID, addQty, unitPriceSnapshot).Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	return m.Called(ctx, cartItemID, qty).Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	return m.Called(ctx, cartItemID).Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	args := m.Called(ctx, cartItemID, userID)
	return args.Bool(0), args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) SetStock(ctx context.Context, variantID int64, newStock int64) error {
	return m.Called(ctx, variantID, newStock).Error(0)
}

func (m *InventoryRepoMock) DecreaseStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	args := m.Called(ctx, variantID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) IncreaseStock(ctx context.Context, variantID int64, qty int64) error {
	return m.Called(ctx, variantID, qty).Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	return m.Called(ctx, adjustment).Error(0)
}

func (m *InventoryRepoMock) ListLowStock(ctx context.Context, threshold int64, limit int) ([]repo.LowStockRow, error) {
	args := m.Called(ctx, threshold, limit)
	rows, _ := args.Get(0).([]repo.LowStockRow)
	return rows, args.Error(1)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) ListByRules(ctx context.Context, q repo.RuleQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByHandle(ctx context.Context, handle string) (model.Product, error) {
	args := m.Called(ctx, handle)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type VariantRepoMock struct{ mock.Mock }

func (m *VariantRepoMock) FindByID(ctx context.Context, id int64) (model.ProductVariant, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(model.ProductVariant)
	return v, args.Error(1)
}

func (m *VariantRepoMock) ListByProductID(ctx context.Context, productID int64) ([]model.ProductVariant, error) {
	args := m.Called(ctx, productID)
	vs, _ := args.Get(0).([]model.ProductVariant)
	return vs, args.Error(1)
}

func (m *VariantRepoMock) Create(ctx context.Context, v model.ProductVariant) (model.ProductVariant, error) {
	args := m.Called(ctx, v)
	out, _ := args.Get(0).(model.ProductVariant)
	return out, args.Error(1)
}

func (m *VariantRepoMock) Update(ctx context.Context, v model.ProductVariant) error {
	return m.Called(ctx, v).Error(0)
}

func (m *VariantRepoMock) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type CheckoutRepoMock struct{ mock.Mock }

func (m *CheckoutRepoMock) Create(ctx context.Context, s model.CheckoutSession) (model.CheckoutSession, error) {
	args := m.Called(ctx, s)
	out, _ := args.Get(0).(model.CheckoutSession)
	return out, args.Error(1)
}

func (m *CheckoutRepoMock) FindByID(ctx context.Context, id int64) (model.CheckoutSession, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(model.CheckoutSession)
	return s, args.Error(1)
}

func (m *CheckoutRepoMock) FindOpenByCartID(ctx context.Context, cartID int64) (model.CheckoutSession, error) {
	args := m.Called(ctx, cartID)
	s, _ := args.Get(0).(model.CheckoutSession)
	return s, args.Error(1)
}

func (m *CheckoutRepoMock) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (model.CheckoutSession, error) {
	args := m.Called(ctx, paymentIntentID)
	s, _ := args.Get(0).(model.CheckoutSession)
	return s, args.Error(1)
}

func (m *CheckoutRepoMock) Save(ctx context.Context, s model.CheckoutSession) error {
	return m.Called(ctx, s).Error(0)
}

type CustomerRepoMock struct{ mock.Mock }

func (m *CustomerRepoMock) Create(ctx context.Context, profile *model.CustomerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *CustomerRepoMock) FindByUserID(ctx context.Context, userID int64) (model.CustomerProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(model.CustomerProfile)
	return p, args.Error(1)
}

func (m *CustomerRepoMock) Update(ctx context.Context, profile model.CustomerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *CustomerRepoMock) SaveStats(ctx context.Context, profile model.CustomerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *CustomerRepoMock) List(ctx context.Context, f repo.CustomerListFilter) ([]repo.CustomerRow, int64, error) {
	args := m.Called(ctx, f)
	rows, _ := args.Get(0).([]repo.CustomerRow)
	return rows, args.Get(1).(int64), args.Error(2)
}

type PurchaseOrderRepoMock struct{ mock.Mock }

func (m *PurchaseOrderRepoMock) Create(ctx context.Context, po model.PurchaseOrder) (model.PurchaseOrder, error) {
	args := m.Called(ctx, po)
	out, _ := args.Get(0).(model.PurchaseOrder)
	return out, args.Error(1)
}

func (m *PurchaseOrderRepoMock) FindByID(ctx context.Context, id int64) (model.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	po, _ := args.Get(0).(model.PurchaseOrder)
	return po, args.Error(1)
}

func (m *PurchaseOrderRepoMock) List(ctx context.Context, f repo.PurchaseOrderListFilter) ([]model.PurchaseOrder, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.PurchaseOrder)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *PurchaseOrderRepoMock) Save(ctx context.Context, po model.PurchaseOrder, from model.PurchaseOrderStatus) error {
	return m.Called(ctx, po, from).Error(0)
}

func (m *PurchaseOrderRepoMock) SetReceivedQuantity(ctx context.Context, itemID int64, qty int64) error {
	return m.Called(ctx, itemID, qty).Error(0)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type CollectionRepoMock struct{ mock.Mock }

func (m *CollectionRepoMock) List(ctx context.Context, activeOnly bool) ([]model.Collection, error) {
	args := m.Called(ctx, activeOnly)
	list, _ := args.Get(0).([]model.Collection)
	return list, args.Error(1)
}

func (m *CollectionRepoMock) FindByID(ctx context.Context, id int64) (model.Collection, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Collection)
	return c, args.Error(1)
}

func (m *CollectionRepoMock) FindByHandle(ctx context.Context, handle string) (model.Collection, error) {
	args := m.Called(ctx, handle)
	c, _ := args.Get(0).(model.Collection)
	return c, args.Error(1)
}

func (m *CollectionRepoMock) Create(ctx context.Context, c model.Collection) (model.Collection, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(model.Collection)
	return out, args.Error(1)
}

func (m *CollectionRepoMock) Update(ctx context.Context, c model.Collection) error {
	return m.Called(ctx, c).Error(0)
}

func (m *CollectionRepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type SupplierRepoMock struct{ mock.Mock }

func (m *SupplierRepoMock) List(ctx context.Context, activeOnly bool) ([]model.Supplier, error) {
	args := m.Called(ctx, activeOnly)
	list, _ := args.Get(0).([]model.Supplier)
	return list, args.Error(1)
}

func (m *SupplierRepoMock) FindByID(ctx context.Context, id int64) (model.Supplier, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(model.Supplier)
	return s, args.Error(1)
}

func (m *SupplierRepoMock) Create(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	args := m.Called(ctx, s)
	out, _ := args.Get(0).(model.Supplier)
	return out, args.Error(1)
}

func (m *SupplierRepoMock) Update(ctx context.Context, s model.Supplier) error {
	return m.Called(ctx, s).Error(0)
}

func (m *SupplierRepoMock) SoftDelete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, address model.Address) (model.Address, error) {
	args := m.Called(ctx, address)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *AddressRepoMock) Update(ctx context.Context, address model.Address) error {
	return m.Called(ctx, address).Error(0)
}

func (m *AddressRepoMock) Delete(ctx context.Context, addressID int64) error {
	return m.Called(ctx, addressID).Error(0)
}

func (m *AddressRepoMock) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	args := m.Called(ctx, addressID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *AddressRepoMock) SetDefault(ctx context.Context, userID, addressID int64) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

type AnalyticsRepoMock struct{ mock.Mock }

func (m *AnalyticsRepoMock) SalesTotals(ctx context.Context, from, to time.Time) (repo.SalesTotals, error) {
	args := m.Called(ctx, from, to)
	t, _ := args.Get(0).(repo.SalesTotals)
	return t, args.Error(1)
}

func (m *AnalyticsRepoMock) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repo.TopProductRow, error) {
	args := m.Called(ctx, from, to, limit)
	rows, _ := args.Get(0).([]repo.TopProductRow)
	return rows, args.Error(1)
}

func (m *AnalyticsRepoMock) SalesByCategory(ctx context.Context, from, to time.Time) ([]repo.CategorySalesRow, error) {
	args := m.Called(ctx, from, to)
	rows, _ := args.Get(0).([]repo.CategorySalesRow)
	return rows, args.Error(1)
}

// ログは捨てる
type nopLogger struct{}

func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Warnf(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}

// =====================
// Helper
// =====================

func assertHTTPError(t *testing.T, err error, status int, wantSubstr string) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "err=%v is not HTTPError", err)
	assert.Equal(t, status, he.Status)
	assert.True(t, strings.Contains(he.Message, wantSubstr), "msg=%q want contains %q", he.Message, wantSubstr)
}
