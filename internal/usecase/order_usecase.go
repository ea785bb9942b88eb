package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	currency  string
	log       Logger
}

func NewOrderUsecase(tx repo.TransactionManager, addresses repo.AddressRepository, currency string, log Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, addresses: addresses, currency: currency, log: log}
}

type PlaceOrderInput struct {
	AddressID      int64
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID               int64             `json:"id"`
	UserID           int64             `json:"user_id"`
	AddressID        int64             `json:"address_id"`
	Status           string            `json:"status"`
	Subtotal         int64             `json:"subtotal"`
	ShippingCost     int64             `json:"shipping_cost"`
	TotalPrice       int64             `json:"total_price"`
	Currency         string            `json:"currency"`
	ShippingRateCode string            `json:"shipping_rate_code,omitempty"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	Items            []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid address_id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	//address_idの存在確認＋所有チェック
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, errNotFound()
	}
	if err != nil {
		return OrderOutput{}, errDB()
	}
	if addr.UserID != userID {
		return OrderOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var out OrderOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		placed, err := placeOrderTx(ctx, r, placeOrderParams{
			UserID:    userID,
			AddressID: in.AddressID,
			Key:       key,
			Currency:  u.currency,
		})
		if err != nil {
			return err
		}
		out = toOrderOutput(placed.Order, placed.Items)
		if !placed.Existing {
			u.log.Infof("order placed: id=%d user=%d total=%d", placed.Order.ID, userID, placed.Order.TotalPrice)
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 注文確定の入力（checkoutからも使う）
type placeOrderParams struct {
	UserID            int64
	AddressID         int64
	Key               string
	CartID            int64 // 0なら確認しない
	CheckoutSessionID *int64
	ShippingRateCode  string
	ShippingCost      int64
	Currency          string
	ExpectedSubtotal  *int64
}

type placedOrder struct {
	Order    model.Order
	Items    []model.OrderItem
	Existing bool
}

// 1つのTx内で呼ぶ。
// 冪等キー検索 → ACTIVEカート → 在庫減算 → スナップショット → 注文作成 → カートCHECKED_OUT
func placeOrderTx(ctx context.Context, r repo.TxRepos, p placeOrderParams) (placedOrder, error) {
	// 同じキーなら同じ結果
	if existing, ok, err := findExistingOrder(ctx, r, p.UserID, p.Key); err != nil || ok {
		return existing, err
	}

	cart, err := r.Carts().FindActiveByUserID(ctx, p.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return placedOrder{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err != nil {
		return placedOrder{}, errDB()
	}
	if p.CartID != 0 && cart.ID != p.CartID {
		return placedOrder{}, NewHTTPError(http.StatusConflict, "cart changed")
	}

	cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return placedOrder{}, errDB()
	}
	if len(cartItems) == 0 {
		return placedOrder{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	now := time.Now()
	orderItems := make([]model.OrderItem, 0, len(cartItems))
	var subtotal int64
	for _, ci := range cartItems {
		line, err := reserveLine(ctx, r, ci)
		if err != nil {
			return placedOrder{}, err
		}
		line.CreatedAt = now
		orderItems = append(orderItems, line)
		subtotal += line.LineTotal()
	}

	// 決済後にカートが変わっていたら確定しない
	if p.ExpectedSubtotal != nil && *p.ExpectedSubtotal != subtotal {
		return placedOrder{}, NewHTTPError(http.StatusConflict, "cart changed")
	}

	order := model.Order{
		UserID:            p.UserID,
		AddressID:         p.AddressID,
		CheckoutSessionID: p.CheckoutSessionID,
		Status:            model.OrderStatusPending,
		Subtotal:          subtotal,
		ShippingCost:      p.ShippingCost,
		TotalPrice:        subtotal + p.ShippingCost,
		Currency:          p.Currency,
		ShippingRateCode:  p.ShippingRateCode,
		IdempotencyKey:    p.Key,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	orderID, err := r.Orders().Create(ctx, order)
	if err != nil {
		//同時に同じキーが入った等はもう一回検索して同じ結果を返す
		if existing, ok, err2 := findExistingOrder(ctx, r, p.UserID, p.Key); err2 == nil && ok {
			return existing, nil
		}
		return placedOrder{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
	}
	order.ID = orderID

	if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
		return placedOrder{}, errDB()
	}
	for i := range orderItems {
		orderItems[i].OrderID = orderID
	}

	if err := closeCart(ctx, r, cart.ID); err != nil {
		return placedOrder{}, err
	}

	return placedOrder{Order: order, Items: orderItems}, nil
}

// 在庫を引き当てて明細のスナップショットを作る。
// 商品が消えたか非公開なら400
func reserveLine(ctx context.Context, r repo.TxRepos, ci model.CartItem) (model.OrderItem, error) {
	unavailable := func(err error) error {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid")
		}
		return errDB()
	}

	v, err := r.Variants().FindByID(ctx, ci.VariantID)
	if err != nil {
		return model.OrderItem{}, unavailable(err)
	}
	prod, err := r.Products().FindByID(ctx, ci.ProductID)
	if err != nil {
		return model.OrderItem{}, unavailable(err)
	}
	if !prod.IsActive {
		return model.OrderItem{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ci.VariantID, ci.Quantity)
	if err != nil {
		return model.OrderItem{}, errDB()
	}
	if !ok {
		return model.OrderItem{}, NewHTTPError(http.StatusBadRequest, "out of stock: "+v.SKU)
	}

	return model.OrderItem{
		ProductID:           ci.ProductID,
		VariantID:           ci.VariantID,
		ProductNameSnapshot: prod.Name,
		SKUSnapshot:         v.SKU,
		SizeSnapshot:        v.Size,
		ColorSnapshot:       v.Color,
		UnitPriceSnapshot:   ci.UnitPriceSnapshot,
		Quantity:            ci.Quantity,
	}, nil
}

// 同じカートで二重に注文できないようにする
func closeCart(ctx context.Context, r repo.TxRepos, cartID int64) error {
	if err := r.Carts().UpdateStatus(ctx, cartID, model.CartStatusCheckedOut); err != nil {
		return errDB()
	}
	if err := r.Carts().Clear(ctx, cartID); err != nil {
		return errDB()
	}
	return nil
}

func findExistingOrder(ctx context.Context, r repo.TxRepos, userID int64, key string) (placedOrder, bool, error) {
	existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return placedOrder{}, false, errDB()
	}
	if !found {
		return placedOrder{}, false, nil
	}
	items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
	if err != nil {
		return placedOrder{}, false, errDB()
	}
	return placedOrder{Order: existing, Items: items, Existing: true}, true, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized()
	}
	if err := validatePaging(page, limit, ""); err != nil {
		return OrderListOutput{}, err
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return errDB()
		}
		out.Total = total

		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errDB()
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return errNotFound()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, len(items))
	for i, it := range items {
		outItems[i] = OrderItemOutput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Name:      it.ProductNameSnapshot,
			SKU:       it.SKUSnapshot,
			Size:      it.SizeSnapshot,
			Color:     it.ColorSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		}
	}

	return OrderOutput{
		ID:               o.ID,
		UserID:           o.UserID,
		AddressID:        o.AddressID,
		Status:           string(o.Status),
		Subtotal:         o.Subtotal,
		ShippingCost:     o.ShippingCost,
		TotalPrice:       o.TotalPrice,
		Currency:         o.Currency,
		ShippingRateCode: o.ShippingRateCode,
		PaidAt:           o.PaidAt,
		CreatedAt:        o.CreatedAt,
		Items:            outItems,
	}
}
