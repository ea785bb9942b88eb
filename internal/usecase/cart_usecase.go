package usecase

import (
	"context"
	"errors"
	"net/http"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
)

// CartUsecase はログインユーザーのACTIVEカートを扱います。
// 明細はバリアント単位で、価格は追加時点のスナップショットです。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	variantRepo  repo.VariantRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	variantRepo repo.VariantRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		variantRepo:  variantRepo,
	}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	VariantID int64  `json:"variant_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type CartResponse struct {
	CartID int64              `json:"cart_id"`
	Items  []CartItemResponse `json:"items"`
	Total  int64              `json:"total"`
}

type AddCartInput struct {
	VariantID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

func errInvalidQuantity() error { return NewHTTPError(http.StatusBadRequest, "invalid quantity") }

func errStockExceeded() error { return NewHTTPError(http.StatusBadRequest, "stock exceeded") }

// 初回アクセスで空カートができる
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}
	return u.view(ctx, cart.ID)
}

// 既にあるバリアントは数量を足す。合計がStockを超えたら400
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	switch {
	case userID <= 0:
		return CartResponse{}, errUnauthorized()
	case in.VariantID <= 0:
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid variant_id")
	case in.Quantity < 1:
		return CartResponse{}, errInvalidQuantity()
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}
	v, p, err := u.loadSellable(ctx, in.VariantID)
	if err != nil {
		return CartResponse{}, err
	}

	inCart, err := u.quantityInCart(ctx, cart.ID, v.ID)
	if err != nil {
		return CartResponse{}, err
	}
	if inCart+in.Quantity > v.Stock {
		return CartResponse{}, errStockExceeded()
	}

	if err := u.cartItemRepo.UpsertByCartAndVariant(ctx, cart.ID, p.ID, v.ID, in.Quantity, v.EffectivePrice(p)); err != nil {
		return CartResponse{}, errDB()
	}
	return u.view(ctx, cart.ID)
}

// 数量は置き換え
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if err := requireUserAndID(userID, cartItemID); err != nil {
		return CartResponse{}, err
	}
	if in.Quantity < 1 {
		return CartResponse{}, errInvalidQuantity()
	}

	line, err := u.ownedLine(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}
	v, _, err := u.loadSellable(ctx, line.VariantID)
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity > v.Stock {
		return CartResponse{}, errStockExceeded()
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		return CartResponse{}, notFoundOrDB(err)
	}
	return u.view(ctx, line.CartID)
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if err := requireUserAndID(userID, cartItemID); err != nil {
		return CartResponse{}, err
	}
	if err := u.requireOwner(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}
	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		return CartResponse{}, notFoundOrDB(err)
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}
	return u.view(ctx, cart.ID)
}

func requireUserAndID(userID, cartItemID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if cartItemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return nil
}

func notFoundOrDB(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	return errDB()
}

// 他人の明細は存在しない扱い
func (u *CartUsecase) requireOwner(ctx context.Context, userID, cartItemID int64) error {
	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return errDB()
	}
	if !owned {
		return errNotFound()
	}
	return nil
}

func (u *CartUsecase) ownedLine(ctx context.Context, userID, cartItemID int64) (model.CartItem, error) {
	if err := u.requireOwner(ctx, userID, cartItemID); err != nil {
		return model.CartItem{}, err
	}
	line, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err != nil {
		return model.CartItem{}, notFoundOrDB(err)
	}
	return line, nil
}

func (u *CartUsecase) quantityInCart(ctx context.Context, cartID, variantID int64) (int64, error) {
	lines, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return 0, errDB()
	}
	for _, l := range lines {
		if l.VariantID == variantID {
			return l.Quantity, nil
		}
	}
	return 0, nil
}

// 公開中商品のバリアントだけ買える
func (u *CartUsecase) loadSellable(ctx context.Context, variantID int64) (model.ProductVariant, model.Product, error) {
	invalid := func(err error) error {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid variant")
		}
		return errDB()
	}

	v, err := u.variantRepo.FindByID(ctx, variantID)
	if err != nil {
		return model.ProductVariant{}, model.Product{}, invalid(err)
	}
	p, err := u.productRepo.FindByID(ctx, v.ProductID)
	if err != nil {
		return model.ProductVariant{}, model.Product{}, invalid(err)
	}
	if !p.IsActive {
		return model.ProductVariant{}, model.Product{}, NewHTTPError(http.StatusBadRequest, "product not available")
	}
	return v, p, nil
}

// 非公開になった商品や消えたバリアントの行は表示と合計から外す
func (u *CartUsecase) view(ctx context.Context, cartID int64) (CartResponse, error) {
	lines, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, errDB()
	}

	out := CartResponse{CartID: cartID, Items: make([]CartItemResponse, 0, len(lines))}
	for _, l := range lines {
		v, err := u.variantRepo.FindByID(ctx, l.VariantID)
		if err != nil {
			continue
		}
		p, err := u.productRepo.FindByID(ctx, l.ProductID)
		if err != nil || !p.IsActive {
			continue
		}

		out.Items = append(out.Items, CartItemResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Name:      p.Name,
			SKU:       v.SKU,
			Size:      v.Size,
			Color:     v.Color,
			Price:     l.UnitPriceSnapshot,
			Quantity:  l.Quantity,
		})
		out.Total += l.UnitPriceSnapshot * l.Quantity
	}
	return out, nil
}
