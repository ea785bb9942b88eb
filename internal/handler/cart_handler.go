package handler

import (
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// gはログイン必須のグループ
func (h *CartHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.PATCH("/:id", h.patchItem)
	g.DELETE("/:id", h.deleteItem)
}

// どの操作も更新後のカート全体を返す
func cartResult(c echo.Context, out usecase.CartResponse, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) getCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.uc.GetCart(c.Request().Context(), userID)
	return cartResult(c, out, err)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AddToCart(c.Request().Context(), userID, usecase.AddCartInput(req))
	return cartResult(c, out, err)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	userID, itemID, ok := h.itemTarget(c)
	if !ok {
		return nil
	}
	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), userID, itemID, usecase.UpdateCartItemInput(req))
	return cartResult(c, out, err)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	userID, itemID, ok := h.itemTarget(c)
	if !ok {
		return nil
	}
	out, err := h.uc.DeleteCartItem(c.Request().Context(), userID, itemID)
	return cartResult(c, out, err)
}

// 失敗時はレスポンスを書き込んでfalse
func (h *CartHandler) itemTarget(c echo.Context) (int64, int64, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		_ = unauthorized(c)
		return 0, 0, false
	}
	itemID, ok := paramID(c, "id")
	if !ok {
		_ = badRequest(c, "invalid id")
		return 0, 0, false
	}
	return userID, itemID, true
}
