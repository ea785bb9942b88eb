package handler

import (
	"io"
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

// webhook本文の上限（Stripeのイベントは数KB）
const maxWebhookBody = 64 << 10

type CheckoutAddressRequest struct {
	AddressID int64 `json:"address_id"`
}

type CheckoutShippingRequest struct {
	Code string `json:"code"`
}

// チェックアウトの各ステップ
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.start)
	g.GET("/:id", h.get)
	g.PUT("/:id/address", h.setAddress)
	g.GET("/:id/shipping-rates", h.shippingRates)
	g.PUT("/:id/shipping", h.setShipping)
	g.POST("/:id/payment", h.payment)
	g.POST("/:id/complete", h.complete)
}

// 署名で認証するのでJWTは不要
func (h *CheckoutHandler) RegisterWebhookRoutes(e *echo.Echo) {
	e.POST("/webhooks/stripe", h.webhook)
}

func (h *CheckoutHandler) start(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.Start(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) get(c echo.Context) error {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.Get(c.Request().Context(), userID, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) setAddress(c echo.Context) error {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req CheckoutAddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.SetAddress(c.Request().Context(), userID, sessionID, req.AddressID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) shippingRates(c echo.Context) error {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	rates, err := h.uc.ShippingRates(c.Request().Context(), userID, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rates)
}

func (h *CheckoutHandler) setShipping(c echo.Context) error {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req CheckoutShippingRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.SetShipping(c.Request().Context(), userID, sessionID, req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) payment(c echo.Context) error {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.CreatePayment(c.Request().Context(), userID, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CheckoutHandler) complete(c echo.Context) error {
	userID, sessionID, ok := h.ids(c)
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.Complete(c.Request().Context(), userID, sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 署名検証のため生の本文をそのまま渡す
func (h *CheckoutHandler) webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *CheckoutHandler) ids(c echo.Context) (int64, int64, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return 0, 0, false
	}
	sessionID, ok := paramID(c, "id")
	if !ok {
		return 0, 0, false
	}
	return userID, sessionID, true
}
