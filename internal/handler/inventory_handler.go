package handler

import (
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 在庫更新の入力。stockは必須なのでポインタ
type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock"`
	Reason string `json:"reason"`
}

type InventoryHandler struct {
	uc *usecase.InventoryUsecase
}

func NewInventoryHandler(uc *usecase.InventoryUsecase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

func (h *InventoryHandler) RegisterRoutes(admin *echo.Group) {
	admin.PUT("/inventory/variants/:id", h.setStock)
	admin.GET("/inventory/low-stock", h.lowStock)
}

func (h *InventoryHandler) setStock(c echo.Context) error {
	variantID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid variant id")
	}

	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.SetVariantStock(c.Request().Context(), adminID, variantID, usecase.SetStockInput{
		Stock:  req.Stock,
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) lowStock(c echo.Context) error {
	threshold, ok := queryInt64Ptr(c, "threshold")
	if !ok {
		return badRequest(c, "invalid threshold")
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	rows, err := h.uc.ListLowStock(c.Request().Context(), threshold, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
