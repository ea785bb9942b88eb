package handler

import (
	"net/http"
	"strconv"
	"time"

	"menswear/internal/repository"
	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PurchaseOrderRequest struct {
	SupplierID int64                            `json:"supplier_id"`
	Notes      string                           `json:"notes"`
	ExpectedAt *time.Time                       `json:"expected_at"`
	Items      []usecase.PurchaseOrderItemInput `json:"items"`
}

type PurchaseOrderStatusRequest struct {
	Status string `json:"status"`
}

// /admin/suppliers と /admin/purchase-orders
type SupplierHandler struct {
	uc *usecase.SupplierUsecase
}

func NewSupplierHandler(uc *usecase.SupplierUsecase) *SupplierHandler {
	return &SupplierHandler{uc: uc}
}

func (h *SupplierHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/suppliers", h.list)
	admin.GET("/suppliers/:id", h.get)
	admin.POST("/suppliers", h.create)
	admin.PUT("/suppliers/:id", h.update)
	admin.DELETE("/suppliers/:id", h.delete)

	admin.GET("/purchase-orders", h.listPOs)
	admin.GET("/purchase-orders/:id", h.getPO)
	admin.POST("/purchase-orders", h.createPO)
	admin.PUT("/purchase-orders/:id/status", h.updatePOStatus)
	admin.POST("/purchase-orders/:id/receive", h.receivePO)
}

func (h *SupplierHandler) list(c echo.Context) error {
	activeOnly, _ := strconv.ParseBool(c.QueryParam("active"))

	list, err := h.uc.List(c.Request().Context(), activeOnly)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *SupplierHandler) get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	s, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SupplierHandler) create(c echo.Context) error {
	var req usecase.SupplierInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *SupplierHandler) update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req usecase.SupplierInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s, err := h.uc.Update(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *SupplierHandler) delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *SupplierHandler) listPOs(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	supplierID, ok := queryInt64Ptr(c, "supplier_id")
	if !ok {
		return badRequest(c, "invalid supplier_id")
	}

	out, err := h.uc.ListPurchaseOrders(c.Request().Context(), repository.PurchaseOrderListFilter{
		Page:       page,
		Limit:      limit,
		SupplierID: supplierID,
		Status:     c.QueryParam("status"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SupplierHandler) getPO(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	po, err := h.uc.GetPurchaseOrder(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

func (h *SupplierHandler) createPO(c echo.Context) error {
	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	po, err := h.uc.CreatePurchaseOrder(c.Request().Context(), adminID, usecase.PurchaseOrderInput{
		SupplierID: req.SupplierID,
		Notes:      req.Notes,
		ExpectedAt: req.ExpectedAt,
		Items:      req.Items,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, po)
}

func (h *SupplierHandler) updatePOStatus(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req PurchaseOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	po, err := h.uc.UpdatePurchaseOrderStatus(c.Request().Context(), adminID, id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

// 入荷：在庫加算 + 在庫調整 + 監査ログ
func (h *SupplierHandler) receivePO(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	po, err := h.uc.Receive(c.Request().Context(), adminID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}
