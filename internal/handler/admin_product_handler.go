package handler

import (
	"encoding/json"
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 商品の作成・更新で共通
type ProductRequest struct {
	Name            string                 `json:"name"`
	Handle          string                 `json:"handle"`
	Description     string                 `json:"description"`
	Category        string                 `json:"category"`
	Brand           string                 `json:"brand"`
	ColorFamily     string                 `json:"color_family"`
	Price           int64                  `json:"price"`
	CompareAtPrice  *int64                 `json:"compare_at_price"`
	Tags            []string               `json:"tags"`
	SmartAttributes json.RawMessage        `json:"smart_attributes"`
	IsActive        bool                   `json:"is_active"`
	Variants        []usecase.VariantInput `json:"variants"`
}

func (r ProductRequest) toInput() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		Name:            r.Name,
		Handle:          r.Handle,
		Description:     r.Description,
		Category:        r.Category,
		Brand:           r.Brand,
		ColorFamily:     r.ColorFamily,
		Price:           r.Price,
		CompareAtPrice:  r.CompareAtPrice,
		Tags:            r.Tags,
		SmartAttributes: r.SmartAttributes,
		IsActive:        r.IsActive,
		Variants:        r.Variants,
	}
}

// /admin/products と /admin/variants をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (h *AdminProductHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.POST("/products/:id/variants", h.createVariant)
	admin.PUT("/variants/:id", h.updateVariant)
	admin.DELETE("/variants/:id", h.deleteVariant)
}

func (h *AdminProductHandler) createProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) updateProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminProductHandler) createVariant(c echo.Context) error {
	productID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.VariantInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	v, err := h.uc.AdminCreateVariant(c.Request().Context(), adminID, productID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *AdminProductHandler) updateVariant(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.VariantInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	v, err := h.uc.AdminUpdateVariant(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *AdminProductHandler) deleteVariant(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminDeleteVariant(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
