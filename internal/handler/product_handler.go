package handler

import (
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/handle/:handle", h.byHandle)
	e.GET("/products/:id", h.detail)
	e.GET("/products/:id/pairings", h.pairings)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}

	// limit（default 20）
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	minPrice, ok := queryInt64Ptr(c, "min_price")
	if !ok {
		return badRequest(c, "invalid min_price")
	}
	maxPrice, ok := queryInt64Ptr(c, "max_price")
	if !ok {
		return badRequest(c, "invalid max_price")
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Category: c.QueryParam("category"),
		Color:    c.QueryParam("color"),
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) byHandle(c echo.Context) error {
	p, err := h.uc.GetProductByHandle(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) pairings(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.GetPairings(c.Request().Context(), id, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
