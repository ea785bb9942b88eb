package handler

import (
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AnalyticsHandler struct {
	uc *usecase.AnalyticsUsecase
}

func NewAnalyticsHandler(uc *usecase.AnalyticsUsecase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

func (h *AnalyticsHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/analytics/summary", h.summary)
	admin.GET("/analytics/top-products", h.topProducts)
	admin.GET("/analytics/sales-by-category", h.salesByCategory)
}

// from/to（省略時は直近30日）
func dateRange(c echo.Context) (usecase.DateRange, bool) {
	from, ok := queryTimePtr(c, "from")
	if !ok {
		return usecase.DateRange{}, false
	}
	to, ok := queryEndTimePtr(c, "to")
	if !ok {
		return usecase.DateRange{}, false
	}
	return usecase.DateRange{From: from, To: to}, true
}

func (h *AnalyticsHandler) summary(c echo.Context) error {
	r, ok := dateRange(c)
	if !ok {
		return badRequest(c, "invalid date range")
	}

	out, err := h.uc.Summary(c.Request().Context(), r)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) topProducts(c echo.Context) error {
	r, ok := dateRange(c)
	if !ok {
		return badRequest(c, "invalid date range")
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.TopProducts(c.Request().Context(), r, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandler) salesByCategory(c echo.Context) error {
	r, ok := dateRange(c)
	if !ok {
		return badRequest(c, "invalid date range")
	}

	out, err := h.uc.SalesByCategory(c.Request().Context(), r)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
