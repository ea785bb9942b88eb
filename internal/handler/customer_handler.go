package handler

import (
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CustomerHandler struct {
	uc *usecase.CustomerUsecase
}

func NewCustomerHandler(uc *usecase.CustomerUsecase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

// /me 以下（本人）
func (h *CustomerHandler) RegisterRoutes(me *echo.Group) {
	me.GET("/profile", h.getProfile)
	me.PUT("/profile", h.updateProfile)
}

func (h *CustomerHandler) RegisterAdminRoutes(admin *echo.Group) {
	admin.GET("/customers", h.adminList)
	admin.GET("/customers/:id", h.adminGet)
}

func (h *CustomerHandler) getProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	p, err := h.uc.GetMyProfile(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CustomerHandler) updateProfile(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req usecase.ProfileInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.UpdateMyProfile(c.Request().Context(), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CustomerHandler) adminList(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.AdminList(c.Request().Context(), page, limit, c.QueryParam("q"), c.QueryParam("tier"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CustomerHandler) adminGet(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.AdminGet(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
