package handler

import (
	"net/http"

	auth "menswear/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *auth.SessionUsecase
}

func NewAdminUserHandler(uc *auth.SessionUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

// adminグループ（JWT必須 + token_version一致 + ADMIN限定）に登録する
func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/users/:id/force-logout", h.forceLogout)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	targetID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), adminID, targetID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
