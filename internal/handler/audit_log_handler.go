package handler

import (
	"net/http"

	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/audit-logs", h.list)
}

func (h *AuditLogHandler) list(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	actor, ok := queryInt64Ptr(c, "actor_user_id")
	if !ok {
		return badRequest(c, "invalid actor_user_id")
	}
	resourceID, ok := queryInt64Ptr(c, "resource_id")
	if !ok {
		return badRequest(c, "invalid resource_id")
	}
	from, ok := queryTimePtr(c, "from")
	if !ok {
		return badRequest(c, "invalid from")
	}
	to, ok := queryEndTimePtr(c, "to")
	if !ok {
		return badRequest(c, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), usecase.AuditLogQuery{
		Page:         page,
		Limit:        limit,
		ActorUserID:  actor,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		From:         from,
		To:           to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
