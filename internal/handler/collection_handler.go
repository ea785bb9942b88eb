package handler

import (
	"net/http"

	"menswear/internal/domain/model"
	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CollectionRequest struct {
	Name        string                `json:"name"`
	Handle      string                `json:"handle"`
	Description string                `json:"description"`
	Rules       model.CollectionRules `json:"rules"`
	Sort        string                `json:"sort"`
	IsActive    bool                  `json:"is_active"`
}

type CollectionPreviewRequest struct {
	Rules model.CollectionRules `json:"rules"`
	Sort  string                `json:"sort"`
}

// 公開 /collections と /admin/collections
type CollectionHandler struct {
	uc *usecase.CollectionUsecase
}

func NewCollectionHandler(uc *usecase.CollectionUsecase) *CollectionHandler {
	return &CollectionHandler{uc: uc}
}

func (h *CollectionHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/collections", h.listPublic)
	e.GET("/collections/:handle", h.getPublic)
	e.GET("/collections/:handle/products", h.products)
}

func (h *CollectionHandler) RegisterAdminRoutes(admin *echo.Group) {
	admin.GET("/collections", h.adminList)
	admin.GET("/collections/:id", h.adminGet)
	admin.POST("/collections", h.create)
	admin.PUT("/collections/:id", h.update)
	admin.DELETE("/collections/:id", h.delete)
	admin.POST("/collections/preview", h.preview)
}

func (h *CollectionHandler) listPublic(c echo.Context) error {
	list, err := h.uc.ListPublic(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CollectionHandler) getPublic(c echo.Context) error {
	col, err := h.uc.GetPublicByHandle(c.Request().Context(), c.Param("handle"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

func (h *CollectionHandler) products(c echo.Context) error {
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.ListProducts(c.Request().Context(), c.Param("handle"), page, limit, c.QueryParam("sort"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CollectionHandler) adminList(c echo.Context) error {
	list, err := h.uc.AdminList(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CollectionHandler) adminGet(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	col, err := h.uc.AdminGet(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

func (h *CollectionHandler) create(c echo.Context) error {
	var req CollectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	col, err := h.uc.AdminCreate(c.Request().Context(), adminID, usecase.CollectionInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, col)
}

func (h *CollectionHandler) update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req CollectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	col, err := h.uc.AdminUpdate(c.Request().Context(), adminID, id, usecase.CollectionInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, col)
}

func (h *CollectionHandler) delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.uc.AdminDelete(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

// 保存前のルールで一致する商品を確認する
func (h *CollectionHandler) preview(c echo.Context) error {
	var req CollectionPreviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.Preview(c.Request().Context(), req.Rules, req.Sort)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
