package handler

import (
	"net/http"
	"strconv"
	"time"

	"menswear/internal/middleware"
	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// 本文を返さない成功は {message}
type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	c.Logger().Errorf("unhandled error: %v", err)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}

// middleware.AuthJWTがc.Setしたuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 空ならdef
func queryInt(c echo.Context, name string, def int) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return def, true
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func queryInt64Ptr(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, false
	}
	return &i, true
}

// RFC3339 か YYYY-MM-DD
func queryTimePtr(c echo.Context, name string) (*time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	return usecase.ParseDateTime(v)
}

// 範囲の終端用。日付だけならその日の終わりまで含める
func queryEndTimePtr(c echo.Context, name string) (*time.Time, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	return usecase.ParseDateTimeEnd(v)
}
