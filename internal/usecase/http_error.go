package usecase

import (
	"errors"
	"fmt"
	"net/http"

	repo "menswear/internal/repository"
)

// usecaseの想定内エラー（handlerがそのままstatusにする）
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func errDB() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

func errNotFound() error {
	return NewHTTPError(http.StatusNotFound, "not found")
}

func errUnauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

// 読んだステータスが他の更新で変わっていた
func errStatusChanged() error {
	return NewHTTPError(http.StatusConflict, "status changed, retry")
}

// ステータス付き更新の失敗。競合は409、それ以外はdb error
func statusWriteError(err error) error {
	if errors.Is(err, repo.ErrConflict) {
		return errStatusChanged()
	}
	return errDB()
}
