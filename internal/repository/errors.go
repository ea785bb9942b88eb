package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// 一意制約違反（SKU・handle・emailなど）
	ErrConflict = errors.New("conflict")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)
