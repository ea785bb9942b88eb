package usecase

import (
	"net/http"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// page/limit/sortの共通チェック
func validatePaging(page, limit int, sort string) error {
	if page < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	switch sort {
	case "", "new", "price_asc", "price_desc", "name":
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid sort")
	}
	return nil
}

// 期間パラメータ（RFC3339 か YYYY-MM-DD）
func ParseDateTime(s string) (*time.Time, bool) {
	t, _, ok := parseDateTime(s)
	if !ok {
		return nil, false
	}
	return &t, true
}

// 期間の終端。範囲は半開区間なので日付だけなら翌日0時にしてその日を含める
func ParseDateTimeEnd(s string) (*time.Time, bool) {
	t, dateOnly, ok := parseDateTime(s)
	if !ok {
		return nil, false
	}
	if dateOnly {
		t = t.AddDate(0, 0, 1)
	}
	return &t, true
}

func parseDateTime(s string) (time.Time, bool, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, true
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}
