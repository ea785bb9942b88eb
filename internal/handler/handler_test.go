package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"menswear/internal/domain/model"
	"menswear/internal/handler"
	"menswear/internal/middleware"
	"menswear/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type AddressRepoMock struct{ mock.Mock }

func (m *AddressRepoMock) Create(ctx context.Context, a model.Address) (model.Address, error) {
	args := m.Called(ctx, a)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) FindByID(ctx context.Context, id int64) (model.Address, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.Address)
	return out, args.Error(1)
}

func (m *AddressRepoMock) Update(ctx context.Context, a model.Address) error {
	return m.Called(ctx, a).Error(0)
}

func (m *AddressRepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *AddressRepoMock) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	args := m.Called(ctx, addressID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *AddressRepoMock) SetDefault(ctx context.Context, userID, addressID int64) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateIntent(ctx context.Context, in usecase.CreatePaymentIntentInput) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.PaymentIntent), args.Error(1)
}

func (m *GatewayMock) GetIntent(ctx context.Context, id string) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(usecase.PaymentIntent), args.Error(1)
}

func (m *GatewayMock) CancelIntent(ctx context.Context, id string) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(usecase.PaymentIntent), args.Error(1)
}

func (m *GatewayMock) ParseWebhook(payload []byte, signature string) (usecase.PaymentEvent, error) {
	args := m.Called(payload, signature)
	return args.Get(0).(usecase.PaymentEvent), args.Error(1)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// AuthJWTの代わりにuser_idを入れる
func asUser(userID int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.CtxUserIDKey, userID)
			return next(c)
		}
	}
}

func do(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestAddressHandler_List(t *testing.T) {
	repo := new(AddressRepoMock)
	repo.On("ListByUserID", mock.Anything, int64(3)).Return([]model.Address{{ID: 1, UserID: 3, City: "Austin"}}, nil)

	e := echo.New()
	handler.NewAddressHandler(usecase.NewAddressUsecase(repo)).RegisterRoutes(e.Group("/me", asUser(3)))

	rec := do(e, http.MethodGet, "/me/addresses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []usecase.AddressDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Austin", list[0].City)
}

func TestAddressHandler_UpdateForbidden(t *testing.T) {
	repo := new(AddressRepoMock)
	repo.On("IsOwnedByUser", mock.Anything, int64(9), int64(3)).Return(false, nil)

	e := echo.New()
	handler.NewAddressHandler(usecase.NewAddressUsecase(repo)).RegisterRoutes(e.Group("/me", asUser(3)))

	rec := do(e, http.MethodPatch, "/me/addresses/9", `{"name":"x","line1":"y","city":"z","state":"TX","postal_code":"1"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", errorOf(t, rec))
}

func TestAddressHandler_InvalidID(t *testing.T) {
	e := echo.New()
	handler.NewAddressHandler(usecase.NewAddressUsecase(new(AddressRepoMock))).RegisterRoutes(e.Group("/me", asUser(3)))

	rec := do(e, http.MethodDelete, "/me/addresses/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid id", errorOf(t, rec))
}

func TestAddressHandler_Unauthenticated(t *testing.T) {
	e := echo.New()
	handler.NewAddressHandler(usecase.NewAddressUsecase(new(AddressRepoMock))).RegisterRoutes(e.Group("/me"))

	rec := do(e, http.MethodGet, "/me/addresses", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductHandler_BadQuery(t *testing.T) {
	cases := map[string]string{
		"/products?page=x":      "invalid page",
		"/products?limit=x":     "invalid limit",
		"/products?min_price=x": "invalid min_price",
		"/products/abc":         "invalid id",
	}
	for path, want := range cases {
		t.Run(path, func(t *testing.T) {
			e := echo.New()
			handler.NewProductHandler(nil).RegisterRoutes(e)

			rec := do(e, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, want, errorOf(t, rec))
		})
	}
}

func TestAuthHandler_RefreshRequiresCSRF(t *testing.T) {
	e := echo.New()
	handler.NewAuthHandler(nil, nil, nil, false).RegisterRoutes(e)

	rec := do(e, http.MethodPost, "/auth/refresh", "", map[string]string{
		"Cookie":       "refresh=abc; csrf_token=t1",
		"X-CSRF-Token": "t2",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "csrf token mismatch", errorOf(t, rec))

	rec = do(e, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCheckoutHandler_WebhookBadSignature(t *testing.T) {
	gw := new(GatewayMock)
	gw.On("ParseWebhook", []byte(`{"id":"evt_1"}`), "sig").Return(usecase.PaymentEvent{}, errors.New("bad signature"))

	uc := usecase.NewCheckoutUsecase(nil, nil, nil, nil, nil, gw, usecase.CheckoutConfig{}, nopLogger{})
	e := echo.New()
	handler.NewCheckoutHandler(uc).RegisterWebhookRoutes(e)

	rec := do(e, http.MethodPost, "/webhooks/stripe", `{"id":"evt_1"}`, map[string]string{"Stripe-Signature": "sig"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid signature", errorOf(t, rec))
}

func TestCheckoutHandler_WebhookIgnoredEvent(t *testing.T) {
	gw := new(GatewayMock)
	gw.On("ParseWebhook", mock.Anything, "sig").Return(usecase.PaymentEvent{ID: "evt_2", Type: "charge.refunded"}, nil)

	uc := usecase.NewCheckoutUsecase(nil, nil, nil, nil, nil, gw, usecase.CheckoutConfig{}, nopLogger{})
	e := echo.New()
	handler.NewCheckoutHandler(uc).RegisterWebhookRoutes(e)

	rec := do(e, http.MethodPost, "/webhooks/stripe", `{}`, map[string]string{"Stripe-Signature": "sig"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
}

func TestAnalyticsHandler_InvalidRange(t *testing.T) {
	e := echo.New()
	handler.NewAnalyticsHandler(nil).RegisterRoutes(e.Group("/admin"))

	rec := do(e, http.MethodGet, "/admin/analytics/summary?from=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid date range", errorOf(t, rec))
}
