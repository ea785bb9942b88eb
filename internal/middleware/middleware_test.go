package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"menswear/internal/domain/model"
	"menswear/internal/middleware"
	"menswear/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type okResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var _ repository.UserRepository = (*UserRepoMock)(nil)

func makeJWT(t *testing.T, secret string, sub int64, role string, tv int, method jwt.SigningMethod) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": sub, "role": role, "tv": tv, "iat": 1, "exp": 9999999999}
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func okHandler(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserIDKey).(int64)
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	tv, _ := c.Get(middleware.CtxTokenVersionKey).(int)
	return c.JSON(http.StatusOK, okResponse{UserID: userID, Role: role, TokenVersion: tv})
}

func serve(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestAuthJWT_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		authz string
	}{
		{"no header", ""},
		{"bad scheme", "Token abc.def.ghi"},
		{"empty token", "Bearer  "},
		{"bad signature", "Bearer " + makeJWT(t, "wrong-secret", 1, "USER", 0, jwt.SigningMethodHS256)},
		{"wrong alg", "Bearer " + makeJWT(t, testSecret, 1, "USER", 0, jwt.SigningMethodHS512)},
		{"unknown role", "Bearer " + makeJWT(t, testSecret, 1, "ROOT", 0, jwt.SigningMethodHS256)},
		{"zero sub", "Bearer " + makeJWT(t, testSecret, 0, "USER", 0, jwt.SigningMethodHS256)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(testSecret))

			rec := serve(e, tc.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", errorBody(t, rec))
		})
	}
}

func TestAuthJWT_SetsContext(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, middleware.AuthJWT(testSecret))

	rec := serve(e, "Bearer "+makeJWT(t, testSecret, 123, "USER", 7, jwt.SigningMethodHS256))
	require.Equal(t, http.StatusOK, rec.Code)

	var body okResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, okResponse{UserID: 123, Role: "USER", TokenVersion: 7}, body)
}

func TestTokenVersionGuard_MissingContext(t *testing.T) {
	e := echo.New()
	e.GET("/protected", okHandler, middleware.TokenVersionGuard(new(UserRepoMock)))

	rec := serve(e, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenVersionGuard(t *testing.T) {
	cases := []struct {
		name   string
		dbTV   int
		active bool
		status int
	}{
		{"match", 5, true, http.StatusOK},
		{"mismatch after force logout", 6, true, http.StatusUnauthorized},
		{"inactive user", 5, false, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := new(UserRepoMock)
			users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{
				ID: 1, Role: model.RoleUser, TokenVersion: tc.dbTV, IsActive: tc.active,
			}, nil)

			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(testSecret), middleware.TokenVersionGuard(users))

			rec := serve(e, "Bearer "+makeJWT(t, testSecret, 1, "USER", 5, jwt.SigningMethodHS256))
			assert.Equal(t, tc.status, rec.Code)
			users.AssertExpectations(t)
		})
	}
}

func TestAdminRoleGuard(t *testing.T) {
	cases := []struct {
		name   string
		role   string
		status int
	}{
		{"admin", "ADMIN", http.StatusOK},
		{"user", "USER", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", okHandler, middleware.AuthJWT(testSecret), middleware.AdminRoleGuard())

			rec := serve(e, "Bearer "+makeJWT(t, testSecret, 1, tc.role, 0, jwt.SigningMethodHS256))
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	t.Run("no role in context", func(t *testing.T) {
		e := echo.New()
		e.GET("/protected", okHandler, middleware.AdminRoleGuard())
		rec := serve(e, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
