package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"time"

	auth "menswear/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

const (
	refreshCookieName = "refresh"
	csrfCookieName    = "csrf_token"
	csrfHeaderName    = "X-CSRF-Token"
)

type AuthHandler struct {
	registerUC   *auth.RegisterUserUsecase
	loginUC      *auth.LoginUsecase
	sessionUC    *auth.SessionUsecase
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	sessionUC *auth.SessionUsecase,
	cookieSecure bool,
) *AuthHandler {
	return &AuthHandler{
		registerUC:   registerUC,
		loginUC:      loginUC,
		sessionUC:    sessionUC,
		cookieSecure: cookieSecure,
	}
}

// /auth/register, /auth/login のリクエストボディ
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth 以下を登録（meだけ認証付き）
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, authMW ...echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)
	g.GET("/me", h.me, authMW...)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	// User-Agentをrefresh tokenに紐付ける
	out, side, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return writeError(c, err)
	}

	if err := h.setSessionCookies(c, side); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	if !validCSRF(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "csrf token mismatch"})
	}

	plain := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		plain = ck.Value
	}

	out, side, err := h.sessionUC.Refresh(c.Request().Context(), auth.RefreshInput{
		PlainRefreshToken: plain,
		UserAgent:         c.Request().UserAgent(),
	})
	if err != nil {
		h.clearSessionCookies(c)
		return writeError(c, err)
	}

	if err := h.setSessionCookies(c, side); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	if !validCSRF(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "csrf token mismatch"})
	}

	plain := ""
	if ck, err := c.Cookie(refreshCookieName); err == nil {
		plain = ck.Value
	}
	if err := h.sessionUC.Logout(c.Request().Context(), plain); err != nil {
		return writeError(c, err)
	}

	h.clearSessionCookies(c)
	return c.JSON(http.StatusOK, SuccessResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.sessionUC.Me(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// refresh cookie（HttpOnly）と csrf cookie（JSから読む）をセット
func (h *AuthHandler) setSessionCookies(c echo.Context, side auth.LoginSideEffect) error {
	csrfToken, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    side.PlainRefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  side.RefreshExpiresAt,
	})
	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    csrfToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  side.RefreshExpiresAt,
	})
	return nil
}

func (h *AuthHandler) clearSessionCookies(c echo.Context) {
	for _, name := range []string{refreshCookieName, csrfCookieName} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: name == refreshCookieName,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
		})
	}
}

// double submit: cookieとヘッダーが一致すること
func validCSRF(c echo.Context) bool {
	ck, err := c.Cookie(csrfCookieName)
	if err != nil || ck.Value == "" {
		return false
	}
	header := c.Request().Header.Get(csrfHeaderName)
	return subtle.ConstantTimeCompare([]byte(ck.Value), []byte(header)) == 1
}

// ランダム文字列を作る。
func generateSecureToken(bytesLen int) (string, error) {
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
