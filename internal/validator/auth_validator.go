package validator

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"menswear/internal/usecase"
	auth "menswear/internal/usecase/auth_usecase"
)

// パスワード最低文字数
const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// よくある弱いパスワード
var weakPasswords = map[string]struct{}{
	"password":    {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwertyuiop":  {},
	"letmein123":  {},
	"admin123":    {},
}

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() auth.Validator {
	return &authValidator{}
}

func errInvalid(msg string) error {
	return usecase.NewHTTPError(http.StatusBadRequest, msg)
}

// サインアップの入力を検証（重複はusecase側のtxで見る）
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	if err := v.ValidateLogin(ctx, email, password); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return errInvalid("password must be at least 8 characters")
	}
	if _, weak := weakPasswords[strings.ToLower(password)]; weak {
		return errInvalid("password is too weak")
	}
	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errInvalid("email and password required")
	}
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return errInvalid("invalid email")
	}
	return nil
}
