package auth_test

import (
	"testing"
	"time"

	"menswear/internal/domain/model"
	auth "menswear/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Claims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	iss := auth.NewJWTIssuer("secret", 15*time.Minute)

	signed, exp, err := iss.Issue(5, model.RoleAdmin, 3, now)
	require.NoError(t, err)
	assert.True(t, exp.Equal(now.Add(15*time.Minute)))

	tok, err := jwt.Parse(signed, func(tk *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(5), claims["sub"])
	assert.Equal(t, "ADMIN", claims["role"])
	assert.Equal(t, float64(3), claims["tv"])
	assert.Equal(t, float64(exp.Unix()), claims["exp"])
}

func TestBcrypt_RoundTrip(t *testing.T) {
	h := auth.NewBcryptPasswordHasher(4)
	v := auth.NewBcryptPasswordVerifier()

	hashed, err := h.Hash("Password123")
	require.NoError(t, err)
	assert.True(t, v.Verify("Password123", hashed))
	assert.False(t, v.Verify("password123", hashed))
}
