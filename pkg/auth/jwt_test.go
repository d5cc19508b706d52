package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("secret", 1)

	token, err := m.GenerateToken("user-1", "shopper@example.com")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "shopper@example.com", claims.Email)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret", 1).GenerateToken("user-1", "")
	require.NoError(t, err)

	_, err = NewJWTManager("other", 1).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := NewJWTManager("secret", -1).GenerateToken("user-1", "")
	require.NoError(t, err)

	_, err = NewJWTManager("secret", 1).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_MissingUser(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTManager("secret", 1).ValidateToken(token)
	assert.Error(t, err)
}
