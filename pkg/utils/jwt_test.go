package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("clave-de-prueba")

	token, expiresAt, err := svc.GenerateToken(42, "ana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(AccessTokenDuration).Unix(), expiresAt, 5)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.NotEmpty(t, claims.JTI)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secreto-a").GenerateToken(1, "x@example.com")
	require.NoError(t, err)

	_, err = NewJWTService("secreto-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewJWTService("clave")

	for _, token := range []string{"", "no-es-jwt", "a.b.c"} {
		_, err := svc.ValidateToken(token)
		assert.Error(t, err)
	}
}

func TestDemoTokenShape(t *testing.T) {
	token := DemoToken()

	assert.True(t, strings.HasPrefix(token, "demo-token-"))
	assert.True(t, IsDemoToken(token))
	assert.False(t, IsDemoToken("eyJhbGciOi..."))
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secreto123")
	require.NoError(t, err)
	require.NotEqual(t, "secreto123", hash)

	assert.True(t, CheckPassword(hash, "secreto123"))
	assert.False(t, CheckPassword(hash, "otra"))
}

func TestPasswordPlaintextLegacyFallback(t *testing.T) {
	// 自动补建的用户行里存的是明文占位密码
	assert.True(t, CheckPassword("password123", "password123"))
	assert.False(t, CheckPassword("password123", "password456"))
}
