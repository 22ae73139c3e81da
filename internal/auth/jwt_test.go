package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	tok, err := tokens.GenerateToken("cust-1", "layla@example.com")
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", claims.Subject)
	assert.Equal(t, "layla@example.com", claims.Email)
}

func TestValidateTokenRejects(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	other, err := NewTokens("another-secret", time.Hour).GenerateToken("cust-1", "")
	require.NoError(t, err)

	expiredIssuer := NewTokens("test-secret", time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := expiredIssuer.GenerateToken("cust-1", "")
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "cust-1"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "cust-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"alg none":     unsigned,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.ValidateToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
