package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, CheckPassword(hash, "correct horse battery"))
	assert.False(t, CheckPassword(hash, "wrong password"))
}

func TestHashPasswordRejectsShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestTokenRoundTrip(t *testing.T) {
	a, err := NewAuth("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := a.IssueToken("user-123", true)
	require.NoError(t, err)

	claims, err := a.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.True(t, claims.IsAdmin)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	a1, err := NewAuth("secret-one", time.Hour)
	require.NoError(t, err)
	a2, err := NewAuth("secret-two", time.Hour)
	require.NoError(t, err)

	token, err := a1.IssueToken("user-123", false)
	require.NoError(t, err)

	_, err = a2.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	a, err := NewAuth("test-secret", time.Nanosecond)
	require.NoError(t, err)

	token, err := a.IssueToken("user-123", false)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = a.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthRequiresSecret(t *testing.T) {
	_, err := NewAuth("", time.Hour)
	assert.Error(t, err)
}
