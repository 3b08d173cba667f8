package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", "market-insight", time.Hour)

	token, expiresAt, err := m.GenerateToken(42, "analyst@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "analyst@example.com", claims.Email)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", "market-insight", time.Hour)
	token, _, err := m.GenerateToken(7, "a@b.c")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewTokenManager("other", "market-insight", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("other issuer", func(t *testing.T) {
		_, err := NewTokenManager("secret", "someone-else", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := m.ValidateToken(token + "x")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenManager("secret", "market-insight", time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, _, err := expired.GenerateToken(7, "a@b.c")
		require.NoError(t, err)
		_, err = m.ValidateToken(old)
		assert.Error(t, err)
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.NoError(t, CheckPasswordHash("correct horse", hash))
	assert.ErrorIs(t, CheckPasswordHash("battery staple", hash), ErrInvalidCredentials)

	_, err = HashPassword("")
	assert.Error(t, err)
}
