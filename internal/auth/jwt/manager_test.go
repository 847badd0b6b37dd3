package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func newTestManager() *Manager {
	return NewManager(testSecret, "embyauto-test", 15*time.Minute, 7*24*time.Hour)
}

func TestGenerateTokenPair(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)
}

func TestValidateToken(t *testing.T) {
	m := newTestManager()

	t.Run("有效令牌", func(t *testing.T) {
		pair, err := m.GenerateTokenPair("admin", "admin")
		require.NoError(t, err)

		claims, err := m.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Subject)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "embyauto-test", claims.Issuer)
	})

	t.Run("格式错误的令牌", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("签名密钥不匹配", func(t *testing.T) {
		other := NewManager("another-secret-key-also-32-chars-xx", "embyauto-test", time.Minute, time.Hour)
		pair, err := other.GenerateTokenPair("admin", "admin")
		require.NoError(t, err)

		_, err = m.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("过期令牌", func(t *testing.T) {
		expired := NewManager(testSecret, "embyauto-test", -time.Minute, time.Hour)
		pair, err := expired.GenerateTokenPair("admin", "admin")
		require.NoError(t, err)

		_, err = m.ValidateToken(pair.AccessToken)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)

	access, err := m.RefreshAccessToken(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	// 无效的刷新令牌被拒绝
	_, err = m.RefreshAccessToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
