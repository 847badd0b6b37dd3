package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embyauto/backend/internal/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{
		Admin: config.AdminConfig{Password: "correct-horse-battery"},
		JWT: config.JWTConfig{
			Secret:        "test-secret-key-at-least-32-chars-long",
			Issuer:        "embyauto-test",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
		},
	}
	svc, err := NewService(cfg)
	require.NoError(t, err)
	return svc
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	t.Run("密码正确", func(t *testing.T) {
		pair, err := svc.Login("correct-horse-battery")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		claims, err := svc.Validate(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, AdminSubject, claims.Subject)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := svc.Login("wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("空密码", func(t *testing.T) {
		_, err := svc.Login("")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestRefresh(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.Login("correct-horse-battery")
	require.NoError(t, err)

	access, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.Validate(access)
	require.NoError(t, err)
	assert.Equal(t, AdminSubject, claims.Subject)
}
