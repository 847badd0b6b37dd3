package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"embyauto/backend/internal/auth"
	jwtpkg "embyauto/backend/internal/auth/jwt"
	"embyauto/backend/internal/config"
	"embyauto/backend/internal/domain"
)

// stubProvisioner 返回预设结果的编排器替身
type stubProvisioner struct {
	result *domain.ProvisioningResult
}

func (s *stubProvisioner) RegisterAndActivate(ctx context.Context) *domain.ProvisioningResult {
	return s.result
}

func (s *stubProvisioner) RegisterAndActivateBatch(ctx context.Context, count int) []*domain.ProvisioningResult {
	results := make([]*domain.ProvisioningResult, count)
	for i := range results {
		results[i] = s.result
	}
	return results
}

func newTestRouter(t *testing.T, provisioner Provisioner) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Admin: config.AdminConfig{Password: "correct-horse-battery"},
		JWT: config.JWTConfig{
			Secret:        "test-secret-key-at-least-32-chars-long",
			Issuer:        "embyauto-test",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	authService, err := auth.NewService(cfg)
	require.NoError(t, err)

	jwtManager := jwtpkg.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	return NewRouter(RouterDependencies{
		Config:           cfg,
		AuthService:      authService,
		JWTManager:       jwtManager,
		ProvisionService: provisioner,
	})
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/v1/auth/login", "", gin.H{"password": "correct-horse-battery"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.AccessToken)
	return resp.Data.AccessToken
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvisioner{})

	t.Run("密码正确", func(t *testing.T) {
		token := login(t, router)
		assert.NotEmpty(t, token)
	})

	t.Run("密码错误", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/auth/login", "", gin.H{"password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("缺少密码字段", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/auth/login", "", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvisioner{})

	t.Run("未认证被拒绝", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("认证后返回身份", func(t *testing.T) {
		token := login(t, router)
		w := doJSON(router, http.MethodGet, "/v1/auth/me", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "admin")
	})
}

func TestProvisionEndpoint(t *testing.T) {
	t.Run("未认证被拒绝", func(t *testing.T) {
		router := newTestRouter(t, &stubProvisioner{})
		w := doJSON(router, http.MethodPost, "/v1/provision", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("成功映射为200", func(t *testing.T) {
		router := newTestRouter(t, &stubProvisioner{
			result: &domain.ProvisioningResult{
				RunID:          "run-1",
				Success:        true,
				Email:          "abc@indigobook.com",
				Password:       "p4ssw0rdp4ss",
				ActivationLink: "https://streamingstreaming.com/activate?x=1",
			},
		})
		token := login(t, router)

		w := doJSON(router, http.MethodPost, "/v1/provision", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data domain.ProvisioningResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Success)
		assert.Equal(t, "abc@indigobook.com", resp.Data.Email)
	})

	t.Run("失败映射为502", func(t *testing.T) {
		router := newTestRouter(t, &stubProvisioner{
			result: &domain.ProvisioningResult{
				RunID:   "run-2",
				Success: false,
				Stage:   domain.FailureInbox,
			},
		})
		token := login(t, router)

		w := doJSON(router, http.MethodPost, "/v1/provision", token, nil)
		require.Equal(t, http.StatusBadGateway, w.Code)

		var resp struct {
			Msg  string                    `json:"msg"`
			Data domain.ProvisioningResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.FailureInbox, resp.Data.Stage)
		assert.Equal(t, "等待激活邮件超时", resp.Msg)
	})
}

func TestProvisionBatchEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvisioner{
		result: &domain.ProvisioningResult{RunID: "run-1", Success: true},
	})
	token := login(t, router)

	t.Run("缺少数量参数", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/provision/batch", token, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("批量执行", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/v1/provision/batch", token, gin.H{"count": 3})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				Total     int `json:"total"`
				Succeeded int `json:"succeeded"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Data.Total)
		assert.Equal(t, 3, resp.Data.Succeeded)
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubProvisioner{})
	w := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
