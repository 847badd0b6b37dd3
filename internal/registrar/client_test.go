package registrar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		success bool
	}{
		{"普通成功响应", "OK", true},
		{"空响应也算成功", "", true},
		// 已知启发式：不含 error 字样的 2xx 一律判成功
		{"无error字样的HTML判成功", "<html><body>Welcome aboard</body></html>", true},
		{"小写error判失败", "error: email taken", false},
		{"大写Error判失败", "Error: email taken", false},
		{"正文中间的ERROR判失败", "something went wrong: ERROR_CODE_7", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := ClassifyResponse(tt.body)
			assert.Equal(t, tt.success, outcome.Success)
			if !tt.success {
				assert.NotEmpty(t, outcome.Reason)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	t.Run("表单与请求头正确提交", func(t *testing.T) {
		var gotForm map[string]string
		var gotHeaders http.Header
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = map[string]string{
				"email":    r.PostFormValue("email"),
				"password": r.PostFormValue("password"),
			}
			gotHeaders = r.Header.Clone()
			w.Write([]byte("OK"))
		}))
		defer server.Close()

		client := New(server.Client(), Config{
			URL:     server.URL + "/reg.php",
			Origin:  "https://streamingstreaming.com",
			Referer: "https://streamingstreaming.com/",
		}, nil)

		outcome, err := client.Register(context.Background(), "u@x.test", "Passw0rd1234")
		require.NoError(t, err)
		assert.True(t, outcome.Success)

		assert.Equal(t, "u@x.test", gotForm["email"])
		assert.Equal(t, "Passw0rd1234", gotForm["password"])
		assert.Equal(t, "application/x-www-form-urlencoded", gotHeaders.Get("Content-Type"))
		assert.Equal(t, "https://streamingstreaming.com", gotHeaders.Get("Origin"))
		assert.Equal(t, "https://streamingstreaming.com/", gotHeaders.Get("Referer"))
		assert.Contains(t, userAgents, gotHeaders.Get("User-Agent"))
	})

	t.Run("响应含error判为失败", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("Error: email taken"))
		}))
		defer server.Close()

		client := New(server.Client(), Config{URL: server.URL}, nil)

		outcome, err := client.Register(context.Background(), "u@x.test", "pw")
		require.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, "Error: email taken", outcome.Reason)
	})

	t.Run("状态码不参与注册结果判定", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 500 但正文没有 error 字样，按既定策略仍判成功
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("temporarily busy"))
		}))
		defer server.Close()

		client := New(server.Client(), Config{URL: server.URL}, nil)

		outcome, err := client.Register(context.Background(), "u@x.test", "pw")
		require.NoError(t, err)
		assert.True(t, outcome.Success)
	})
}

func TestFollowActivationLink(t *testing.T) {
	t.Run("2xx视为激活成功", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, userAgents, r.Header.Get("User-Agent"))
			w.Write([]byte("activated"))
		}))
		defer server.Close()

		client := New(server.Client(), Config{URL: "unused"}, nil)

		ok, err := client.FollowActivationLink(context.Background(), server.URL+"/activate?x=1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("非2xx视为激活失败", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := New(server.Client(), Config{URL: "unused"}, nil)

		ok, err := client.FollowActivationLink(context.Background(), server.URL+"/gone")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRandomUserAgent(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Contains(t, userAgents, randomUserAgent())
	}
}
