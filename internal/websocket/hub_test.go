package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwtpkg "embyauto/backend/internal/auth/jwt"
	"embyauto/backend/internal/domain"
)

func newTestHub(t *testing.T) (*Hub, *jwtpkg.Manager, *httptest.Server, context.CancelFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtManager := jwtpkg.NewManager("test-secret-key-at-least-32-chars-long", "embyauto-test", 15*time.Minute, time.Hour)
	hub := NewHub([]string{"*"}, jwtManager, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/v1/ws", HandleWebSocket(hub))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return hub, jwtManager, server, cancel
}

func dialWS(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubRejectsInvalidToken(t *testing.T) {
	_, _, server, cancel := newTestHub(t)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHubBroadcastsProgress(t *testing.T) {
	hub, jwtManager, server, cancel := newTestHub(t)
	defer cancel()

	pair, err := jwtManager.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)

	conn := dialWS(t, server, pair.AccessToken)

	// 等待客户端完成注册
	time.Sleep(50 * time.Millisecond)

	event := domain.ProgressEvent{
		Stage: domain.StageRegistration,
		Text:  "注册成功，等待激活邮件",
		Time:  time.Now(),
	}
	hub.Publish("run-1", event)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageTypeProgress, msg.Type)
	assert.Equal(t, "run-1", msg.RunID)

	var progress ProgressData
	require.NoError(t, json.Unmarshal(msg.Data, &progress))
	assert.Equal(t, "registration", progress.Stage)
	assert.Equal(t, "注册成功，等待激活邮件", progress.Text)
}

func TestHubSubscriptionFiltersRuns(t *testing.T) {
	hub, jwtManager, server, cancel := newTestHub(t)
	defer cancel()

	pair, err := jwtManager.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)

	conn := dialWS(t, server, pair.AccessToken)
	time.Sleep(50 * time.Millisecond)

	// 订阅 run-a 后只应收到 run-a 的事件
	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeSubscribe, RunID: "run-a"}))

	// 先收到订阅确认
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack Message
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, MessageTypeSubscribed, ack.Type)

	hub.Publish("run-b", domain.ProgressEvent{Stage: domain.StageStart, Text: "开始注册流程", Time: time.Now()})
	hub.Publish("run-a", domain.ProgressEvent{Stage: domain.StageStart, Text: "开始注册流程", Time: time.Now()})

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeProgress, msg.Type)
	assert.Equal(t, "run-a", msg.RunID)
}
