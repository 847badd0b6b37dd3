package registrar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 日志中截取响应体的最大长度
const bodySnippetLimit = 200

// HTTPClient 与 net/http.Client 的 Do 签名一致，便于测试注入
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome 注册提交的分类结果
//
// 目标站点没有结构化响应契约，唯一可依赖的是响应文本本身，
// 所以结果只有成功/失败两态，失败时附带原始响应文本作为原因。
type Outcome struct {
	Success bool
	Reason  string
}

// Config 定义注册客户端的构造参数
type Config struct {
	URL     string        // 注册接口地址
	Origin  string        // Origin 头
	Referer string        // Referer 头
	Timeout time.Duration // 单次请求超时
}

// Client 目标站点注册客户端
//
// 负责提交表单注册并跟进激活链接。两类请求都带随机 User-Agent。
type Client struct {
	regURL     string
	origin     string
	referer    string
	httpClient HTTPClient
	log        *zap.Logger
}

// New 创建注册客户端
func New(httpClient HTTPClient, cfg Config, log *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		regURL:     cfg.URL,
		origin:     cfg.Origin,
		referer:    cfg.Referer,
		httpClient: httpClient,
		log:        log,
	}
}

// Register 提交注册请求并分类响应
//
// 表单编码提交邮箱与密码，携带随机 User-Agent 以及与目标站点
// 匹配的 Origin/Referer 头。结果完全由 ClassifyResponse 决定，
// HTTP 状态码不参与判定。
func (c *Client) Register(ctx context.Context, email, password string) (Outcome, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.regURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Outcome{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", randomUserAgent())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Referer", c.referer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("registration request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("read registration response: %w", err)
	}

	c.log.Info("registration submitted",
		zap.Int("status", resp.StatusCode),
		zap.String("body", snippet(body)),
	)

	return ClassifyResponse(string(body)), nil
}

// ClassifyResponse 按响应文本分类注册结果
//
// 判定策略：响应文本不区分大小写地包含 "error" 即失败，否则成功。
// 这是已知的启发式弱点：站点不返回结构化结果，没有 "error" 字样的
// 2xx 响应即使实际没有建号也会被判成功。保持该行为不做加固，
// 除非上游提供了结构化契约。
func ClassifyResponse(text string) Outcome {
	if strings.Contains(strings.ToLower(text), "error") {
		return Outcome{Success: false, Reason: strings.TrimSpace(text)}
	}
	return Outcome{Success: true}
}

// FollowActivationLink 跟进激活链接完成激活
//
// 带随机 User-Agent 发起 GET，2xx 视为激活成功。
// 这是流程中唯一以 HTTP 状态码为准的判定点。
func (c *Client) FollowActivationLink(ctx context.Context, link string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", randomUserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("activation request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	c.log.Info("activation link followed",
		zap.Int("status", resp.StatusCode),
		zap.Bool("ok", ok),
	)

	return ok, nil
}

// snippet 截取响应体前若干字节用于日志
func snippet(body []byte) string {
	if len(body) > bodySnippetLimit {
		return string(body[:bodySnippetLimit])
	}
	return string(body)
}
