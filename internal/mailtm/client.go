package mailtm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"embyauto/backend/internal/cache"
	"embyauto/backend/internal/domain"
)

var (
	// ErrUpstreamUnavailable 上游服务不可达或返回非 2xx 状态（致命调用）
	ErrUpstreamUnavailable = errors.New("mail provider unavailable")
	// ErrMalformedResponse 结构化响应缺少预期字段
	ErrMalformedResponse = errors.New("mail provider returned malformed response")
	// ErrAuth 凭证换取令牌被上游拒绝
	ErrAuth = errors.New("mail provider rejected credentials")
)

const (
	localPartCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
	digitCharset     = "0123456789"

	// 日志中截取响应体的最大长度
	bodySnippetLimit = 500
)

// HTTPClient 与 net/http.Client 的 Do 签名一致，便于测试注入
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config 定义临时邮箱客户端的构造参数
type Config struct {
	BaseURL         string        // API 基础地址
	Timeout         time.Duration // 单次请求超时
	LocalPartLength int           // 随机邮箱前缀长度
	PasswordLength  int           // 邮箱密码长度（纯数字）
}

// Client 临时邮箱服务客户端
//
// 封装 mail.tm 风格 API 的域名查询、邮箱创建、令牌换取与收件箱轮询。
// 客户端本身无状态，可被多个开号流程并发使用。
type Client struct {
	baseURL         string
	httpClient      HTTPClient
	log             *zap.Logger
	localPartLength int
	passwordLength  int
	domains         *cache.TTLCache
	pollObserver    func()
}

// SetPollObserver 注册收件箱轮询观测回调，每次列表请求前调用一次
func (c *Client) SetPollObserver(fn func()) {
	c.pollObserver = fn
}

// New 创建临时邮箱客户端
func New(httpClient HTTPClient, cfg Config, log *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}

	base := cfg.BaseURL
	if base == "" {
		base = "https://api.mail.tm"
	}

	localPartLength := cfg.LocalPartLength
	if localPartLength <= 0 {
		localPartLength = 10
	}

	passwordLength := cfg.PasswordLength
	if passwordLength <= 0 {
		passwordLength = 6
	}

	return &Client{
		baseURL:         base,
		httpClient:      httpClient,
		log:             log,
		localPartLength: localPartLength,
		passwordLength:  passwordLength,
		domains:         cache.NewTTLCache(10 * time.Minute),
	}
}

// hydraCollection mail.tm 的集合响应信封（hydra:member 键）
type hydraCollection struct {
	Member []json.RawMessage `json:"hydra:member"`
}

type domainEntry struct {
	Domain string `json:"domain"`
}

type messageEntry struct {
	ID string `json:"id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// GetDomain 获取可用邮箱域名列表并返回第一个
//
// 域名列表几乎不变，结果会缓存一段时间，过期后才重新拉取。
// 上游不可达或返回非 2xx 时返回 ErrUpstreamUnavailable，
// 域名列表为空或缺少 domain 字段时返回 ErrMalformedResponse。
func (c *Client) GetDomain(ctx context.Context) (string, error) {
	if cached, ok := c.domains.Get("first"); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/domains", nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: domains returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var collection hydraCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(collection.Member) == 0 {
		return "", fmt.Errorf("%w: empty domain list", ErrMalformedResponse)
	}

	var entry domainEntry
	if err := json.Unmarshal(collection.Member[0], &entry); err != nil || entry.Domain == "" {
		return "", fmt.Errorf("%w: missing domain field", ErrMalformedResponse)
	}

	c.domains.Set("first", entry.Domain)

	return entry.Domain, nil
}

// CreateAccount 创建一次性邮箱账号
//
// 随机生成小写字母数字前缀与纯数字密码，提交创建请求。
// 仅 200/201 视为成功；其他状态码记录响应体并返回 (nil, nil)，
// 这是预期中的软失败，由调用方显式检查空结果。
// 域名列表获取失败与网络错误属于致命错误，原样返回。
func (c *Client) CreateAccount(ctx context.Context) (*domain.MailboxCredential, error) {
	mailDomain, err := c.GetDomain(ctx)
	if err != nil {
		return nil, err
	}

	address := fmt.Sprintf("%s@%s", randomString(localPartCharset, c.localPartLength), mailDomain)
	password := randomString(digitCharset, c.passwordLength)

	payload, err := json.Marshal(map[string]string{
		"address":  address,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode account payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accounts", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		c.log.Error("mail account creation failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", snippet(body)),
		)
		return nil, nil
	}

	return &domain.MailboxCredential{
		Address:  address,
		Password: password,
	}, nil
}

// GetToken 用邮箱凭证换取收件箱访问令牌
//
// 非 2xx 视为致命错误（ErrAuth），本次流程不再重试。
func (c *Client) GetToken(ctx context.Context, address, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"address":  address,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("encode token payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token returned status %d", ErrAuth, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if token.Token == "" {
		return "", fmt.Errorf("%w: missing token field", ErrMalformedResponse)
	}

	return token.Token, nil
}

// WaitForMessage 轮询收件箱直到出现邮件或超出时间预算
//
// 每次轮询发起一次带令牌的列表请求；响应体无法解析时记录日志并继续
// 轮询（上游偶尔返回 HTML 错误页）。超时后返回空字符串而非错误，
// 由调用方识别为收件箱超时。上层 context 取消时立即返回。
func (c *Client) WaitForMessage(ctx context.Context, token string, timeout, interval time.Duration) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		id, ok := c.pollInbox(waitCtx, token)
		if ok {
			return id, nil
		}

		select {
		case <-waitCtx.Done():
			// 上层取消与预算耗尽要区分开：前者是错误，后者是正常超时
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", nil
		case <-time.After(interval):
		}
	}
}

// pollInbox 执行单次收件箱列表请求，返回最新一封邮件的 ID
func (c *Client) pollInbox(ctx context.Context, token string) (string, bool) {
	if c.pollObserver != nil {
		c.pollObserver()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages", nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("inbox poll failed", zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn("inbox poll read failed", zap.Error(err))
		return "", false
	}

	var collection hydraCollection
	if err := json.Unmarshal(body, &collection); err != nil {
		// 上游偶发返回 HTML 错误页，继续轮询而不是中止
		c.log.Error("inbox returned non-JSON body", zap.String("body", snippet(body)))
		return "", false
	}

	c.log.Info("inbox polled", zap.Int("messages", len(collection.Member)))

	if len(collection.Member) == 0 {
		return "", false
	}

	var entry messageEntry
	if err := json.Unmarshal(collection.Member[0], &entry); err != nil || entry.ID == "" {
		c.log.Error("inbox message entry missing id", zap.String("body", snippet(body)))
		return "", false
	}

	return entry.ID, true
}

// FetchMessage 抓取单封邮件的完整内容
//
// 抓取或解析失败时返回 (nil, nil) 并记录日志，
// 调用方将其视为未找到激活链接处理。
func (c *Client) FetchMessage(ctx context.Context, token, messageID string) (*domain.InboxMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/messages/"+messageID, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("message fetch failed", zap.String("message_id", messageID), zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("message fetch read failed", zap.String("message_id", messageID), zap.Error(err))
		return nil, nil
	}

	var message domain.InboxMessage
	if err := json.Unmarshal(body, &message); err != nil {
		c.log.Error("message fetch returned non-JSON body",
			zap.String("message_id", messageID),
			zap.String("body", snippet(body)),
		)
		return nil, nil
	}

	return &message, nil
}

// randomString 从给定字符集生成定长随机字符串
func randomString(charset string, length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = charset[rand.Intn(len(charset))]
	}
	return string(out)
}

// snippet 截取响应体前若干字节用于日志
func snippet(body []byte) string {
	if len(body) > bodySnippetLimit {
		return string(body[:bodySnippetLimit])
	}
	return string(body)
}
