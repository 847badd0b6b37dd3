package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// HealthChecker 健康检查器
//
// 存活检查只看进程自身状态，就绪检查额外探测临时邮箱服务，
// 上游不可达时摘除流量但不重启进程。
type HealthChecker struct {
	health      healthcheck.Handler
	mailBaseURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(mailBaseURL string, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := &HealthChecker{
		health:      healthcheck.NewHandler(),
		mailBaseURL: mailBaseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		logger:      logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// goroutine 数量检查
	hc.health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(500))

	// 临时邮箱服务可达性检查
	hc.health.AddReadinessCheck("mail-provider", hc.mailProviderCheck())
}

// mailProviderCheck 探测临时邮箱服务的域名接口
func (hc *HealthChecker) mailProviderCheck() healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, hc.mailBaseURL+"/domains", nil)
		if err != nil {
			return err
		}

		resp, err := hc.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
		}
		return nil
	}
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// CheckHealth 执行一次健康检查并返回结果摘要
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.mailProviderCheck()(); err != nil {
		results["mail_provider"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["mail_provider"] = "OK"
	}

	results["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())
	results["timestamp"] = time.Now().Format(time.RFC3339)

	return results
}
