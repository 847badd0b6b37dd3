package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"embyauto/backend/internal/config"
	"embyauto/backend/internal/domain"
	"embyauto/backend/internal/extract"
	"embyauto/backend/internal/monitoring"
	"embyauto/backend/internal/pool"
	"embyauto/backend/internal/registrar"
)

// MailboxClient 临时邮箱客户端接口
type MailboxClient interface {
	CreateAccount(ctx context.Context) (*domain.MailboxCredential, error)
	GetToken(ctx context.Context, address, password string) (string, error)
	WaitForMessage(ctx context.Context, token string, timeout, interval time.Duration) (string, error)
	FetchMessage(ctx context.Context, token, messageID string) (*domain.InboxMessage, error)
}

// RegistrarClient 目标站点注册客户端接口
type RegistrarClient interface {
	Register(ctx context.Context, email, password string) (registrar.Outcome, error)
	FollowActivationLink(ctx context.Context, link string) (bool, error)
}

// ProgressSink 进度事件的外部订阅者（如 WebSocket Hub）
type ProgressSink interface {
	Publish(runID string, event domain.ProgressEvent)
}

// ProvisionService 开号流程编排器
//
// 串联 创建邮箱 → 提交注册 → 轮询收件箱 → 提取激活链接 → 跟进激活
// 五个步骤。每次流程独占自己的邮箱凭证、令牌与进度轨迹，流程之间
// 不共享可变状态；唯一的跨流程协调是并发上限信号量。
type ProvisionService struct {
	mail    MailboxClient
	reg     RegistrarClient
	cfg     *config.Config
	log     *zap.Logger
	sink    ProgressSink
	metrics *monitoring.Metrics
	sem     *semaphore.Weighted
}

// NewProvisionService 创建开号流程编排器
func NewProvisionService(mail MailboxClient, reg RegistrarClient, cfg *config.Config, log *zap.Logger) *ProvisionService {
	if log == nil {
		log = zap.NewNop()
	}

	maxConcurrent := cfg.Provision.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &ProvisionService{
		mail: mail,
		reg:  reg,
		cfg:  cfg,
		log:  log,
		sem:  semaphore.NewWeighted(maxConcurrent),
	}
}

// SetProgressSink 设置进度事件订阅者
func (s *ProvisionService) SetProgressSink(sink ProgressSink) {
	s.sink = sink
}

// SetMetrics 设置监控指标收集器
func (s *ProvisionService) SetMetrics(metrics *monitoring.Metrics) {
	s.metrics = metrics
}

// runState 单次流程的私有状态
type runState struct {
	id       string
	started  time.Time
	progress []domain.ProgressEvent
}

// RegisterAndActivate 执行一次完整的开号流程
//
// 状态严格单向推进：start → mailbox_created → registration →
// 等待激活邮件 → activation。除收件箱轮询外没有任何重试。
// 任何外部调用的失败都在此转换为带阶段标记的终止结果，
// 不会向调用方抛出错误。
func (s *ProvisionService) RegisterAndActivate(ctx context.Context) *domain.ProvisioningResult {
	run := &runState{
		id:      uuid.New().String(),
		started: time.Now(),
	}
	log := s.log.With(zap.String("run_id", run.id))

	// 并发上限：超出上限的流程在此排队
	if err := s.sem.Acquire(ctx, 1); err != nil {
		log.Warn("provisioning run cancelled before start", zap.Error(err))
		return s.fail(run, domain.FailureAborted, log)
	}
	defer s.sem.Release(1)

	if s.metrics != nil {
		s.metrics.RunStarted()
		defer s.metrics.RunFinished()
	}

	s.step(run, domain.StageStart, "开始注册流程", log)

	// 第一步：创建临时邮箱。软失败（nil, nil）与致命错误分开处理
	cred, err := s.mail.CreateAccount(ctx)
	if err != nil {
		log.Error("workflow aborted: mail provider unavailable", zap.Error(err))
		return s.fail(run, domain.FailureAborted, log)
	}
	if cred == nil {
		return s.fail(run, domain.FailureMailboxCreate, log)
	}

	s.step(run, domain.StageMailboxCreated, "临时邮箱已创建: "+cred.Address, log)

	// 第二步：换取收件箱令牌。凭证被拒视为致命，本次流程不重试
	token, err := s.mail.GetToken(ctx, cred.Address, cred.Password)
	if err != nil {
		log.Error("workflow aborted: token exchange failed", zap.Error(err))
		return s.fail(run, domain.FailureAborted, log)
	}
	cred.Token = token

	// 账号密码独立于邮箱密码生成（字母数字混合）
	accountPassword := generateAccountPassword(s.cfg.Account.PasswordLength)

	// 第三步：提交注册
	outcome, err := s.reg.Register(ctx, cred.Address, accountPassword)
	if err != nil {
		log.Error("workflow aborted: registration request failed", zap.Error(err))
		return s.fail(run, domain.FailureAborted, log)
	}
	if !outcome.Success {
		log.Warn("registration rejected", zap.String("reason", outcome.Reason))
		return s.fail(run, domain.FailureRegistration, log)
	}

	s.step(run, domain.StageRegistration, "注册成功，等待激活邮件", log)

	// 第四步：轮询收件箱，有界等待
	messageID, err := s.mail.WaitForMessage(ctx, cred.Token, s.cfg.MailTM.PollTimeout, s.cfg.MailTM.PollInterval)
	if err != nil {
		log.Error("workflow aborted: inbox wait cancelled", zap.Error(err))
		return s.fail(run, domain.FailureAborted, log)
	}
	if messageID == "" {
		log.Warn("activation email never arrived", zap.Duration("timeout", s.cfg.MailTM.PollTimeout))
		return s.fail(run, domain.FailureInbox, log)
	}

	// 第五步：抓取邮件并提取激活链接。抓取失败等同于没有链接
	message, err := s.mail.FetchMessage(ctx, cred.Token, messageID)
	if err != nil {
		log.Error("message fetch failed", zap.Error(err))
	}
	link := extract.ActivationLink(message, s.cfg.MailTM.ProviderDomain)
	if link == "" {
		return s.fail(run, domain.FailureActivationLink, log)
	}

	s.step(run, domain.StageActivation, "正在激活账号", log)

	// 第六步：跟进激活链接。整个流程唯一以 HTTP 状态码为准的判定点
	ok, err := s.reg.FollowActivationLink(ctx, link)
	if err != nil {
		log.Error("activation request failed", zap.Error(err))
		ok = false
	}

	result := &domain.ProvisioningResult{
		RunID:          run.id,
		Success:        ok,
		Email:          cred.Address,
		Password:       accountPassword,
		ActivationLink: link,
		Progress:       run.progress,
	}

	s.record(result, run, log)
	return result
}

// maxBatchSize 单次批量请求允许的最大流程数
const maxBatchSize = 10

// RegisterAndActivateBatch 并行执行多次开号流程
//
// 通过协程池并行执行，流程级别的并发上限信号量依然生效。
// 结果按提交顺序返回，单个流程的失败不会影响其他流程。
func (s *ProvisionService) RegisterAndActivateBatch(ctx context.Context, count int) []*domain.ProvisioningResult {
	if count <= 0 {
		count = 1
	}
	if count > maxBatchSize {
		count = maxBatchSize
	}

	results := make([]*domain.ProvisioningResult, count)

	workers := int(s.cfg.Provision.MaxConcurrent)
	p := pool.NewWorkerPool(workers, count, s.log)
	p.Start(ctx)

	for i := 0; i < count; i++ {
		i := i
		p.Submit(func() {
			results[i] = s.RegisterAndActivate(ctx)
		})
	}
	p.Stop()

	return results
}

// step 追加一条进度记录，同时写日志并推送给订阅者
func (s *ProvisionService) step(run *runState, stage domain.Stage, text string, log *zap.Logger) {
	event := domain.ProgressEvent{
		Stage: stage,
		Text:  text,
		Time:  time.Now(),
	}
	run.progress = append(run.progress, event)
	log.Info(text, zap.String("stage", string(stage)))

	if s.sink != nil {
		s.sink.Publish(run.id, event)
	}
}

// fail 构造带阶段标记的终止结果
func (s *ProvisionService) fail(run *runState, stage domain.FailureStage, log *zap.Logger) *domain.ProvisioningResult {
	result := &domain.ProvisioningResult{
		RunID:    run.id,
		Success:  false,
		Stage:    stage,
		Progress: run.progress,
	}
	s.record(result, run, log)
	return result
}

// record 上报流程结果的监控指标与结束日志
func (s *ProvisionService) record(result *domain.ProvisioningResult, run *runState, log *zap.Logger) {
	duration := time.Since(run.started)

	if s.metrics != nil {
		s.metrics.RecordRun(result.Success, string(result.Stage), duration)
	}

	if result.Success {
		log.Info("provisioning run succeeded",
			zap.String("email", result.Email),
			zap.Duration("duration", duration),
		)
	} else {
		log.Warn("provisioning run failed",
			zap.String("stage", string(result.Stage)),
			zap.Duration("duration", duration),
		)
	}
}
