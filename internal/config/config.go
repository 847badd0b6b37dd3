package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// RegistrarConfig 定义目标站点注册接口的配置
type RegistrarConfig struct {
	URL     string        // 注册接口地址，默认 https://streamingstreaming.com/reg.php
	Origin  string        // 提交注册时携带的 Origin 头
	Referer string        // 提交注册时携带的 Referer 头
	Timeout time.Duration // 单次请求超时，默认 15s
}

// MailTMConfig 定义临时邮箱服务（mail.tm 风格 API）的配置
type MailTMConfig struct {
	BaseURL         string        // API 基础地址，默认 https://api.mail.tm
	ProviderDomain  string        // 服务商自身域名，来自该域名的邮件被视为管理通知
	Timeout         time.Duration // 单次请求超时，默认 10s
	PollTimeout     time.Duration // 收件箱轮询总预算，默认 300s
	PollInterval    time.Duration // 轮询间隔，默认 8s
	LocalPartLength int           // 随机邮箱前缀长度，默认 10
	PasswordLength  int           // 邮箱密码长度（纯数字），默认 6
}

// AccountConfig 定义目标站点账号的密码策略
//
// 注意与邮箱密码策略相互独立：邮箱密码为纯数字，
// 账号密码为字母数字混合，两者不可合并。
type AccountConfig struct {
	PasswordLength int // 账号密码长度，默认 12
}

// ProvisionConfig 定义开号流程本身的配置
type ProvisionConfig struct {
	MaxConcurrent int64 // 同时执行的开号流程上限，默认 4
}

// AdminConfig 定义后台管理登录配置
type AdminConfig struct {
	Password string // 管理员登录密码，必须显式配置
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，为空时只输出到控制台
}

// JWTConfig 定义 JWT 认证相关配置
type JWTConfig struct {
	Secret        string        // JWT 签名密钥，必须至少 32 字符
	Issuer        string        // JWT 签发者标识，默认 "embyauto"
	AccessExpiry  time.Duration // 访问令牌有效期，默认 15 分钟
	RefreshExpiry time.Duration // 刷新令牌有效期，默认 7 天
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig    // HTTP 服务器配置
	Registrar RegistrarConfig // 目标站点注册接口配置
	MailTM    MailTMConfig    // 临时邮箱服务配置
	Account   AccountConfig   // 账号密码策略
	Provision ProvisionConfig // 开号流程配置
	Admin     AdminConfig     // 管理员登录配置
	CORS      CORSConfig      // 跨域配置
	Log       LogConfig       // 日志配置
	JWT       JWTConfig       // JWT 认证配置
}

const defaultAdminPassword = "ChangeMeNow!"

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//   1. 系统环境变量（最高优先级）
//   2. .env 文件（如果存在）
//   3. 默认值
//
// 环境变量前缀: EMBYAUTO_
// 例如: EMBYAUTO_SERVER_PORT, EMBYAUTO_ADMIN_PASSWORD
//
// 返回值:
//   - *Config: 加载成功的配置对象
//   - error: 配置验证失败时返回错误
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("embyauto")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("registrar.url", "https://streamingstreaming.com/reg.php")
	viper.SetDefault("registrar.origin", "https://streamingstreaming.com")
	viper.SetDefault("registrar.referer", "https://streamingstreaming.com/")
	viper.SetDefault("registrar.timeout", "15s")
	viper.SetDefault("mailtm.base_url", "https://api.mail.tm")
	viper.SetDefault("mailtm.provider_domain", "mail.tm")
	viper.SetDefault("mailtm.timeout", "10s")
	viper.SetDefault("mailtm.poll_timeout", "300s")
	viper.SetDefault("mailtm.poll_interval", "8s")
	viper.SetDefault("mailtm.local_part_length", 10)
	viper.SetDefault("mailtm.password_length", 6)
	viper.SetDefault("account.password_length", 12)
	viper.SetDefault("provision.max_concurrent", 4)
	viper.SetDefault("admin.password", defaultAdminPassword)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.issuer", "embyauto")
	viper.SetDefault("jwt.access_expiry", "15m")
	viper.SetDefault("jwt.refresh_expiry", "168h")

	registrarTimeout, err := time.ParseDuration(viper.GetString("registrar.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid registrar.timeout: %w", err)
	}

	mailTimeout, err := time.ParseDuration(viper.GetString("mailtm.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailtm.timeout: %w", err)
	}

	pollTimeout, err := time.ParseDuration(viper.GetString("mailtm.poll_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailtm.poll_timeout: %w", err)
	}

	pollInterval, err := time.ParseDuration(viper.GetString("mailtm.poll_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailtm.poll_interval: %w", err)
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("mailtm.poll_interval must be positive")
	}

	localPartLength := viper.GetInt("mailtm.local_part_length")
	if localPartLength <= 0 {
		localPartLength = 10
	}

	mailPasswordLength := viper.GetInt("mailtm.password_length")
	if mailPasswordLength <= 0 {
		mailPasswordLength = 6
	}

	accountPasswordLength := viper.GetInt("account.password_length")
	if accountPasswordLength <= 0 {
		accountPasswordLength = 12
	}

	maxConcurrent := viper.GetInt64("provision.max_concurrent")
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("jwt.access_expiry"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("jwt.refresh_expiry"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	adminPassword := viper.GetString("admin.password")

	// 安全检查：禁止使用默认管理员密码
	if adminPassword == defaultAdminPassword {
		return nil, fmt.Errorf("SECURITY ERROR: admin password cannot be the default value. Please set EMBYAUTO_ADMIN_PASSWORD environment variable")
	}

	jwtSecret := viper.GetString("jwt.secret")

	// 安全检查：禁止使用默认的 JWT secret
	if jwtSecret == "change-me-in-production" {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret cannot be the default value. Please set EMBYAUTO_JWT_SECRET environment variable")
	}

	// JWT secret 必须至少 32 字符
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: JWT secret must be at least 32 characters long")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Registrar: RegistrarConfig{
			URL:     viper.GetString("registrar.url"),
			Origin:  viper.GetString("registrar.origin"),
			Referer: viper.GetString("registrar.referer"),
			Timeout: registrarTimeout,
		},
		MailTM: MailTMConfig{
			BaseURL:         strings.TrimRight(viper.GetString("mailtm.base_url"), "/"),
			ProviderDomain:  viper.GetString("mailtm.provider_domain"),
			Timeout:         mailTimeout,
			PollTimeout:     pollTimeout,
			PollInterval:    pollInterval,
			LocalPartLength: localPartLength,
			PasswordLength:  mailPasswordLength,
		},
		Account: AccountConfig{
			PasswordLength: accountPasswordLength,
		},
		Provision: ProvisionConfig{
			MaxConcurrent: maxConcurrent,
		},
		Admin: AdminConfig{
			Password: adminPassword,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
		JWT: JWTConfig{
			Secret:        jwtSecret,
			Issuer:        viper.GetString("jwt.issuer"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
//
// 参数:
//   - value: 逗号分隔的字符串，如 "item1,item2,item3"
//
// 返回值:
//   - []string: 解析后的字符串切片，已去除空白字符
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//   1. 当前目录的 .env
//   2. 父目录的 .env（用于从 backend/ 子目录运行的情况）
//
// 注意：
//   - 如果文件不存在，静默失败（.env 是可选的）
//   - 环境变量不会被覆盖（已存在的环境变量优先级更高）
func loadEnvFile() {
	// 尝试当前目录的 .env
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	// 尝试父目录的 .env（从 backend/ 目录运行时）
	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
