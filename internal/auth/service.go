// Package auth 实现单管理员模型的后台登录认证。
//
// 系统没有多用户体系，后台只有一个管理员身份，
// 通过配置的密码登录后换取 JWT 令牌对访问受保护接口。
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"embyauto/backend/internal/auth/jwt"
	"embyauto/backend/internal/config"
)

var (
	// ErrInvalidCredentials 密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AdminSubject 管理员在 JWT 中的主体标识
const AdminSubject = "admin"

// Service 认证服务
//
// 管理员密码在启动时做一次 bcrypt 哈希，
// 之后所有登录请求只与哈希比较，明文不再保留。
type Service struct {
	adminHash []byte
	jwt       *jwt.Manager
}

// NewService 创建认证服务
func NewService(cfg *config.Config) (*Service, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	manager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	return &Service{
		adminHash: hash,
		jwt:       manager,
	}, nil
}

// Login 校验管理员密码并签发令牌对
func (s *Service) Login(password string) (*jwt.TokenPair, error) {
	if err := bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.jwt.GenerateTokenPair(AdminSubject, AdminSubject)
}

// Refresh 使用刷新令牌换取新的访问令牌
func (s *Service) Refresh(refreshToken string) (string, error) {
	return s.jwt.RefreshAccessToken(refreshToken)
}

// Validate 验证访问令牌
func (s *Service) Validate(token string) (*jwt.Claims, error) {
	return s.jwt.ValidateToken(token)
}
