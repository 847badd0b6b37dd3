package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"embyauto/backend/internal/auth"
)

// AuthHandler 处理认证相关的 HTTP 请求
type AuthHandler struct {
	authService *auth.Service
	log         *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService *auth.Service, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

// Login 管理员登录
//
// 校验管理员密码，成功则签发访问令牌与刷新令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	pair, err := h.authService.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Warn("admin login rejected", zap.String("ip", c.ClientIP()))
			Unauthorized(c, MsgInvalidCredentials)
			return
		}
		h.log.Error("failed to issue tokens", zap.Error(err))
		InternalError(c, MsgInternalError)
		return
	}

	h.log.Info("admin logged in", zap.String("ip", c.ClientIP()))

	Success(c, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	})
}

// Refresh 使用刷新令牌换取新的访问令牌
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	access, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		Unauthorized(c, MsgTokenInvalid)
		return
	}

	Success(c, tokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
	})
}

// Me 返回当前登录身份
func (h *AuthHandler) Me(c *gin.Context) {
	subject, _ := c.Get("subject")
	role, _ := c.Get("role")

	Success(c, gin.H{
		"subject": subject,
		"role":    role,
	})
}
