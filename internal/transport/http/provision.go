package httptransport

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"embyauto/backend/internal/domain"
)

// Provisioner 开号流程编排器接口
type Provisioner interface {
	RegisterAndActivate(ctx context.Context) *domain.ProvisioningResult
	RegisterAndActivateBatch(ctx context.Context, count int) []*domain.ProvisioningResult
}

// ProvisionHandler 处理开号流程的 HTTP 请求
type ProvisionHandler struct {
	provision Provisioner
	log       *zap.Logger
}

// NewProvisionHandler 创建开号处理器
func NewProvisionHandler(provision Provisioner, log *zap.Logger) *ProvisionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProvisionHandler{
		provision: provision,
		log:       log,
	}
}

// Provision 执行一次完整的开号流程
//
// 同步执行，收到响应即代表流程结束。流程的每一步失败都已在
// 编排层转换为带阶段标记的结果，这里只做状态码映射：
// 成功 200，失败 502（问题总是出在某个上游服务）。
func (h *ProvisionHandler) Provision(c *gin.Context) {
	result := h.provision.RegisterAndActivate(c.Request.Context())

	if result.Success {
		SuccessWithMsg(c, MsgProvisionSucceeded, result)
		return
	}

	msg := StageMessage(result.Stage)
	if result.Stage == "" {
		// 流程走完但激活请求未返回成功状态，账号信息仍然有效
		msg = "激活请求未返回成功状态"
	}

	BadGateway(c, msg, result)
}

type batchRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

type batchResponse struct {
	Total     int                         `json:"total"`
	Succeeded int                         `json:"succeeded"`
	Results   []*domain.ProvisioningResult `json:"results"`
}

// ProvisionBatch 批量执行开号流程
//
// 各流程相互独立，部分失败不影响整体响应，统一返回 200
// 并附带每个流程的结果，由调用方自行处理失败项。
func (h *ProvisionHandler) ProvisionBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidRequest)
		return
	}

	results := h.provision.RegisterAndActivateBatch(c.Request.Context(), req.Count)

	succeeded := 0
	for _, r := range results {
		if r != nil && r.Success {
			succeeded++
		}
	}

	Success(c, batchResponse{
		Total:     len(results),
		Succeeded: succeeded,
		Results:   results,
	})
}
