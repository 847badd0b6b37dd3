package httptransport

import (
	"embyauto/backend/internal/domain"
)

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"

	// 认证相关
	MsgAuthRequired       = "需要登录认证"
	MsgInvalidCredentials = "密码错误"
	MsgTokenInvalid       = "无效的访问令牌"

	// 开号流程相关
	MsgProvisionSucceeded = "开号成功"
	MsgProvisionFailed    = "开号失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)

// 失败阶段的中文描述
var stageMessages = map[domain.FailureStage]string{
	domain.FailureMailboxCreate:  "临时邮箱创建失败",
	domain.FailureRegistration:   "注册请求被目标站点拒绝",
	domain.FailureInbox:          "等待激活邮件超时",
	domain.FailureActivationLink: "未能从邮件中提取激活链接",
	domain.FailureAborted:        "流程因上游错误中止",
}

// StageMessage 返回失败阶段的中文描述
func StageMessage(stage domain.FailureStage) string {
	if msg, ok := stageMessages[stage]; ok {
		return msg
	}
	return MsgProvisionFailed
}
