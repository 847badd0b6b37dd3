// Package extract 从激活邮件中定位激活链接。
//
// 上游邮件的 HTML 载荷形态不稳定（字符串或字符串数组），且正文中
// 可能混杂多个链接。这里不做结构化邮件解析，只按位置取第一个 URL：
// 激活邮件的行动按钮链接总是排在最前。
package extract

import (
	"regexp"
	"strings"

	"embyauto/backend/internal/domain"
)

// urlPattern 匹配 http/https URL，遇到空白、引号或尖括号即停止，
// 避免把 HTML 属性的收尾字符带进链接
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// ActivationLink 从邮件中提取激活链接
//
// providerDomain 为临时邮箱服务自身的域名。来自该域名的邮件是
// 服务方的管理通知，不包含值得跟进的激活链接，直接拒绝，
// 不检查正文。其余情况按 纯文本正文 + HTML 片段 的顺序拼接成
// 候选缓冲区，返回其中第一个 URL；没有找到返回空字符串。
func ActivationLink(message *domain.InboxMessage, providerDomain string) string {
	if message == nil {
		return ""
	}

	if isProviderSender(message.From.Address, providerDomain) {
		return ""
	}

	var parts []string
	if message.Text != "" {
		parts = append(parts, message.Text)
	}
	parts = append(parts, message.HTML...)

	combined := strings.Join(parts, "\n")

	return urlPattern.FindString(combined)
}

// isProviderSender 判断发件人是否属于邮箱服务商自身的域名
func isProviderSender(address, providerDomain string) bool {
	if providerDomain == "" {
		return false
	}
	suffix := "@" + strings.TrimPrefix(strings.ToLower(providerDomain), "@")
	return strings.HasSuffix(strings.ToLower(address), suffix)
}
