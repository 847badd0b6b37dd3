package domain

// MailboxCredential 一次性邮箱凭证
//
// 每次开号流程创建一个，流程结束即丢弃，永不落盘。
type MailboxCredential struct {
	Address  string `json:"address"`  // 完整邮箱地址
	Password string `json:"password"` // 邮箱密码（纯数字）
	Token    string `json:"-"`        // 收件箱访问令牌，创建后换取
}
