package service

import "math/rand"

// accountPasswordCharset 目标站点账号密码的字符集
//
// 与临时邮箱密码（纯数字）策略独立，两者不可合并。
const accountPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateAccountPassword 生成目标站点账号密码
func generateAccountPassword(length int) string {
	if length <= 0 {
		length = 12
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = accountPasswordCharset[rand.Intn(len(accountPasswordCharset))]
	}
	return string(out)
}
