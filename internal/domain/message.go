package domain

import "encoding/json"

// Address 邮件地址对象（mail.tm 风格的 {"address": "...", "name": "..."}）
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// HTMLBody 邮件 HTML 正文
//
// 上游对该字段的形态不稳定：可能是单个字符串，也可能是字符串片段数组。
// 统一反序列化为片段数组，两种形态都接受。
type HTMLBody []string

// UnmarshalJSON 同时接受字符串和字符串数组两种 JSON 形态
func (h *HTMLBody) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*h = nil
		} else {
			*h = HTMLBody{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*h = HTMLBody(many)
	return nil
}

// InboxMessage 收件箱中的一封邮件
//
// 抓取后即视为不可变；每次开号流程最多只消费一封（最新的一封）。
type InboxMessage struct {
	ID      string   `json:"id"`
	From    Address  `json:"from"`
	Subject string   `json:"subject,omitempty"`
	Text    string   `json:"text,omitempty"`
	HTML    HTMLBody `json:"html,omitempty"`
}
