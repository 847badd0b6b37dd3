package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"embyauto/backend/internal/domain"
)

func TestActivationLink(t *testing.T) {
	tests := []struct {
		name    string
		message *domain.InboxMessage
		want    string
	}{
		{
			name: "纯文本正文取第一个链接",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "noreply@streamingstreaming.com"},
				Text: "Click https://x.test/a then https://x.test/b",
			},
			want: "https://x.test/a",
		},
		{
			name: "HTML片段数组中的链接不带引号和标签字符",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "noreply@streamingstreaming.com"},
				HTML: domain.HTMLBody{`<a href="https://y.test/act?token=1">go</a>`},
			},
			want: "https://y.test/act?token=1",
		},
		{
			name: "文本正文优先于HTML",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "noreply@x.test"},
				Text: "Go to https://first.test/activate",
				HTML: domain.HTMLBody{`<a href="https://second.test/activate">go</a>`},
			},
			want: "https://first.test/activate",
		},
		{
			name: "多个HTML片段按顺序拼接",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "noreply@x.test"},
				HTML: domain.HTMLBody{"<p>no links here</p>", `<a href='http://plain.test/go'>go</a>`},
			},
			want: "http://plain.test/go",
		},
		{
			name: "服务商自身邮件直接拒绝",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "hello@mail.tm"},
				Text: "Welcome! https://mail.tm/app has everything you need",
			},
			want: "",
		},
		{
			name: "服务商域名匹配不区分大小写",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "Hello@MAIL.TM"},
				Text: "https://mail.tm/app",
			},
			want: "",
		},
		{
			name: "没有链接返回空",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "someone@x.test"},
				Text: "plain text without any link",
			},
			want: "",
		},
		{
			name: "空正文返回空",
			message: &domain.InboxMessage{
				From: domain.Address{Address: "someone@x.test"},
			},
			want: "",
		},
		{
			name:    "nil消息返回空",
			message: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActivationLink(tt.message, "mail.tm"))
		})
	}
}

func TestActivationLink_ProviderDomainConfigurable(t *testing.T) {
	message := &domain.InboxMessage{
		From: domain.Address{Address: "admin@tempbox.example"},
		Text: "https://tempbox.example/notice",
	}

	// 换一个服务商域名时，相同邮件不再被拒绝
	assert.Empty(t, ActivationLink(message, "tempbox.example"))
	assert.Equal(t, "https://tempbox.example/notice", ActivationLink(message, "mail.tm"))
}
