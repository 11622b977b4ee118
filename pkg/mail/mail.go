package mail

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"face-attendance/config"
)

// Attachment 邮件附件
type Attachment struct {
	Filename string
	Content  []byte
}

// Message 待发送邮件
type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Sender 基于 SMTP 的邮件发送器
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender 根据配置创建发送器
func NewSender(cfg *config.MailConfig) *Sender {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &Sender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   from,
	}
}

// Send 发送邮件；SMTP 会话不支持取消，仅在发送前检查 ctx
func (s *Sender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("邮件收件人不能为空")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)

	for _, a := range msg.Attachments {
		content := a.Content
		m.Attach(a.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}
