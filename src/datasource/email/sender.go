// sender.go
package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"

	"github.com/jordan-wright/email"

	"TurnaroundAnalysis/src/config"
)

// DefaultSMTPPort 服务器地址未带端口时使用的 SSL 端口
const DefaultSMTPPort = "465"

// Sender 通过 SMTP(显式 TLS) 发送报表邮件
type Sender struct {
	from     string
	password string
	to       []string
	addr     string
	host     string

	// send 可在测试中替换
	send func(e *email.Email, addr string, a smtp.Auth, t *tls.Config) error
}

// NewSender 根据 send_email 配置创建发送器
func NewSender(c *config.Config) (*Sender, error) {
	if c.SendEmail.Server == "" || c.SendEmail.Username == "" {
		return nil, fmt.Errorf("未配置发件邮箱")
	}
	if len(c.SendEmail.To) == 0 {
		return nil, fmt.Errorf("未配置收件人")
	}

	// 确保服务器地址包含端口
	addr := c.SendEmail.Server
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
		addr = net.JoinHostPort(addr, DefaultSMTPPort)
	}

	return &Sender{
		from:     c.SendEmail.Username,
		password: c.SendEmail.Password,
		to:       c.SendEmail.To,
		addr:     addr,
		host:     host,
		send: func(e *email.Email, addr string, a smtp.Auth, t *tls.Config) error {
			return e.SendWithTLS(addr, a, t)
		},
	}, nil
}

// Message 组装邮件, 附件不存在时报错
func (s *Sender) Message(subject, body string, attachments ...string) (*email.Email, error) {
	e := email.NewEmail()
	e.From = fmt.Sprintf("Turnaround Report <%s>", s.from)
	e.To = s.to
	e.Subject = subject
	e.Text = []byte(body)

	for _, path := range attachments {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("附件文件不存在: %s", path)
		}
		if _, err := e.AttachFile(path); err != nil {
			return nil, fmt.Errorf("附件添加失败: %w", err)
		}
	}
	return e, nil
}

// Send 发送报表邮件
func (s *Sender) Send(subject, body string, attachments ...string) error {
	e, err := s.Message(subject, body, attachments...)
	if err != nil {
		return err
	}

	err = s.send(e, s.addr,
		smtp.PlainAuth("", s.from, s.password, s.host),
		&tls.Config{ServerName: s.host},
	)
	if err != nil {
		return fmt.Errorf("邮件发送失败: %w (Server: %s)", err, s.addr)
	}
	return nil
}

// Recipients 收件人列表
func (s *Sender) Recipients() string {
	return strings.Join(s.to, ", ")
}
