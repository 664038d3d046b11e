package email

import (
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Config 邮件服务配置
type Config struct {
	Host     string `koanf:"host"`     // SMTP 服务器地址，如 smtp.gmail.com
	Port     int    `koanf:"port"`     // SMTP 端口，通常 587 (TLS) 或 465 (SSL)
	Username string `koanf:"username"` // 发件人邮箱
	Password string `koanf:"password"` // 邮箱密码或授权码
	From     string `koanf:"from"`     // 默认发件人，如 "SSE Blog <noreply@example.com>"
	UseTLS   bool   `koanf:"use_tls"`  // 是否校验服务器证书
}

// Message 邮件消息
type Message struct {
	From        string   // 发件人，为空时使用 Config.From
	To          []string // 收件人列表
	Cc          []string // 抄送列表
	Bcc         []string // 密送列表
	Subject     string   // 邮件主题
	Body        string   // 邮件正文（纯文本或 HTML）
	ContentType string   // 内容类型，默认 "text/plain"，可设为 "text/html"
}

// Mailer 发信能力，由进程持有并注入各服务
type Mailer interface {
	Send(msg *Message) error
}

// Client 基于 gomail 的 SMTP 客户端
type Client struct {
	config *Config
	dialer *gomail.Dialer
}

// NewClient 创建邮件客户端
func NewClient(config *Config) *Client {
	if config.Port == 0 {
		config.Port = 587
	}
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName:         config.Host,
		InsecureSkipVerify: !config.UseTLS,
	}
	return &Client{config: config, dialer: dialer}
}

// Send 发送邮件
func (c *Client) Send(msg *Message) error {
	if msg.From == "" {
		msg.From = c.config.From
	}
	if err := validate(msg); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	if len(msg.Bcc) > 0 {
		m.SetHeader("Bcc", msg.Bcc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody(contentType(msg), msg.Body)

	if err := c.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

// SendSimple 发送简单文本邮件（便捷方法）
func (c *Client) SendSimple(to string, subject string, body string) error {
	return c.Send(&Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
}

// SendHTML 发送 HTML 邮件（便捷方法）
func (c *Client) SendHTML(to string, subject string, htmlBody string) error {
	return c.Send(&Message{
		To:          []string{to},
		Subject:     subject,
		Body:        htmlBody,
		ContentType: "text/html",
	})
}

// NopMailer 未启用邮件时使用，直接丢弃
type NopMailer struct{}

func (NopMailer) Send(*Message) error { return nil }

func validate(msg *Message) error {
	if msg.From == "" {
		return fmt.Errorf("发件人不能为空")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("收件人不能为空")
	}
	if msg.Subject == "" {
		return fmt.Errorf("邮件主题不能为空")
	}
	return nil
}

func contentType(msg *Message) string {
	if msg.ContentType == "" {
		return "text/plain"
	}
	return msg.ContentType
}
