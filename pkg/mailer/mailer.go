package mailer

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/moimene/time-control-hub-sub002/config"
)

// Sender 邮件发送接口
// Service 层仅依赖该接口，测试中以内存实现替换
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender 基于 SMTP 的 Sender 实现
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(cfg *config.MailConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// Send 发送一封 HTML 邮件
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("SMTP 发送失败: %w", err)
	}

	s.logger.Debug("邮件已发送", zap.String("to", to), zap.String("subject", subject))
	return nil
}
