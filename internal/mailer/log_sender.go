package mailer

import (
	"context"

	"github.com/cartrecovery/internal/constants"
	"github.com/cartrecovery/internal/logger"
)

// LogSender 开发环境使用：只记录日志不实际发信
type LogSender struct{}

// NewLogSender 创建日志发送通道
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Driver 驱动名
func (s *LogSender) Driver() string {
	return constants.MailDriverLog
}

// Send 记录邮件摘要
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	logger.Infow("mail_log_driver_send",
		"to", logger.MaskEmail(msg.To),
		"subject", msg.Subject,
		"html_bytes", len(msg.HTML),
		"text_bytes", len(msg.Text),
	)
	return nil
}
