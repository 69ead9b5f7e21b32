package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/constants"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender SendGrid v3 发送通道
type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridSender 创建 SendGrid 发送通道
func NewSendGridSender(cfg config.MailConfig) (*SendGridSender, error) {
	apiKey := strings.TrimSpace(cfg.SendGrid.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: sendgrid api key is empty", ErrNotConfigured)
	}
	if err := requireFrom(cfg); err != nil {
		return nil, err
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     strings.TrimSpace(cfg.From),
		fromName: strings.TrimSpace(cfg.FromName),
	}, nil
}

// Driver 驱动名
func (s *SendGridSender) Driver() string {
	return constants.MailDriverSendGrid
}

// Send 发送邮件，HTTP 状态码 >= 400 视为失败
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	resp, err := s.client.SendWithContext(ctx, buildSendGridMessage(s.from, s.fromName, msg))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

func buildSendGridMessage(from, fromName string, msg Message) *sgmail.SGMailV3 {
	return sgmail.NewSingleEmail(
		sgmail.NewEmail(fromName, from),
		msg.Subject,
		sgmail.NewEmail("", strings.TrimSpace(msg.To)),
		msg.Text,
		msg.HTML,
	)
}
