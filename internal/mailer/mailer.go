package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/constants"
)

var (
	ErrNotConfigured     = errors.New("mailer not configured")
	ErrInvalidRecipient  = errors.New("invalid recipient")
	ErrRecipientRejected = errors.New("recipient rejected")
	ErrUnsupportedDriver = errors.New("unsupported mail driver")
)

// Message 待发送邮件，HTML 与纯文本正文同时提供
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender 邮件发送通道，不做重试
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Driver() string
}

// New 按配置的驱动创建发送通道
func New(ctx context.Context, cfg config.MailConfig) (Sender, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", constants.MailDriverLog:
		return NewLogSender(), nil
	case constants.MailDriverSMTP:
		return NewSMTPSender(cfg)
	case constants.MailDriverSES:
		return NewSESSender(ctx, cfg)
	case constants.MailDriverSendGrid:
		return NewSendGridSender(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}
}

func validateMessage(msg Message) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(msg.To)); err != nil {
		return ErrInvalidRecipient
	}
	return nil
}

func requireFrom(cfg config.MailConfig) error {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return fmt.Errorf("%w: from address is empty", ErrNotConfigured)
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return fmt.Errorf("%w: from address invalid", ErrNotConfigured)
	}
	return nil
}
