package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cartrecovery/internal/config"
	"github.com/cartrecovery/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender AWS SES v2 发送通道
type SESSender struct {
	client sesAPI
	from   string
}

// NewSESSender 创建 SES 发送通道；未配置静态密钥时使用默认凭证链
func NewSESSender(ctx context.Context, cfg config.MailConfig) (*SESSender, error) {
	if err := requireFrom(cfg); err != nil {
		return nil, err
	}
	region := strings.TrimSpace(cfg.SES.Region)
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.SES.AccessKeyID != "" && cfg.SES.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESSender{
		client: sesv2.NewFromConfig(awsCfg),
		from:   buildFromAddress(strings.TrimSpace(cfg.From), strings.TrimSpace(cfg.FromName)),
	}, nil
}

// Driver 驱动名
func (s *SESSender) Driver() string {
	return constants.MailDriverSES
}

// Send 发送邮件
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}
	if _, err := s.client.SendEmail(ctx, buildSESInput(s.from, msg)); err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}

func buildSESInput(from string, msg Message) *sesv2.SendEmailInput {
	body := &types.Body{}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}
	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{strings.TrimSpace(msg.To)}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
}
