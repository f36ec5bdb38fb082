package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/zora-edu/zora-api/pkg/logging"
)

const sesCharset = "UTF-8"

// SESAPI is the part of the SES v2 client the sender uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures the SES sender.
type SESConfig struct {
	FromEmail string
	FromName  string
	// SupportEmail receives replies to messages that carry no Reply-To, such
	// as the newsletter welcome.
	SupportEmail string
	// ConfigurationSet routes bounce and delivery events. Optional.
	ConfigurationSet string
}

// SESSender delivers form notifications through Amazon SES v2. Each message
// is tagged with its form category so SES event destinations can split
// contact, B2B and newsletter traffic.
type SESSender struct {
	client SESAPI
	from   string
	cfg    SESConfig
	logger *logging.Logger
}

// NewSESSender returns nil when client is nil.
func NewSESSender(client SESAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	from := (&mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}).String()
	return &SESSender{client: client, from: from, cfg: cfg, logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return errors.New("notify: SES client not configured")
	}

	out, err := s.client.SendEmail(ctx, s.input(msg))
	if err != nil {
		s.logger.ErrorContext(ctx, "SES send failed", "error", err, "category", msg.Category)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}
	s.logger.InfoContext(ctx, "email sent via SES",
		"category", msg.Category,
		"message_id", aws.ToString(out.MessageId),
	)
	return nil
}

func (s *SESSender) input(msg EmailMessage) *sesv2.SendEmailInput {
	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{recipient(msg)}},
		ReplyToAddresses: replyTo(msg),
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: sesText(msg.Subject),
				Body: &types.Body{
					Text: sesText(msg.Body),
					Html: sesText(msg.HTML),
				},
			},
		},
	}
	if in.ReplyToAddresses == nil && s.cfg.SupportEmail != "" {
		in.ReplyToAddresses = []string{s.cfg.SupportEmail}
	}
	if s.cfg.ConfigurationSet != "" {
		in.ConfigurationSetName = aws.String(s.cfg.ConfigurationSet)
	}
	if msg.Category != "" {
		in.EmailTags = []types.MessageTag{{Name: aws.String("form"), Value: aws.String(msg.Category)}}
	}
	return in
}

// recipient formats the To address with its display name when one is known.
func recipient(msg EmailMessage) string {
	if msg.ToName == "" {
		return msg.To
	}
	return (&mail.Address{Name: msg.ToName, Address: msg.To}).String()
}

func sesText(s string) *types.Content {
	if s == "" {
		return nil
	}
	return &types.Content{Data: aws.String(s), Charset: aws.String(sesCharset)}
}

var _ EmailSender = (*SESSender)(nil)
