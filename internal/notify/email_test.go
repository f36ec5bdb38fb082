package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/resend/resend-go/v2"
	"github.com/zora-edu/zora-api/pkg/logging"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "",
		FromEmail: "test@example.com",
	}, logging.Discard())

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.fromName)
	}
}

func TestNewSendGridSender_CustomFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{
		APIKey:    "test-key",
		FromEmail: "test@example.com",
		FromName:  "Custom Name",
	}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "Custom Name" {
		t.Errorf("expected from name 'Custom Name', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{
		client: nil,
	}

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test",
		Body:    "Test body",
	})

	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:      "recipient@example.com",
		Subject: "Test Subject",
		Body:    "Test body",
	})

	if err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
	sent := sender.Sent()
	if len(sent) != 1 || sent[0].Subject != "Test Subject" {
		t.Errorf("expected the message to be recorded, got %+v", sent)
	}
}

func TestEmailMessage_HTMLFallsBackToBody(t *testing.T) {
	msg := EmailMessage{Body: "Plain text body"}
	if msg.html() != "Plain text body" {
		t.Errorf("expected plain body as HTML fallback, got %q", msg.html())
	}
	msg.HTML = "<p>HTML body</p>"
	if msg.html() != "<p>HTML body</p>" {
		t.Errorf("unexpected HTML: %s", msg.html())
	}
	if replyTo(msg) != nil {
		t.Errorf("expected no reply-to")
	}
	msg.ReplyTo = "jane@example.com"
	if got := replyTo(msg); len(got) != 1 || got[0] != "jane@example.com" {
		t.Errorf("unexpected reply-to: %v", got)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{
		FromEmail:        "hello@zora-edu.ae",
		SupportEmail:     "support@zora-edu.ae",
		ConfigurationSet: "zora-forms",
	}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:       "team@zora-edu.ae",
		ReplyTo:  "jane@example.com",
		Subject:  "Hi",
		Body:     "text",
		HTML:     "<p>text</p>",
		Category: "contact",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.input.FromEmailAddress); got != `"Zora" <hello@zora-edu.ae>` {
		t.Errorf("unexpected from: %s", got)
	}
	if got := client.input.Destination.ToAddresses; len(got) != 1 || got[0] != "team@zora-edu.ae" {
		t.Errorf("unexpected to: %v", got)
	}
	if got := client.input.ReplyToAddresses; len(got) != 1 || got[0] != "jane@example.com" {
		t.Errorf("unexpected reply-to: %v", got)
	}
	if aws.ToString(client.input.Content.Simple.Body.Html.Data) != "<p>text</p>" {
		t.Errorf("html body not set")
	}
	if got := aws.ToString(client.input.ConfigurationSetName); got != "zora-forms" {
		t.Errorf("unexpected configuration set: %q", got)
	}
	tags := client.input.EmailTags
	if len(tags) != 1 || aws.ToString(tags[0].Name) != "form" || aws.ToString(tags[0].Value) != "contact" {
		t.Errorf("unexpected tags: %+v", tags)
	}
}

func TestSESSender_WelcomeRepliesGoToSupport(t *testing.T) {
	client := &fakeSES{}
	sender := NewSESSender(client, SESConfig{
		FromEmail:    "hello@zora-edu.ae",
		FromName:     "Zora Learning",
		SupportEmail: "support@zora-edu.ae",
	}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:      "reader@example.com",
		ToName:  "Reader",
		Subject: "Welcome to Zora",
		Body:    "thanks",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.input.FromEmailAddress); got != `"Zora Learning" <hello@zora-edu.ae>` {
		t.Errorf("unexpected from: %s", got)
	}
	if got := client.input.Destination.ToAddresses; len(got) != 1 || got[0] != `"Reader" <reader@example.com>` {
		t.Errorf("unexpected to: %v", got)
	}
	if got := client.input.ReplyToAddresses; len(got) != 1 || got[0] != "support@zora-edu.ae" {
		t.Errorf("expected support reply-to, got %v", got)
	}
	if client.input.Content.Simple.Body.Html != nil {
		t.Errorf("html body should be omitted when empty")
	}
	if client.input.ConfigurationSetName != nil || client.input.EmailTags != nil {
		t.Errorf("optional SES fields should be unset")
	}
}

func TestSESSender_SendError(t *testing.T) {
	boom := errors.New("throttled")
	sender := NewSESSender(&fakeSES{err: boom}, SESConfig{FromEmail: "hello@zora-edu.ae"}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "Hi", Body: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Errorf("expected nil sender without client")
	}
}

type fakeResend struct {
	params *resend.SendEmailRequest
	err    error
}

func (f *fakeResend) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "re_123"}, nil
}

func TestResendSender_Send(t *testing.T) {
	api := &fakeResend{}
	sender := newResendSender(api, ResendConfig{FromEmail: "hello@zora-edu.ae", FromName: "Zora Team"}, logging.Discard())

	err := sender.Send(context.Background(), EmailMessage{
		To:      "team@zora-edu.ae",
		ReplyTo: "jane@example.com",
		Subject: "Hi",
		Body:    "text",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.params.From != "Zora Team <hello@zora-edu.ae>" {
		t.Errorf("unexpected from: %s", api.params.From)
	}
	if api.params.Html != "text" || api.params.Text != "text" {
		t.Errorf("unexpected bodies: %q %q", api.params.Html, api.params.Text)
	}
	if api.params.Headers["Reply-To"] != "jane@example.com" {
		t.Errorf("reply-to header missing")
	}
}

func TestResendSender_Errors(t *testing.T) {
	if NewResendSender(ResendConfig{}, nil) != nil {
		t.Errorf("expected nil sender without API key")
	}

	boom := errors.New("rate limited")
	sender := newResendSender(&fakeResend{err: boom}, ResendConfig{FromEmail: "hello@zora-edu.ae"}, logging.Discard())
	if err := sender.Send(context.Background(), EmailMessage{To: "a@example.com"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	var nilSender *ResendSender
	if err := nilSender.Send(context.Background(), EmailMessage{}); err == nil {
		t.Errorf("expected error from nil sender")
	}
}
