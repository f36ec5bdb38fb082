package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zora-edu/zora-api/internal/observability/metrics"
	"github.com/zora-edu/zora-api/internal/validation"
	"github.com/zora-edu/zora-api/pkg/logging"
)

// ErrUnsupportedForm is returned for a form kind that has no email.
var ErrUnsupportedForm = errors.New("notify: no notification for form")

// NotifierConfig holds the addresses notifications go to.
type NotifierConfig struct {
	// Provider labels metrics, e.g. "sendgrid".
	Provider string
	// TeamInbox receives contact messages.
	TeamInbox string
	// B2BInbox receives institution inquiries; TeamInbox when empty.
	B2BInbox string
}

// Notifier turns accepted form submissions into emails.
type Notifier struct {
	sender  EmailSender
	cfg     NotifierConfig
	metrics *metrics.FormMetrics
	logger  *logging.Logger
}

// NewNotifier creates a notifier. A nil sender falls back to the stub.
func NewNotifier(sender EmailSender, cfg NotifierConfig, m *metrics.FormMetrics, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	if sender == nil {
		sender = NewStubEmailSender(logger)
		cfg.Provider = "stub"
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}
	if cfg.B2BInbox == "" {
		cfg.B2BInbox = cfg.TeamInbox
	}
	return &Notifier{sender: sender, cfg: cfg, metrics: m, logger: logger}
}

// SubmissionReceived sends the email for an accepted submission. fields are
// the validated, trimmed values.
func (n *Notifier) SubmissionReceived(ctx context.Context, form, id string, fields map[string]any) error {
	var msg EmailMessage
	switch form {
	case validation.FormContact:
		msg = contactEmail(n.cfg.TeamInbox, id, fields)
	case validation.FormB2B:
		msg = b2bEmail(n.cfg.B2BInbox, id, fields)
	case validation.FormNewsletter:
		msg = welcomeEmail(plain(fields["email"]))
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedForm, form)
	}
	if msg.To == "" {
		n.logger.Warn("notification skipped: no recipient", "form", form, "submission_id", id)
		return nil
	}
	msg.Category = form
	return n.send(ctx, form, msg)
}

func (n *Notifier) send(ctx context.Context, form string, msg EmailMessage) error {
	start := time.Now()
	err := n.sender.Send(ctx, msg)
	status := "sent"
	if err != nil {
		status = "failed"
	}
	n.metrics.ObserveEmail(n.cfg.Provider, status, time.Since(start))
	if err != nil {
		return fmt.Errorf("notify: %s email: %w", form, err)
	}
	return nil
}

type row struct {
	label string
	value any
}

func contactEmail(to, id string, fields map[string]any) EmailMessage {
	rows := []row{
		{"Name", fields["name"]},
		{"Email", fields["email"]},
		{"Subject", fields["subject"]},
	}
	subject := fmt.Sprintf("New contact message: %s", plain(fields["subject"]))
	return EmailMessage{
		To:      to,
		ReplyTo: plain(fields["email"]),
		Subject: subject,
		Body:    renderText(rows, fields["message"], id),
		HTML:    renderHTML("New contact message", rows, fields["message"], id),
	}
}

func b2bEmail(to, id string, fields map[string]any) EmailMessage {
	rows := []row{
		{"Name", fields["name"]},
		{"Email", fields["email"]},
		{"Institution", fields["company"]},
		{"Phone", fields["phone"]},
		{"Institution type", fields["institutionType"]},
		{"Estimated students", fields["estimatedStudents"]},
	}
	subject := fmt.Sprintf("New B2B inquiry: %s", plain(fields["company"]))
	return EmailMessage{
		To:      to,
		ReplyTo: plain(fields["email"]),
		Subject: subject,
		Body:    renderText(rows, fields["requirements"], id),
		HTML:    renderHTML("New institution inquiry", rows, fields["requirements"], id),
	}
}

func welcomeEmail(to string) EmailMessage {
	body := "Thanks for subscribing to the Zora newsletter. We'll send product news and learning tips, and you can unsubscribe at any time."
	return EmailMessage{
		To:      to,
		Subject: "Welcome to Zora",
		Body:    body,
		HTML:    "<p>" + validation.EscapeHTML(body) + "</p>",
	}
}

func renderText(rows []row, message any, id string) string {
	var b strings.Builder
	for _, r := range rows {
		if v := plain(r.value); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", r.label, v)
		}
	}
	if m := plain(message); m != "" {
		fmt.Fprintf(&b, "\n%s\n", m)
	}
	fmt.Fprintf(&b, "\nReference: %s\n", id)
	return b.String()
}

func renderHTML(title string, rows []row, message any, id string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>\n<table>\n", validation.EscapeHTML(title))
	for _, r := range rows {
		if v := validation.EscapeValue(r.value); v != "" {
			fmt.Fprintf(&b, "<tr><th align=\"left\">%s</th><td>%s</td></tr>\n", validation.EscapeHTML(r.label), v)
		}
	}
	b.WriteString("</table>\n")
	if m := validation.EscapeValue(message); m != "" {
		fmt.Fprintf(&b, "<p style=\"white-space: pre-wrap\">%s</p>\n", m)
	}
	fmt.Fprintf(&b, "<p><small>Reference: %s</small></p>\n", validation.EscapeHTML(id))
	return b.String()
}

func plain(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
