package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zora-edu/zora-api/internal/observability/metrics"
	"github.com/zora-edu/zora-api/internal/validation"
	"github.com/zora-edu/zora-api/pkg/logging"
)

type mockEmailSender struct {
	sent    []EmailMessage
	callErr error
}

func (m *mockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if m.callErr != nil {
		return m.callErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestNotifier(sender EmailSender) *Notifier {
	return NewNotifier(sender, NotifierConfig{
		Provider:  "mock",
		TeamInbox: "support@zora-edu.ae",
		B2BInbox:  "partners@zora-edu.ae",
	}, metrics.NewFormMetrics(prometheus.NewRegistry()), logging.Discard())
}

func TestNotifier_ContactEscapesHTML(t *testing.T) {
	sender := &mockEmailSender{}
	n := newTestNotifier(sender)

	err := n.SubmissionReceived(context.Background(), validation.FormContact, "sub-1", map[string]any{
		"name":    "Jane <script>",
		"email":   "jane@example.com",
		"subject": "Fees & \"discounts\"",
		"message": "Is there a sibling discount? It's <b>urgent</b>.",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "support@zora-edu.ae", msg.To)
	assert.Equal(t, "jane@example.com", msg.ReplyTo)
	assert.Equal(t, `New contact message: Fees & "discounts"`, msg.Subject)

	assert.Contains(t, msg.HTML, "Jane &lt;script&gt;")
	assert.Contains(t, msg.HTML, "Fees &amp; &quot;discounts&quot;")
	assert.Contains(t, msg.HTML, "It&#039;s &lt;b&gt;urgent&lt;/b&gt;")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.NotContains(t, msg.HTML, "<b>urgent")

	assert.Contains(t, msg.Body, "Name: Jane <script>")
	assert.Contains(t, msg.Body, "Reference: sub-1")
}

func TestNotifier_B2BGoesToPartnerInbox(t *testing.T) {
	sender := &mockEmailSender{}
	n := newTestNotifier(sender)

	err := n.SubmissionReceived(context.Background(), validation.FormB2B, "sub-2", map[string]any{
		"name":              "Omar",
		"email":             "omar@school.ae",
		"company":           "Al Noor Academy",
		"phone":             "+971 50 123 4567",
		"institutionType":   "school",
		"estimatedStudents": int64(450),
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "partners@zora-edu.ae", msg.To)
	assert.Equal(t, "New B2B inquiry: Al Noor Academy", msg.Subject)
	assert.Contains(t, msg.HTML, "<td>450</td>")
	assert.Equal(t, validation.FormB2B, msg.Category)
	assert.NotContains(t, msg.Body, "Requirements")
}

func TestNotifier_B2BDefaultsToTeamInbox(t *testing.T) {
	sender := &mockEmailSender{}
	n := NewNotifier(sender, NotifierConfig{TeamInbox: "support@zora-edu.ae"}, nil, logging.Discard())

	require.NoError(t, n.SubmissionReceived(context.Background(), validation.FormB2B, "sub-3", map[string]any{
		"company": "Gulf Tutors",
	}))
	assert.Equal(t, "support@zora-edu.ae", sender.sent[0].To)
}

func TestNotifier_NewsletterWelcome(t *testing.T) {
	sender := &mockEmailSender{}
	n := newTestNotifier(sender)

	require.NoError(t, n.SubmissionReceived(context.Background(), validation.FormNewsletter, "sub-4", map[string]any{
		"email": "reader@example.com",
	}))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "reader@example.com", sender.sent[0].To)
	assert.Equal(t, "Welcome to Zora", sender.sent[0].Subject)
	assert.Equal(t, validation.FormNewsletter, sender.sent[0].Category)
	assert.True(t, strings.HasPrefix(sender.sent[0].HTML, "<p>"))
	assert.Contains(t, sender.sent[0].HTML, "We&#039;ll")
}

func TestNotifier_Errors(t *testing.T) {
	boom := errors.New("provider down")
	n := newTestNotifier(&mockEmailSender{callErr: boom})

	err := n.SubmissionReceived(context.Background(), validation.FormContact, "sub-5", map[string]any{"subject": "x"})
	assert.ErrorIs(t, err, boom)

	err = n.SubmissionReceived(context.Background(), "survey", "sub-6", nil)
	assert.ErrorIs(t, err, ErrUnsupportedForm)
}

func TestNotifier_SkipsWithoutRecipient(t *testing.T) {
	sender := &mockEmailSender{}
	n := NewNotifier(sender, NotifierConfig{}, nil, logging.Discard())

	require.NoError(t, n.SubmissionReceived(context.Background(), validation.FormContact, "sub-7", map[string]any{}))
	assert.Empty(t, sender.sent)
}

func TestNotifier_NilSenderUsesStub(t *testing.T) {
	n := NewNotifier(nil, NotifierConfig{TeamInbox: "support@zora-edu.ae"}, nil, logging.Discard())
	stub, ok := n.sender.(*StubEmailSender)
	require.True(t, ok)

	require.NoError(t, n.SubmissionReceived(context.Background(), validation.FormContact, "sub-8", map[string]any{"subject": "hi"}))
	assert.Len(t, stub.Sent(), 1)
	assert.Equal(t, "stub", n.cfg.Provider)
}
