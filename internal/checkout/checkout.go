package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zora-edu/zora-api/internal/plans"
	"github.com/zora-edu/zora-api/internal/validation"
	"github.com/zora-edu/zora-api/pkg/logging"
)

var (
	// ErrUnknownPlan is returned when the requested plan is not in the catalog.
	ErrUnknownPlan = errors.New("checkout: unknown plan")
	// ErrInvalidBaseURL is returned for a PUBLIC_BASE_URL that is not absolute http(s).
	ErrInvalidBaseURL = errors.New("checkout: PUBLIC_BASE_URL must be an absolute http(s) URL")
)

// Status of a simulated payment intent.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// PaymentIntent mirrors the shape a card processor would return.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       Status
}

// MarshalJSON renders the amount as a JSON number.
func (p PaymentIntent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           string      `json:"id"`
		ClientSecret string      `json:"clientSecret"`
		Amount       json.Number `json:"amount"`
		Currency     string      `json:"currency"`
		Status       Status      `json:"status"`
	}{p.ID, p.ClientSecret, json.Number(p.Amount.String()), p.Currency, p.Status})
}

// Customer is who the subscription is for.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is a completed simulated checkout.
type Session struct {
	ID              string        `json:"id"`
	PlanID          string        `json:"planId"`
	Plan            plans.Plan    `json:"plan"`
	Customer        Customer      `json:"customer"`
	PaymentIntent   PaymentIntent `json:"paymentIntent"`
	ConfirmationURL string        `json:"confirmationUrl,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// Service is a demo checkout provider. It never contacts a payment gateway:
// every valid request succeeds immediately.
type Service struct {
	catalog       *plans.Catalog
	publicBaseURL string
	logger        *logging.Logger
	now           func() time.Time
}

// NewService creates a simulated checkout. publicBaseURL may be empty, in
// which case sessions carry no confirmation URL.
func NewService(catalog *plans.Catalog, publicBaseURL string, logger *logging.Logger) (*Service, error) {
	if catalog == nil {
		return nil, errors.New("checkout: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	if base != "" && !isValidBaseURL(base) {
		return nil, ErrInvalidBaseURL
	}
	return &Service{
		catalog:       catalog,
		publicBaseURL: base,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// CreateSession validates the checkout form and settles a payment intent for
// the plan's full price. A non-valid Result means no session was created.
func (s *Service) CreateSession(ctx context.Context, input map[string]any) (*Session, validation.Result, error) {
	result := validation.Validate(validation.CheckoutSchema, input)
	if !result.Valid {
		return nil, result, nil
	}

	planID, _ := result.Value["planId"].(string)
	plan, err := s.catalog.Find(planID)
	if err != nil {
		return nil, result, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
	}

	id := uuid.New()
	intentID := "pi_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	session := &Session{
		ID:     id.String(),
		PlanID: plan.ID,
		Plan:   plan,
		Customer: Customer{
			Name:  stringValue(result.Value["name"]),
			Email: stringValue(result.Value["email"]),
		},
		PaymentIntent: PaymentIntent{
			ID:           intentID,
			ClientSecret: intentID + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
			Amount:       plan.Price,
			Currency:     plans.Currency,
			Status:       StatusSucceeded,
		},
		CreatedAt: s.now().UTC(),
	}
	if s.publicBaseURL != "" {
		session.ConfirmationURL = fmt.Sprintf("%s/checkout/success/%s", s.publicBaseURL, id)
	}

	s.logger.InfoContext(ctx, "simulated checkout completed",
		"session_id", session.ID,
		"plan_id", plan.ID,
		"amount", plan.Price.String(),
		"currency", plans.Currency,
	)
	return session, result, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func isValidBaseURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}
