package submissions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zora-edu/zora-api/internal/newsletter"
	"github.com/zora-edu/zora-api/internal/observability/metrics"
	"github.com/zora-edu/zora-api/internal/validation"
	"github.com/zora-edu/zora-api/internal/velocity"
	"github.com/zora-edu/zora-api/pkg/logging"
)

var submitTracer = otel.Tracer("zora.internal.submissions")

// newsletterSource labels subscribers who signed up through the API.
const newsletterSource = "website"

// Notifier sends the email for an accepted submission.
type Notifier interface {
	SubmissionReceived(ctx context.Context, form, id string, fields map[string]any) error
}

// Deps are the collaborators of a Service. Nil members get in-memory or
// no-op defaults.
type Deps struct {
	Repo       Repository
	Newsletter newsletter.Store
	Limiter    velocity.Limiter
	Notifier   Notifier
	Metrics    *metrics.FormMetrics
	Logger     *logging.Logger
}

// Service validates, rate limits, stores and announces form submissions.
type Service struct {
	repo       Repository
	newsletter newsletter.Store
	limiter    velocity.Limiter
	notifier   Notifier
	metrics    *metrics.FormMetrics
	logger     *logging.Logger
	now        func() time.Time
}

// NewService creates a submission service.
func NewService(deps Deps) *Service {
	if deps.Repo == nil {
		deps.Repo = NewInMemoryRepository()
	}
	if deps.Newsletter == nil {
		deps.Newsletter = newsletter.NewMemoryStore()
	}
	if deps.Limiter == nil {
		deps.Limiter = velocity.Noop{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Service{
		repo:       deps.Repo,
		newsletter: deps.Newsletter,
		limiter:    deps.Limiter,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Outcome describes what happened to one submission. When Result is not
// valid nothing was stored.
type Outcome struct {
	Result            validation.Result
	Submission        *Submission
	AlreadySubscribed bool
	RetryAfter        time.Duration
}

// Submit validates input against the kind's schema and, when valid, checks the
// sender's velocity, persists the submission and sends its notification.
// Notification failures are logged and do not fail the submission.
func (s *Service) Submit(ctx context.Context, kind Kind, input map[string]any) (*Outcome, error) {
	ctx, span := submitTracer.Start(ctx, "submissions.submit")
	defer span.End()
	span.SetAttributes(attribute.String("zora.form", string(kind)))

	schema, err := kind.Schema()
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, kind)
	}

	form := string(kind)
	result := validation.Validate(schema, input)
	out := &Outcome{Result: result}
	if !result.Valid {
		s.metrics.ObserveSubmission(form, metrics.OutcomeInvalid)
		for _, fe := range result.Errors {
			s.metrics.ObserveValidationError(form, fe.Field)
		}
		span.SetAttributes(attribute.String("zora.outcome", metrics.OutcomeInvalid))
		return out, nil
	}

	email, _ := result.Value["email"].(string)
	check, err := s.limiter.Check(ctx, form, email)
	if err != nil {
		s.logger.Warn("velocity check errored, allowing submission", "form", form, "error", err)
	} else if !check.Allowed {
		s.metrics.ObserveSubmission(form, metrics.OutcomeRateLimited)
		span.SetAttributes(attribute.String("zora.outcome", metrics.OutcomeRateLimited))
		out.RetryAfter = check.RetryAfter(s.now())
		return out, ErrRateLimited
	}

	sub := &Submission{
		ID:        uuid.New().String(),
		Kind:      kind,
		Email:     email,
		Fields:    result.Value,
		CreatedAt: s.now().UTC(),
	}

	if kind == KindNewsletter {
		subscriber, created, err := s.newsletter.Subscribe(ctx, email, newsletterSource)
		if err != nil {
			return s.fail(span, out, form, fmt.Errorf("submissions: subscribe: %w", err))
		}
		sub.ID = subscriber.ID.String()
		sub.CreatedAt = subscriber.SubscribedAt
		out.Submission = sub
		if !created {
			out.AlreadySubscribed = true
			s.metrics.ObserveSubmission(form, metrics.OutcomeDuplicate)
			span.SetAttributes(attribute.String("zora.outcome", metrics.OutcomeDuplicate))
			return out, nil
		}
	} else {
		if err := s.repo.Create(ctx, sub); err != nil {
			return s.fail(span, out, form, fmt.Errorf("submissions: store: %w", err))
		}
		out.Submission = sub
	}

	if s.notifier != nil {
		if err := s.notifier.SubmissionReceived(ctx, form, sub.ID, sub.Fields); err != nil {
			s.logger.Error("submission notification failed", "form", form, "submission_id", sub.ID, "error", err)
		}
	}

	s.metrics.ObserveSubmission(form, metrics.OutcomeAccepted)
	span.SetAttributes(attribute.String("zora.outcome", metrics.OutcomeAccepted))
	s.logger.Info("submission accepted", "form", form, "submission_id", sub.ID)
	return out, nil
}

func (s *Service) fail(span trace.Span, out *Outcome, form string, err error) (*Outcome, error) {
	s.metrics.ObserveSubmission(form, metrics.OutcomeError)
	span.RecordError(err)
	span.SetStatus(codes.Error, "submission failed")
	s.logger.Error("submission failed", "form", form, "error", err)
	return out, err
}

// Get returns one stored submission.
func (s *Service) Get(ctx context.Context, id string) (*Submission, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns stored submissions newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	return s.repo.List(ctx, filter)
}
