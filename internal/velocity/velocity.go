package velocity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zora-edu/zora-api/pkg/logging"
)

var velocityTracer = otel.Tracer("zora.internal.velocity")

// Limiter decides whether another submission from the same sender is allowed.
type Limiter interface {
	Check(ctx context.Context, form, sender string) (*Result, error)
}

// Config contains velocity limits.
type Config struct {
	// Max submissions per sender per form per window
	MaxPerSender int
	Window       time.Duration

	Enabled bool
}

// DefaultConfig returns default velocity limits.
func DefaultConfig() Config {
	return Config{
		MaxPerSender: 5,
		Window:       time.Hour,
		Enabled:      true,
	}
}

// Result contains the result of a velocity check.
type Result struct {
	Allowed      bool
	Form         string
	CurrentCount int
	MaxAllowed   int
	WindowExpiry time.Time
	Message      string
}

// RetryAfter is how long until the window resets, rounded up to a second.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r == nil || r.WindowExpiry.IsZero() || !r.WindowExpiry.After(now) {
		return 0
	}
	return r.WindowExpiry.Sub(now).Round(time.Second)
}

// Checker counts submissions in Redis with SET NX EX + INCR.
type Checker struct {
	redis  *redis.Client
	logger *logging.Logger
	config Config
}

// NewChecker creates a new Redis-backed velocity checker.
func NewChecker(redisClient *redis.Client, config Config, logger *logging.Logger) *Checker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Checker{
		redis:  redisClient,
		logger: logger,
		config: config,
	}
}

func key(form, sender string) string {
	return fmt.Sprintf("velocity:%s:%s", form, strings.ToLower(strings.TrimSpace(sender)))
}

// Check counts one submission of form by sender. Redis failures are logged
// and the submission is allowed.
func (v *Checker) Check(ctx context.Context, form, sender string) (*Result, error) {
	ctx, span := velocityTracer.Start(ctx, "velocity.check")
	defer span.End()
	span.SetAttributes(attribute.String("zora.form", form))

	if !v.config.Enabled || sender == "" {
		return &Result{Allowed: true, Form: form}, nil
	}

	k := key(form, sender)
	count, expiry, err := v.incrementAndGet(ctx, k, v.config.Window)
	if err != nil {
		v.logger.Error("velocity check failed", "error", err, "key", k)
		return &Result{Allowed: true, Form: form, Message: "velocity check unavailable"}, nil
	}

	result := &Result{
		Allowed:      count <= v.config.MaxPerSender,
		Form:         form,
		CurrentCount: count,
		MaxAllowed:   v.config.MaxPerSender,
		WindowExpiry: expiry,
	}

	if !result.Allowed {
		result.Message = fmt.Sprintf("exceeded %d submissions in %s", v.config.MaxPerSender, v.config.Window)
		v.logger.Warn("submission velocity exceeded",
			"form", form,
			"count", count,
			"max", v.config.MaxPerSender,
		)
		span.SetAttributes(attribute.Bool("velocity.exceeded", true))
	}

	return result, nil
}

// incrementAndGet counts one hit and returns the new value with the window
// expiry. The counter is created with its TTL in the same transaction, so a
// key can never outlive its window.
func (v *Checker) incrementAndGet(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := v.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, window)
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}

	remaining := ttl.Val()
	if remaining < 0 {
		// Counter written without a TTL; bound it to a fresh window.
		if err := v.redis.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("velocity: expire %s: %w", key, err)
		}
		remaining = window
	}

	return int(incr.Val()), time.Now().Add(remaining), nil
}

// Reset clears the counter for a sender (admin use).
func (v *Checker) Reset(ctx context.Context, form, sender string) error {
	return v.redis.Del(ctx, key(form, sender)).Err()
}

// Stats returns the current count for a sender without incrementing it.
func (v *Checker) Stats(ctx context.Context, form, sender string) (*Result, error) {
	k := key(form, sender)

	count, err := v.redis.Get(ctx, k).Int()
	if errors.Is(err, redis.Nil) {
		return &Result{
			Allowed:    true,
			Form:       form,
			MaxAllowed: v.config.MaxPerSender,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	ttl, _ := v.redis.TTL(ctx, k).Result()

	return &Result{
		Allowed:      count < v.config.MaxPerSender,
		Form:         form,
		CurrentCount: count,
		MaxAllowed:   v.config.MaxPerSender,
		WindowExpiry: time.Now().Add(ttl),
	}, nil
}

// Noop allows every submission. Used when Redis is not configured.
type Noop struct{}

func (Noop) Check(_ context.Context, form, _ string) (*Result, error) {
	return &Result{Allowed: true, Form: form}, nil
}
