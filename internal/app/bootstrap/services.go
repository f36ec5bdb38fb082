package bootstrap

import (
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/zora-edu/zora-api/internal/config"
	"github.com/zora-edu/zora-api/internal/newsletter"
	"github.com/zora-edu/zora-api/internal/notify"
	"github.com/zora-edu/zora-api/internal/submissions"
	"github.com/zora-edu/zora-api/internal/velocity"
	"github.com/zora-edu/zora-api/pkg/logging"
)

// BuildEmailSender selects the transactional email provider named by
// EMAIL_PROVIDER. ses must be non-nil when that provider is chosen.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) (notify.EmailSender, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.EmailProvider {
	case appconfig.EmailProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, cfg.EmailProvider, fmt.Errorf("bootstrap: sendgrid api key missing")
		}
		return sender, cfg.EmailProvider, nil
	case appconfig.EmailProviderResend:
		sender := notify.NewResendSender(notify.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			FromEmail: cfg.ResendFromEmail,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, cfg.EmailProvider, fmt.Errorf("bootstrap: resend api key missing")
		}
		return sender, cfg.EmailProvider, nil
	case appconfig.EmailProviderSES:
		sender := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail:        cfg.SESFromEmail,
			FromName:         cfg.EmailFromName,
			SupportEmail:     cfg.SupportEmail,
			ConfigurationSet: cfg.SESConfigSet,
		}, logger)
		if sender == nil {
			return nil, cfg.EmailProvider, fmt.Errorf("bootstrap: ses client missing")
		}
		return sender, cfg.EmailProvider, nil
	case appconfig.EmailProviderStub, "":
		logger.Warn("email provider is stub; notifications are logged only")
		return notify.NewStubEmailSender(logger), appconfig.EmailProviderStub, nil
	default:
		return nil, cfg.EmailProvider, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildVelocityLimiter returns the Redis checker, or a no-op limiter when
// Redis is unavailable or SUBMISSION_LIMIT is 0.
func BuildVelocityLimiter(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) velocity.Limiter {
	if redisClient == nil || cfg == nil || cfg.SubmissionLimit <= 0 {
		return velocity.Noop{}
	}
	return velocity.NewChecker(redisClient, velocity.Config{
		MaxPerSender: cfg.SubmissionLimit,
		Window:       cfg.SubmissionWindow,
		Enabled:      true,
	}, logger)
}

// BuildStores returns Postgres-backed stores when the database is configured
// and in-memory ones otherwise.
func BuildStores(pool *pgxpool.Pool, db *sql.DB, logger *logging.Logger) (submissions.Repository, newsletter.Store) {
	if logger == nil {
		logger = logging.Default()
	}
	var repo submissions.Repository = submissions.NewInMemoryRepository()
	if pool != nil {
		repo = submissions.NewPostgresRepository(pool)
	}
	var subscribers newsletter.Store = newsletter.NewMemoryStore()
	if db != nil {
		subscribers = newsletter.NewSQLStore(db)
	}
	if pool == nil || db == nil {
		logger.Warn("DATABASE_URL not set; submissions are kept in memory")
	}
	return repo, subscribers
}
