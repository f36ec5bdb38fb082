package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Email providers understood by EMAIL_PROVIDER.
const (
	EmailProviderSendGrid = "sendgrid"
	EmailProviderSES      = "ses"
	EmailProviderResend   = "resend"
	EmailProviderStub     = "stub"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	PublicBaseURL      string
	CORSAllowedOrigins []string
	CatalogPath        string
	DefaultCurrency    string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Email
	EmailProvider     string
	EmailFromName     string
	SupportEmail      string
	B2BInbox          string
	SendGridAPIKey    string
	SendGridFromEmail string
	ResendAPIKey      string
	ResendFromEmail   string
	SESFromEmail      string
	SESConfigSet      string

	// AWS (SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Abuse protection
	SubmissionLimit  int
	SubmissionWindow time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int

	AdminJWTSecret string

	// Feature flags
	WizardEnabled  bool
	B2BEnabled     bool
	PaymentEnabled bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	supportEmail := getEnv("SUPPORT_EMAIL", "support@zora-edu.ae")
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		CatalogPath:        getEnv("CATALOG_PATH", ""),
		DefaultCurrency:    getEnv("DEFAULT_CURRENCY", "AED"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EmailProvider:     strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderStub)),
		EmailFromName:     getEnv("EMAIL_FROM_NAME", "Zora"),
		SupportEmail:      supportEmail,
		B2BInbox:          getEnv("B2B_INBOX", supportEmail),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		ResendAPIKey:      getEnv("RESEND_API_KEY", ""),
		ResendFromEmail:   getEnv("RESEND_FROM_EMAIL", ""),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESConfigSet:      getEnv("SES_CONFIGURATION_SET", ""),

		AWSRegion:           getEnv("AWS_REGION", "me-central-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SubmissionLimit:  getEnvAsInt("SUBMISSION_LIMIT", 5),
		SubmissionWindow: getEnvAsDuration("SUBMISSION_WINDOW", time.Hour),
		RateLimitRPS:     getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:   getEnvAsInt("RATE_LIMIT_BURST", 10),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		WizardEnabled:  getEnvAsBool("FEATURE_WIZARD_ENABLED", true),
		B2BEnabled:     getEnvAsBool("FEATURE_B2B_ENABLED", true),
		PaymentEnabled: getEnvAsBool("FEATURE_PAYMENT_ENABLED", true),
	}
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT %q is not a number", c.Port))
	}
	if c.PublicBaseURL != "" {
		if u, err := url.Parse(c.PublicBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PUBLIC_BASE_URL %q must be an absolute URL", c.PublicBaseURL))
		}
	}
	if c.DefaultCurrency != "AED" {
		errs = append(errs, fmt.Errorf("DEFAULT_CURRENCY %q is not supported", c.DefaultCurrency))
	}

	switch c.EmailProvider {
	case EmailProviderStub:
	case EmailProviderSendGrid:
		if c.SendGridAPIKey == "" || c.SendGridFromEmail == "" {
			errs = append(errs, errors.New("EMAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY and SENDGRID_FROM_EMAIL"))
		}
	case EmailProviderResend:
		if c.ResendAPIKey == "" || c.ResendFromEmail == "" {
			errs = append(errs, errors.New("EMAIL_PROVIDER=resend requires RESEND_API_KEY and RESEND_FROM_EMAIL"))
		}
	case EmailProviderSES:
		if c.SESFromEmail == "" {
			errs = append(errs, errors.New("EMAIL_PROVIDER=ses requires SES_FROM_EMAIL"))
		}
	default:
		errs = append(errs, fmt.Errorf("EMAIL_PROVIDER %q must be one of sendgrid, ses, resend, stub", c.EmailProvider))
	}

	if c.SubmissionLimit < 0 {
		errs = append(errs, errors.New("SUBMISSION_LIMIT must not be negative"))
	}
	if c.SubmissionLimit > 0 && c.SubmissionWindow <= 0 {
		errs = append(errs, errors.New("SUBMISSION_WINDOW must be positive"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative"))
	}
	if c.IsProduction() {
		if c.AdminJWTSecret != "" && len(c.AdminJWTSecret) < 32 {
			errs = append(errs, errors.New("ADMIN_JWT_SECRET must be at least 32 characters in production"))
		}
		for _, origin := range c.CORSAllowedOrigins {
			if origin == "*" {
				errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must not contain * in production"))
			}
		}
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
