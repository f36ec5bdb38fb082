package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "PORT", "ENV", "LOG_LEVEL", "EMAIL_PROVIDER", "SUPPORT_EMAIL", "B2B_INBOX",
		"CORS_ALLOWED_ORIGINS", "SUBMISSION_LIMIT", "SUBMISSION_WINDOW", "FEATURE_B2B_ENABLED", "DEFAULT_CURRENCY")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.EmailProvider != EmailProviderStub {
		t.Fatalf("expected stub email provider, got %s", cfg.EmailProvider)
	}
	if cfg.B2BInbox != "support@zora-edu.ae" {
		t.Fatalf("expected B2B inbox to default to support email, got %s", cfg.B2BInbox)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected default origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SubmissionLimit != 5 || cfg.SubmissionWindow != time.Hour {
		t.Fatalf("unexpected submission velocity defaults %d/%s", cfg.SubmissionLimit, cfg.SubmissionWindow)
	}
	if !cfg.B2BEnabled {
		t.Fatalf("expected B2B enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("EMAIL_PROVIDER", "Resend")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("RESEND_FROM_EMAIL", "hello@zora-edu.ae")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://zora-edu.ae, ,https://www.zora-edu.ae ")
	t.Setenv("SUBMISSION_WINDOW", "30m")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("FEATURE_B2B_ENABLED", "false")
	t.Setenv("ADMIN_JWT_SECRET", strings.Repeat("k", 32))
	cfg := Load()

	if cfg.Port != "9090" || !cfg.IsProduction() {
		t.Fatalf("expected overrides, got port=%s env=%s", cfg.Port, cfg.Env)
	}
	if cfg.EmailProvider != EmailProviderResend {
		t.Fatalf("expected provider to be lowercased, got %s", cfg.EmailProvider)
	}
	if got := strings.Join(cfg.CORSAllowedOrigins, "|"); got != "https://zora-edu.ae|https://www.zora-edu.ae" {
		t.Fatalf("unexpected origins %q", got)
	}
	if cfg.SubmissionWindow != 30*time.Minute {
		t.Fatalf("expected window override, got %s", cfg.SubmissionWindow)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if cfg.B2BEnabled {
		t.Fatalf("expected B2B flag override")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:             "8080",
			Env:              "development",
			DefaultCurrency:  "AED",
			EmailProvider:    EmailProviderStub,
			SubmissionLimit:  5,
			SubmissionWindow: time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port", func(c *Config) { c.Port = "http" }, "PORT"},
		{"base url", func(c *Config) { c.PublicBaseURL = "zora-edu.ae" }, "PUBLIC_BASE_URL"},
		{"currency", func(c *Config) { c.DefaultCurrency = "USD" }, "DEFAULT_CURRENCY"},
		{"unknown provider", func(c *Config) { c.EmailProvider = "smtp" }, "EMAIL_PROVIDER"},
		{"sendgrid without key", func(c *Config) { c.EmailProvider = EmailProviderSendGrid }, "SENDGRID_API_KEY"},
		{"ses without sender", func(c *Config) { c.EmailProvider = EmailProviderSES }, "SES_FROM_EMAIL"},
		{"window", func(c *Config) { c.SubmissionWindow = 0 }, "SUBMISSION_WINDOW"},
		{"short prod secret", func(c *Config) { c.Env = "production"; c.AdminJWTSecret = "short" }, "ADMIN_JWT_SECRET"},
		{"prod wildcard cors", func(c *Config) { c.Env = "production"; c.CORSAllowedOrigins = []string{"*"} }, "CORS_ALLOWED_ORIGINS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}
