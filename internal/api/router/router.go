package router

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zora-edu/zora-api/internal/checkout"
	httpmiddleware "github.com/zora-edu/zora-api/internal/http/middleware"
	"github.com/zora-edu/zora-api/internal/plans"
	"github.com/zora-edu/zora-api/internal/submissions"
	"github.com/zora-edu/zora-api/internal/wizard"
	"github.com/zora-edu/zora-api/pkg/logging"
)

// HealthCheck probes one backing service for /ready.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration. Nil handlers leave their routes
// unmounted, which is how feature flags switch endpoints off.
type Config struct {
	Logger             *logging.Logger
	PlansHandler       *plans.Handler
	WizardHandler      *wizard.Handler
	SubmissionsHandler *submissions.Handler
	CheckoutHandler    *checkout.Handler
	RateLimiter        *httpmiddleware.RateLimiter
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	HealthChecks       map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	r.Get("/ready", ready(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.PlansHandler != nil {
			api.Get("/plans", cfg.PlansHandler.ListPlans)
			api.Get("/plans/{planID}", cfg.PlansHandler.GetPlan)
		}
		if cfg.WizardHandler != nil {
			api.Get("/wizard/steps", cfg.WizardHandler.GetSteps)
		}

		// Writes are throttled per client IP.
		api.Group(func(write chi.Router) {
			if cfg.RateLimiter != nil {
				write.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			if cfg.WizardHandler != nil {
				write.Post("/wizard/recommendation", cfg.WizardHandler.Recommend)
			}
			if cfg.SubmissionsHandler != nil {
				write.Post("/contact", cfg.SubmissionsHandler.Contact)
				write.Post("/b2b/inquiry", cfg.SubmissionsHandler.B2BInquiry)
				write.Post("/newsletter", cfg.SubmissionsHandler.Newsletter)
			}
			if cfg.CheckoutHandler != nil {
				write.Post("/checkout", cfg.CheckoutHandler.Create)
			}
		})
	})

	if cfg.SubmissionsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/submissions", cfg.SubmissionsHandler.ListSubmissions)
			admin.Get("/submissions/{id}", cfg.SubmissionsHandler.GetSubmission)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Route not found"})
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ready runs every check with a shared deadline and reports each one.
func ready(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(names))
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		writeJSON(w, status, map[string]any{"status": state, "checks": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
