package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FormMetrics exposes counters/histograms for form submissions, plan
// recommendations and outbound email.
type FormMetrics struct {
	submissionsTotal     *prometheus.CounterVec
	validationErrors     *prometheus.CounterVec
	recommendationsTotal *prometheus.CounterVec
	emailsTotal          *prometheus.CounterVec
	emailLatency         *prometheus.HistogramVec
}

// Submission outcomes.
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeDuplicate   = "duplicate"
	OutcomeError       = "error"
)

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zora",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Total form submissions by outcome",
		}, []string{"form", "outcome"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zora",
			Subsystem: "forms",
			Name:      "validation_errors_total",
			Help:      "Total field validation failures",
		}, []string{"form", "field"}),
		recommendationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zora",
			Subsystem: "plans",
			Name:      "recommendations_total",
			Help:      "Total plan recommendations served",
		}, []string{"plan", "fallback"}),
		emailsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zora",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Total notification emails by provider and status",
		}, []string{"provider", "status"}),
		emailLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zora",
			Subsystem: "notify",
			Name:      "email_send_seconds",
			Help:      "Latency of email provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.validationErrors, m.recommendationsTotal, m.emailsTotal, m.emailLatency)
	return m
}

func (m *FormMetrics) ObserveSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(form, outcome).Inc()
}

func (m *FormMetrics) ObserveValidationError(form, field string) {
	if m == nil {
		return
	}
	m.validationErrors.WithLabelValues(form, field).Inc()
}

func (m *FormMetrics) ObserveRecommendation(planID string, fallback bool) {
	if m == nil {
		return
	}
	m.recommendationsTotal.WithLabelValues(planID, strconv.FormatBool(fallback)).Inc()
}

func (m *FormMetrics) ObserveEmail(provider, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.emailsTotal.WithLabelValues(provider, status).Inc()
	m.emailLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}
