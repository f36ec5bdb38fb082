package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestFormMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFormMetrics(reg)
	m.ObserveSubmission("contact", OutcomeAccepted)
	m.ObserveSubmission("contact", OutcomeAccepted)
	m.ObserveSubmission("contact", OutcomeInvalid)
	m.ObserveValidationError("contact", "email")
	m.ObserveRecommendation("growth-6m", true)
	m.ObserveEmail("sendgrid", "sent", 120*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	if got := counterValue(t, byName["zora_forms_submissions_total"], map[string]string{"form": "contact", "outcome": "accepted"}); got != 2 {
		t.Fatalf("expected 2 accepted submissions, got %v", got)
	}
	if got := counterValue(t, byName["zora_plans_recommendations_total"], map[string]string{"plan": "growth-6m", "fallback": "true"}); got != 1 {
		t.Fatalf("expected 1 fallback recommendation, got %v", got)
	}
	if got := counterValue(t, byName["zora_forms_validation_errors_total"], map[string]string{"form": "contact", "field": "email"}); got != 1 {
		t.Fatalf("expected 1 validation error, got %v", got)
	}
	hist := byName["zora_notify_email_send_seconds"]
	if hist == nil || hist.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected one email latency sample")
	}
}

func TestFormMetricsDefaultRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = reg
	t.Cleanup(func() { prometheus.DefaultRegisterer = prev })

	m := NewFormMetrics(nil)
	m.ObserveSubmission("newsletter", OutcomeDuplicate)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected collectors on the default registerer")
	}
}

func TestFormMetricsNilSafe(t *testing.T) {
	var m *FormMetrics
	m.ObserveSubmission("contact", OutcomeError)
	m.ObserveValidationError("contact", "name")
	m.ObserveRecommendation("starter-3m", false)
	m.ObserveEmail("ses", "failed", time.Second)
}

func counterValue(t *testing.T, family *dto.MetricFamily, labels map[string]string) float64 {
	t.Helper()
	if family == nil {
		t.Fatalf("metric family missing")
	}
	for _, metric := range family.GetMetric() {
		match := true
		for _, pair := range metric.GetLabel() {
			if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
				match = false
			}
		}
		if match {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("no series for %v", labels)
	return 0
}
