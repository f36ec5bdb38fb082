package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zora-edu/zora-api/internal/plans"
	"github.com/zora-edu/zora-api/pkg/logging"
)

func newTestService(t *testing.T, baseURL string) *Service {
	t.Helper()
	svc, err := NewService(plans.DefaultCatalog(), baseURL, logging.Discard())
	require.NoError(t, err)
	return svc
}

func TestCreateSession(t *testing.T) {
	svc := newTestService(t, "https://zora-edu.ae/")

	session, result, err := svc.CreateSession(context.Background(), map[string]any{
		"planId": "growth-6m",
		"name":   " Layla Hassan ",
		"email":  "layla@example.com",
	})
	require.NoError(t, err)
	require.True(t, result.Valid)

	assert.Equal(t, "growth-6m", session.PlanID)
	assert.Equal(t, "Layla Hassan", session.Customer.Name)
	assert.Equal(t, StatusSucceeded, session.PaymentIntent.Status)
	assert.Equal(t, "AED", session.PaymentIntent.Currency)
	assert.Equal(t, "534", session.PaymentIntent.Amount.String())
	assert.True(t, strings.HasPrefix(session.PaymentIntent.ID, "pi_sim_"))
	assert.True(t, strings.HasPrefix(session.PaymentIntent.ClientSecret, session.PaymentIntent.ID+"_secret_"))
	assert.Equal(t, "https://zora-edu.ae/checkout/success/"+session.ID, session.ConfirmationURL)
}

func TestCreateSession_LogsSettlement(t *testing.T) {
	var buf bytes.Buffer
	svc, err := NewService(plans.DefaultCatalog(), "", logging.NewWithWriter("info", &buf))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session, _, err := svc.CreateSession(ctx, map[string]any{
		"planId": "starter-3m",
		"name":   "Layla Hassan",
		"email":  "layla@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, session.ConfirmationURL)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "simulated checkout completed", entry["msg"])
	assert.Equal(t, session.ID, entry["session_id"])
	assert.Equal(t, "starter-3m", entry["plan_id"])
	assert.Equal(t, "AED", entry["currency"])
	assert.NotContains(t, buf.String(), "layla@example.com")
}

func TestCreateSession_Invalid(t *testing.T) {
	svc := newTestService(t, "")

	session, result, err := svc.CreateSession(context.Background(), map[string]any{"email": "bad"})
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.ErrorsFor("planId"))
	assert.NotEmpty(t, result.ErrorsFor("name"))

	_, _, err = svc.CreateSession(context.Background(), map[string]any{
		"planId": "platinum",
		"name":   "Layla",
		"email":  "layla@example.com",
	})
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestNewService_Errors(t *testing.T) {
	_, err := NewService(nil, "", nil)
	assert.Error(t, err)

	_, err = NewService(plans.DefaultCatalog(), "ftp://zora-edu.ae", nil)
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	svc, err := NewService(plans.DefaultCatalog(), "", nil)
	require.NoError(t, err)
	session, _, err := svc.CreateSession(context.Background(), map[string]any{
		"planId": "starter-3m", "name": "Layla", "email": "layla@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, session.ConfirmationURL)
}

func TestHandlerCreate(t *testing.T) {
	h := NewHandler(newTestService(t, ""), logging.Discard())

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"success", `{"planId":"family-excellence-12m","name":"Layla","email":"layla@example.com"}`, http.StatusCreated},
		{"validation", `{"planId":"","name":"L","email":"x"}`, http.StatusBadRequest},
		{"unknown plan", `{"planId":"gold","name":"Layla","email":"layla@example.com"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Create(w, httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(tt.body)))
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantCode != http.StatusCreated {
				assert.Equal(t, false, body["success"])
				return
			}
			session := body["session"].(map[string]any)
			intent := session["paymentIntent"].(map[string]any)
			assert.Equal(t, float64(1428), intent["amount"])
			assert.Equal(t, "succeeded", intent["status"])
			assert.Equal(t, intent["clientSecret"], body["clientSecret"])
		})
	}
}
