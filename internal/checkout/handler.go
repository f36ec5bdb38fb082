package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zora-edu/zora-api/pkg/logging"
)

// Handler exposes the simulated checkout over HTTP.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /api/checkout
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10))
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil || input == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid request body"})
		return
	}

	session, result, err := h.svc.CreateSession(r.Context(), input)
	switch {
	case errors.Is(err, ErrUnknownPlan):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": "planId", "message": "Selected plan does not exist"}},
		})
		return
	case err != nil:
		h.logger.Error("checkout failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Checkout failed. Please try again later."})
		return
	case !result.Valid:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Validation failed", "errors": result.Errors})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":        true,
		"subscriptionId": session.ID,
		"clientSecret":   session.PaymentIntent.ClientSecret,
		"session":        session,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
