package wizard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zora-edu/zora-api/internal/observability/metrics"
	"github.com/zora-edu/zora-api/internal/plans"
	"github.com/zora-edu/zora-api/pkg/logging"
)

// Handler serves the wizard questions and turns completed answers into a
// plan recommendation.
type Handler struct {
	steps   []Step
	catalog *plans.Catalog
	metrics *metrics.FormMetrics
	logger  *logging.Logger
}

// NewHandler creates a wizard handler. Nil steps means DefaultSteps.
func NewHandler(steps []Step, catalog *plans.Catalog, m *metrics.FormMetrics, logger *logging.Logger) (*Handler, error) {
	if catalog == nil {
		return nil, errors.New("wizard: catalog required")
	}
	if steps == nil {
		steps = DefaultSteps()
	}
	if err := validateSteps(steps); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{steps: cloneSteps(steps), catalog: catalog, metrics: m, logger: logger}, nil
}

// StepsResponse lists the wizard questions in order.
type StepsResponse struct {
	Steps []Step `json:"steps"`
}

// GetSteps handles GET /api/wizard/steps
func (h *Handler) GetSteps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StepsResponse{Steps: h.steps})
}

// Recommend handles POST /api/wizard/recommendation
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var submitted plans.Answers
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&submitted); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "invalid JSON body",
		})
		return
	}

	answers, err := Replay(h.steps, submitted)
	if err != nil {
		h.logger.Debug("wizard answers rejected", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	rec, err := h.catalog.Resolve(answers)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, plans.ErrIncompleteAnswers) || errors.Is(err, plans.ErrInvalidDuration) || errors.Is(err, plans.ErrInvalidChildren) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("plan recommendation failed", "error", err)
		}
		writeJSON(w, status, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	h.metrics.ObserveRecommendation(rec.Plan.ID, rec.Fallback)
	h.logger.Info("plan recommended",
		"plan_id", rec.Plan.ID,
		"fallback", rec.Fallback,
		"children", answers.NumberOfChildren,
		"duration_months", answers.PreferredDuration,
	)
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
