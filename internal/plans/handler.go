package plans

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/zora-edu/zora-api/pkg/logging"
)

// Handler serves the read-only pricing catalog.
type Handler struct {
	catalog *Catalog
	logger  *logging.Logger
}

// NewHandler creates a new plans handler
func NewHandler(catalog *Catalog, logger *logging.Logger) *Handler {
	if catalog == nil {
		panic("plans: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// ListPlansResponse is the response for listing plans
type ListPlansResponse struct {
	Plans    []Plan `json:"plans"`
	Count    int    `json:"count"`
	Currency string `json:"currency"`
}

// ListPlans handles GET /api/plans?duration=6&quota=3 requests
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	duration, err := queryInt(r, "duration")
	if err != nil || (duration != 0 && !ValidDuration(duration)) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "duration must be 3, 6 or 12",
		})
		return
	}
	quota, err := queryInt(r, "quota")
	if err != nil || (quota != 0 && !ValidQuota(quota)) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "quota must be 3 or 6",
		})
		return
	}

	plans := h.catalog.Filter(duration, quota)
	writeJSON(w, http.StatusOK, ListPlansResponse{
		Plans:    plans,
		Count:    len(plans),
		Currency: Currency,
	})
}

// GetPlan handles GET /api/plans/{planID} requests
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "planID")
	plan, err := h.catalog.Find(id)
	if err != nil {
		h.logger.Debug("plan lookup missed", "plan_id", id)
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "plan not found",
		})
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
