package submissions

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/zora-edu/zora-api/pkg/logging"
)

const maxBodyBytes = 64 << 10

// Handler handles HTTP requests for form submissions
type Handler struct {
	svc        *Service
	logger     *logging.Logger
	b2bEnabled bool
}

// NewHandler creates a new submissions handler
func NewHandler(svc *Service, logger *logging.Logger, b2bEnabled bool) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		svc:        svc,
		logger:     logger,
		b2bEnabled: b2bEnabled,
	}
}

// SubmitResponse is the body of every public form endpoint
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Contact handles POST /api/contact requests
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, KindContact, "Thank you! Your message has been sent successfully. We will get back to you within 24 hours.")
}

// B2BInquiry handles POST /api/b2b/inquiry requests
func (h *Handler) B2BInquiry(w http.ResponseWriter, r *http.Request) {
	if !h.b2bEnabled {
		writeJSON(w, http.StatusNotFound, SubmitResponse{Message: "B2B inquiries are not available"})
		return
	}
	h.submit(w, r, KindB2B, "Thank you for your interest! Our partnerships team will contact you shortly.")
}

// Newsletter handles POST /api/newsletter requests
func (h *Handler) Newsletter(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, KindNewsletter, "Successfully subscribed to the newsletter")
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind Kind, successMessage string) {
	var input map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil || input == nil {
		h.logger.Debug("failed to decode submission", "form", kind, "error", err)
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "Invalid request body"})
		return
	}

	out, err := h.svc.Submit(r.Context(), kind, input)
	switch {
	case errors.Is(err, ErrRateLimited):
		if out != nil && out.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(out.RetryAfter.Seconds()))))
		}
		writeJSON(w, http.StatusTooManyRequests, SubmitResponse{Message: "Too many submissions. Please try again later."})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Message: "Failed to process your request. Please try again later."})
		return
	}

	if !out.Result.Valid {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "Validation failed", Errors: out.Result.Errors})
		return
	}

	if out.AlreadySubscribed {
		writeJSON(w, http.StatusOK, SubmitResponse{Success: true, Message: "You are already subscribed", ID: out.Submission.ID})
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{Success: true, Message: successMessage, ID: out.Submission.ID})
}

// ListSubmissionsResponse is the response for listing submissions
type ListSubmissionsResponse struct {
	Submissions []*Submission `json:"submissions"`
	Count       int           `json:"count"`
	Offset      int           `json:"offset"`
	Limit       int           `json:"limit"`
}

// ListSubmissions handles GET /admin/submissions?kind=&limit=&offset= requests
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  50,
		Offset: 0,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		filter.Kind = Kind(kind)
		if _, err := filter.Kind.Schema(); err != nil {
			writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: "unknown kind"})
			return
		}
	}

	subs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list submissions", "error", err)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Message: "failed to list submissions"})
		return
	}

	writeJSON(w, http.StatusOK, ListSubmissionsResponse{
		Submissions: subs,
		Count:       len(subs),
		Offset:      filter.Offset,
		Limit:       filter.Limit,
	})
}

// GetSubmission handles GET /admin/submissions/{id} requests
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, ErrSubmissionNotFound) {
		writeJSON(w, http.StatusNotFound, SubmitResponse{Message: "submission not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get submission", "error", err, "submission_id", id)
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Message: "failed to get submission"})
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
