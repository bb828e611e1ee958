package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/opensource-health/heron/internal/advisory"
	"github.com/opensource-health/heron/internal/domain"
	"github.com/opensource-health/heron/internal/history"
	"github.com/opensource-health/heron/internal/scoring"
	"github.com/opensource-health/heron/internal/validation"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	validator *validation.Engine
	scorer    *scoring.Engine
	advisor   *advisory.Engine
	bus       domain.EventBus
	log       *history.Log
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(validator *validation.Engine, scorer *scoring.Engine, advisor *advisory.Engine, bus domain.EventBus, log *history.Log, version string) *Handler {
	return &Handler{
		validator: validator,
		scorer:    scorer,
		advisor:   advisor,
		bus:       bus,
		log:       log,
		version:   version,
	}
}

// ValidationErrorResponse is the response body for rejected inputs.
// Every failing field is reported so a form client renders all errors
// in one pass.
type ValidationErrorResponse struct {
	Error  string                      `json:"error"`
	Errors map[string]string           `json:"errors"`
	Codes  map[string]domain.ErrorCode `json:"codes"`
}

// Predict handles POST /predict: validate, then score. Scoring is never
// reached when validation fails.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := GetTraceID(ctx)

	raw, err := decodeRawFields(r, h.validator.FieldNames())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	record, outcome := h.validator.ParseRecord(raw)
	if !outcome.Valid {
		if h.bus != nil {
			if payload, err := json.Marshal(outcome); err == nil {
				_ = h.bus.Publish(ctx, domain.TopicValidationRejected, payload)
			}
		}
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Errors: outcome.Errors,
			Codes:  outcome.Codes,
		})
		return
	}

	assessment := h.scorer.Assess(*record)

	var advisories []domain.AdvisoryFinding
	if h.advisor != nil {
		advisories = h.advisor.Evaluate(ctx, *record, assessment)
	}

	rec := &domain.AssessmentRecord{
		ID:         uuid.New().String(),
		TraceID:    traceID,
		CreatedAt:  time.Now().UTC(),
		Input:      *record,
		Result:     assessment,
		Advisories: advisories,
	}

	if h.bus != nil {
		payload, err := json.Marshal(rec)
		if err != nil {
			slog.Error("failed to encode assessment event", "error", err)
		} else if err := h.bus.Publish(ctx, domain.TopicAssessmentCompleted, payload); err != nil {
			slog.Error("failed to publish assessment event", "error", err)
		}
	}

	// The response carries exactly the prediction contract; advisories
	// and inputs are available via the history endpoints.
	writeJSON(w, http.StatusOK, assessment)
}

// ListFields returns the field rules and hints, in canonical order.
func (h *Handler) ListFields(w http.ResponseWriter, r *http.Request) {
	fields := h.validator.Rules().Fields()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields": fields,
		"count":  len(fields),
	})
}

// ListHistory returns recent assessments, most recent first.
// An optional ?limit=N query caps the result.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "history not available",
		})
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a non-negative integer",
			})
			return
		}
		limit = n
	}

	records := h.log.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": records,
		"count":       len(records),
	})
}

// ClearHistory empties the session log.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if h.log == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "history not available",
		})
		return
	}

	h.log.Clear()
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "cleared",
	})
}

// GetAssessment retrieves one recorded assessment by ID.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "assessment id is required",
		})
		return
	}

	if h.log == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "history not available",
		})
		return
	}

	rec, ok := h.log.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "assessment not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// ListAdvisories returns the loaded advisory rules.
func (h *Handler) ListAdvisories(w http.ResponseWriter, r *http.Request) {
	if h.advisor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "advisory engine not available",
		})
		return
	}

	rules := h.advisor.LoadedRules()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}

// ReplaceAdvisories reloads the advisory rule set from the request body
// (an array of rules). The replacement lives in process memory only.
func (h *Handler) ReplaceAdvisories(w http.ResponseWriter, r *http.Request) {
	if h.advisor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "advisory engine not available",
		})
		return
	}

	var rules []*domain.AdvisoryRule
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	for _, rule := range rules {
		if rule.ID == "" || rule.Expression == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "advisory rules require id and expression",
			})
			return
		}
	}

	if err := h.advisor.ReloadRules(rules); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	slog.Info("advisory rules replaced", "count", h.advisor.RulesCount())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "loaded",
		"count":  h.advisor.RulesCount(),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.bus != nil {
		if err := h.bus.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// decodeRawFields reads the request body into the raw textual field map
// the validation engine consumes. JSON numbers keep their literal text;
// JSON strings are unquoted so form clients may post either. Absent and
// null fields decode to "" and fail the required check downstream.
func decodeRawFields(r *http.Request, fieldNames []string) (domain.RawFields, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}

	raw := make(domain.RawFields, len(fieldNames))
	for _, name := range fieldNames {
		value, ok := body[name]
		if !ok || string(value) == "null" {
			raw[name] = ""
			continue
		}

		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			raw[name] = s
			continue
		}
		raw[name] = string(value)
	}
	return raw, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
