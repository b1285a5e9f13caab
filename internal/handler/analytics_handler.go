// internal/handler/analytics_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/repository"
	"github.com/brightfund/email-backend/internal/service"
)

// AnalyticsHandler owns the reporting endpoints and engagement ingestion.
type AnalyticsHandler struct {
	Analytics *service.AnalyticsService
	Delivery  *service.DeliveryService
	LogRepo   repository.EmailLogRepositoryInterface
}

// GetReport returns the aggregate overview, engagement rates, per-
// sequence and per-template summaries and the 7-day daily series.
func (h *AnalyticsHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Analytics.Report()
	if err != nil {
		http.Error(w, err.Error(), appErrors.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

// ListDue exposes the delivery worker contract: pending queue entries
// whose scheduled time has passed.
func (h *AnalyticsHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.Delivery.ListDue(limit)
	if err != nil {
		http.Error(w, err.Error(), appErrors.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

// RecordEvent stamps an engagement timestamp (opened, clicked, bounced)
// on the newest log row for a recipient and template.
func (h *AnalyticsHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email      string `json:"email"`
		TemplateID string `json:"templateId"`
		Event      string `json:"event"`
		At         string `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "body is not valid JSON", http.StatusBadRequest)
		return
	}
	if body.Email == "" || body.TemplateID == "" {
		http.Error(w, "email and templateId are required", http.StatusBadRequest)
		return
	}
	switch body.Event {
	case repository.EventOpened, repository.EventClicked, repository.EventBounced:
	default:
		http.Error(w, "event must be one of opened, clicked, bounced", http.StatusBadRequest)
		return
	}

	at := time.Now().UTC()
	if body.At != "" {
		parsed, err := time.Parse(time.RFC3339, body.At)
		if err != nil {
			http.Error(w, "at must be ISO-8601", http.StatusBadRequest)
			return
		}
		at = parsed.UTC()
	}

	if err := h.LogRepo.RecordEvent(body.Email, body.TemplateID, body.Event, at); err != nil {
		http.Error(w, err.Error(), appErrors.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Event recorded"})
}
