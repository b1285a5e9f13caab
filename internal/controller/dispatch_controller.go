// internal/controller/dispatch_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/service"
)

type DispatchController struct {
	Dispatch *service.DispatchService
	Sweep    *service.SweepService
}

// Trigger enqueues a sequence for a single recipient: explicit sequence
// id or trigger-type lookup. A lookup miss is a 200 with queued=0.
func (c *DispatchController) Trigger(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RecipientID    string            `json:"recipientId"`
		RecipientEmail string            `json:"recipientEmail"`
		RecipientName  string            `json:"recipientName"`
		RecipientType  string            `json:"recipientType"`
		SequenceID     string            `json:"sequenceId"`
		TriggerType    string            `json:"triggerType"`
		Tier           string            `json:"tier"`
		Metadata       map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("body", "is not valid JSON"))
		return
	}

	result, err := c.Dispatch.EnqueueSequence(service.EnqueueSequenceInput{
		RecipientID:    body.RecipientID,
		RecipientEmail: body.RecipientEmail,
		RecipientName:  body.RecipientName,
		RecipientType:  body.RecipientType,
		SequenceID:     body.SequenceID,
		TriggerType:    body.TriggerType,
		Tier:           body.Tier,
		Metadata:       body.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Broadcast queues a one-shot template send to an audience segment.
func (c *DispatchController) Broadcast(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TemplateID string `json:"templateId"`
		Audience   string `json:"audience"`
		TierFilter string `json:"tierFilter"`
		ScheduleAt string `json:"scheduleAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewValidation("body", "is not valid JSON"))
		return
	}

	var scheduleAt *time.Time
	if body.ScheduleAt != "" {
		t, err := time.Parse(time.RFC3339, body.ScheduleAt)
		if err != nil {
			writeError(w, appErrors.NewValidation("scheduleAt", "must be ISO-8601"))
			return
		}
		scheduleAt = &t
	}

	result, err := c.Dispatch.EnqueueBroadcast(service.BroadcastInput{
		TemplateID: body.TemplateID,
		Audience:   body.Audience,
		TierFilter: body.TierFilter,
		ScheduleAt: scheduleAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().Str("broadcast_id", result.BroadcastID).Int("queued", result.Queued).Msg("broadcast enqueued")
	writeJSON(w, http.StatusOK, result)
}

// WelcomeSweep catches up donors that never got a welcome email.
// Best-effort: the response carries one result per donor.
func (c *DispatchController) WelcomeSweep(w http.ResponseWriter, r *http.Request) {
	results, err := c.Sweep.Run()
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Welcome sweep completed",
		"processed": len(results),
		"results":   results,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, appErrors.HTTPStatus(err), map[string]string{"error": err.Error()})
}
