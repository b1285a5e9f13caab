// internal/service/scheduler.go
package service

import (
	"time"

	"github.com/google/uuid"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/model"
)

type EnqueueSequenceInput struct {
	RecipientID    string
	RecipientEmail string
	RecipientName  string
	RecipientType  string
	SequenceID     string
	TriggerType    string
	Tier           string
	Metadata       map[string]string
}

type StepSummary struct {
	Order      int    `json:"order"`
	Template   string `json:"template"`
	DelayHours int    `json:"delay_hours"`
}

type EnqueueResult struct {
	Message      string        `json:"message"`
	SequenceID   string        `json:"sequence_id,omitempty"`
	SequenceName string        `json:"sequence_name,omitempty"`
	Queued       int           `json:"queued"`
	Steps        []StepSummary `json:"steps,omitempty"`
}

// EnqueueSequence resolves the sequence for a single recipient and
// creates one pending queue entry per step. All step delays are offsets
// from the same dispatch instant, captured once at the start of the
// call; they are not chained from the previous step.
//
// Enqueueing is not idempotent: calling twice for the same recipient and
// sequence queues twice. Gating repeated triggers is the caller's job.
func (s *DispatchService) EnqueueSequence(in EnqueueSequenceInput) (*EnqueueResult, error) {
	if in.RecipientEmail == "" {
		return nil, appErrors.NewValidation("recipientEmail", "is required")
	}
	if in.RecipientType == "" {
		return nil, appErrors.NewValidation("recipientType", "is required")
	}

	audience := model.AudienceDonors
	if in.RecipientType == model.RecipientWaitlist {
		audience = model.AudienceWaitlist
	}

	var tier *string
	if in.Tier != "" {
		tier = &in.Tier
	}

	seq, err := s.ResolveSequence(in.SequenceID, in.TriggerType, audience, tier)
	if err != nil {
		return nil, err
	}
	if seq == nil {
		return &EnqueueResult{Message: "No matching sequence found", Queued: 0}, nil
	}

	steps, err := s.SequenceRepo.ListSteps(seq.ID)
	if err != nil {
		return nil, appErrors.NewStore("list steps", err)
	}
	if len(steps) == 0 {
		return &EnqueueResult{
			Message:      "Sequence has no steps",
			SequenceID:   seq.ID,
			SequenceName: seq.Name,
			Queued:       0,
		}, nil
	}

	dispatchTime := s.now()

	entries := make([]*model.QueueEntry, 0, len(steps))
	summaries := make([]StepSummary, 0, len(steps))
	for _, step := range steps {
		templateName := step.TemplateID
		if tmpl, err := s.TemplateRepo.GetActiveByID(step.TemplateID); err == nil && tmpl != nil {
			templateName = tmpl.Name
		}

		metadata := map[string]string{}
		for k, v := range in.Metadata {
			metadata[k] = v
		}
		metadata["tier"] = in.Tier
		metadata["sequence_name"] = seq.Name
		metadata["step_name"] = templateName
		if _, ok := metadata["name"]; !ok {
			metadata["name"] = in.RecipientName
		}

		order := step.Order
		seqID := seq.ID
		entries = append(entries, &model.QueueEntry{
			ID:             uuid.New().String(),
			RecipientEmail: in.RecipientEmail,
			RecipientID:    in.RecipientID,
			RecipientType:  in.RecipientType,
			TemplateID:     step.TemplateID,
			SequenceID:     &seqID,
			StepOrder:      &order,
			ScheduledAt:    dispatchTime.Add(time.Duration(step.DelayHours) * time.Hour),
			Status:         model.StatusPending,
			Metadata:       metadata,
			CreatedAt:      dispatchTime,
		})
		summaries = append(summaries, StepSummary{
			Order:      step.Order,
			Template:   templateName,
			DelayHours: step.DelayHours,
		})
	}

	if err := s.QueueRepo.CreateBatch(entries); err != nil {
		return nil, appErrors.NewStore("create queue entries", err)
	}

	return &EnqueueResult{
		Message:      "Sequence enqueued",
		SequenceID:   seq.ID,
		SequenceName: seq.Name,
		Queued:       len(entries),
		Steps:        summaries,
	}, nil
}

type BroadcastInput struct {
	TemplateID string
	Audience   string
	TierFilter string
	ScheduleAt *time.Time
}

type BroadcastResult struct {
	Message      string    `json:"message"`
	BroadcastID  string    `json:"broadcast_id"`
	TemplateName string    `json:"template_name"`
	Audience     string    `json:"audience"`
	TierFilter   string    `json:"tier_filter,omitempty"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Queued       int       `json:"queued"`
	Recipients   int       `json:"recipients"`
}

// EnqueueBroadcast queues a one-shot template send to a resolved,
// deduplicated audience: one queue entry per recipient, all scheduled at
// the requested instant (or now).
func (s *DispatchService) EnqueueBroadcast(in BroadcastInput) (*BroadcastResult, error) {
	if in.TemplateID == "" {
		return nil, appErrors.NewValidation("templateId", "is required")
	}
	if in.Audience == "" {
		return nil, appErrors.NewValidation("audience", "is required")
	}

	tmpl, err := s.TemplateRepo.GetActiveByID(in.TemplateID)
	if err != nil {
		return nil, appErrors.NewStore("get template", err)
	}
	if tmpl == nil {
		return nil, appErrors.NewNotFound("template", in.TemplateID)
	}

	recipients, err := s.ResolveRecipients(in.Audience, in.TierFilter)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scheduledAt := now
	if in.ScheduleAt != nil {
		scheduledAt = in.ScheduleAt.UTC()
	}

	broadcastID := uuid.New().String()
	entries := make([]*model.QueueEntry, 0, len(recipients))
	for _, rec := range recipients {
		entries = append(entries, &model.QueueEntry{
			ID:             uuid.New().String(),
			RecipientEmail: rec.Email,
			RecipientID:    rec.ID,
			RecipientType:  rec.Type,
			TemplateID:     tmpl.ID,
			ScheduledAt:    scheduledAt,
			Status:         model.StatusPending,
			Metadata: map[string]string{
				"broadcast_id": broadcastID,
				"audience":     in.Audience,
				"tier_filter":  in.TierFilter,
				"tier":         rec.Tier,
				"name":         rec.Name,
			},
			CreatedAt: now,
		})
	}

	if err := s.QueueRepo.CreateBatch(entries); err != nil {
		return nil, appErrors.NewStore("create queue entries", err)
	}

	return &BroadcastResult{
		Message:      "Broadcast enqueued",
		BroadcastID:  broadcastID,
		TemplateName: tmpl.Name,
		Audience:     in.Audience,
		TierFilter:   in.TierFilter,
		ScheduledAt:  scheduledAt,
		Queued:       len(entries),
		Recipients:   len(recipients),
	}, nil
}
