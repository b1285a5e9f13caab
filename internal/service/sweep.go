// internal/service/sweep.go
package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/mailer"
	"github.com/brightfund/email-backend/internal/model"
	"github.com/brightfund/email-backend/internal/repository"
)

// SweepService handles donors that never received a welcome email:
// enqueue a tier-matched signup sequence when one exists, otherwise send
// a welcome template directly. Best-effort batch: one recipient failing
// never stops the rest.
type SweepService struct {
	RecipientRepo repository.RecipientRepositoryInterface
	TemplateRepo  repository.TemplateRepositoryInterface
	LogRepo       repository.EmailLogRepositoryInterface
	Dispatch      *DispatchService
	Sender        mailer.Sender

	Now func() time.Time
}

// Sweep result modes.
const (
	SweepEnqueued   = "sequence_enqueued"
	SweepDirectSend = "direct_send"
)

type SweepResult struct {
	Email    string `json:"email"`
	Status   string `json:"status"`
	Mode     string `json:"mode,omitempty"`
	Sequence string `json:"sequence,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *SweepService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Run processes every donor missing the welcome marker and returns one
// result per donor. The marker is set only after a confirmed enqueue or
// send; a failed recipient is reported and left unmarked for the next
// sweep.
func (s *SweepService) Run() ([]SweepResult, error) {
	recipients, err := s.RecipientRepo.ListDonorsMissingWelcome()
	if err != nil {
		return nil, appErrors.NewStore("list donors missing welcome", err)
	}

	results := make([]SweepResult, 0, len(recipients))
	for i, rec := range recipients {
		// 1-based rank by creation time among the swept donors.
		backerNumber := fmt.Sprintf("%04d", i+1)
		results = append(results, s.processOne(rec, backerNumber))
	}
	return results, nil
}

func (s *SweepService) processOne(rec model.Recipient, backerNumber string) SweepResult {
	res := SweepResult{Email: rec.Email}

	enq, err := s.Dispatch.EnqueueSequence(EnqueueSequenceInput{
		RecipientID:    rec.ID,
		RecipientEmail: rec.Email,
		RecipientName:  rec.Name,
		RecipientType:  model.RecipientDonor,
		TriggerType:    model.TriggerOnSignup,
		Tier:           rec.Tier,
		Metadata:       map[string]string{"source": "welcome_sweep", "backer_number": backerNumber},
	})
	if err != nil {
		log.Error().Err(err).Str("email", rec.Email).Msg("welcome sweep enqueue failed")
		res.Status = model.StatusFailed
		res.Error = err.Error()
		return res
	}

	if enq.Queued > 0 {
		if err := s.RecipientRepo.MarkWelcomeSent(rec.ID); err != nil {
			res.Status = model.StatusFailed
			res.Error = err.Error()
			return res
		}
		res.Status = model.StatusSent
		res.Mode = SweepEnqueued
		res.Sequence = enq.SequenceName
		return res
	}

	// No matching sequence: send the welcome template immediately.
	if err := s.directSend(rec, backerNumber); err != nil {
		log.Error().Err(err).Str("email", rec.Email).Msg("welcome sweep direct send failed")
		res.Status = model.StatusFailed
		res.Error = err.Error()
		return res
	}
	if err := s.RecipientRepo.MarkWelcomeSent(rec.ID); err != nil {
		res.Status = model.StatusFailed
		res.Error = err.Error()
		return res
	}
	res.Status = model.StatusSent
	res.Mode = SweepDirectSend
	return res
}

func (s *SweepService) directSend(rec model.Recipient, backerNumber string) error {
	tmpl, err := s.TemplateRepo.FindWelcome(rec.Tier)
	if err != nil {
		return appErrors.NewStore("find welcome template", err)
	}
	if tmpl == nil {
		return appErrors.NewNotFound("welcome template", rec.Tier)
	}

	name := rec.Name
	if name == "" {
		name = defaultName
	}
	data := map[string]string{
		"name":         name,
		"tier":         rec.Tier,
		"backerNumber": backerNumber,
	}

	messageID, err := s.Sender.Send(mailer.Message{
		To:      rec.Email,
		ToName:  name,
		Subject: RenderTemplate(tmpl.Subject, data),
		Body:    RenderTemplate(tmpl.Body, data),
	})
	if err != nil {
		return err
	}

	return s.LogRepo.Create(&model.EmailLog{
		ID:             uuid.New().String(),
		RecipientEmail: rec.Email,
		TemplateID:     tmpl.ID,
		Status:         model.StatusSent,
		MessageID:      messageID,
		CreatedAt:      s.now(),
	})
}
