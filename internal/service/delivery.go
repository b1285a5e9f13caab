// internal/service/delivery.go
package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	appErrors "github.com/brightfund/email-backend/internal/errors"
	"github.com/brightfund/email-backend/internal/mailer"
	"github.com/brightfund/email-backend/internal/model"
	"github.com/brightfund/email-backend/internal/repository"
)

// DeliveryService drains due queue entries: render, send through the
// transport, transition the entry exactly once and append a log row.
type DeliveryService struct {
	QueueRepo    repository.QueueRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	LogRepo      repository.EmailLogRepositoryInterface
	Sender       mailer.Sender

	Now func() time.Time
}

func (s *DeliveryService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ListDue returns pending entries whose scheduled time has passed.
func (s *DeliveryService) ListDue(limit int) ([]model.QueueEntry, error) {
	entries, err := s.QueueRepo.ListDue(s.now(), limit)
	if err != nil {
		return nil, appErrors.NewStore("list due entries", err)
	}
	return entries, nil
}

// Process attempts delivery of one queue entry. Entries that are gone or
// already transitioned away from pending are skipped, never re-sent. A
// send failure transitions the entry to failed and records the failure
// message; it is not an error to the caller, so the entry is not retried.
func (s *DeliveryService) Process(entryID string) error {
	entry, err := s.QueueRepo.GetByID(entryID)
	if err != nil {
		return appErrors.NewStore("get queue entry", err)
	}
	if entry == nil {
		log.Warn().Str("entry_id", entryID).Msg("queue entry not found, skipping")
		return nil
	}
	if entry.Status != model.StatusPending {
		log.Debug().Str("entry_id", entryID).Str("status", entry.Status).Msg("entry already resolved, skipping")
		return nil
	}

	tmpl, err := s.TemplateRepo.GetActiveByID(entry.TemplateID)
	if err != nil {
		return appErrors.NewStore("get template", err)
	}
	if tmpl == nil {
		return s.fail(entry, "template missing or inactive")
	}

	data := map[string]string{"email": entry.RecipientEmail}
	for k, v := range entry.Metadata {
		data[k] = v
	}

	messageID, err := s.Sender.Send(mailer.Message{
		To:      entry.RecipientEmail,
		ToName:  entry.Metadata["name"],
		Subject: RenderTemplate(tmpl.Subject, data),
		Body:    RenderTemplate(tmpl.Body, data),
	})
	if err != nil {
		log.Error().Err(err).Str("entry_id", entry.ID).Str("to", entry.RecipientEmail).Msg("send failed")
		return s.fail(entry, err.Error())
	}

	if err := s.QueueRepo.MarkSent(entry.ID); err != nil {
		return appErrors.NewStore("mark sent", err)
	}
	if err := s.LogRepo.Create(&model.EmailLog{
		ID:             uuid.New().String(),
		RecipientEmail: entry.RecipientEmail,
		TemplateID:     entry.TemplateID,
		Status:         model.StatusSent,
		MessageID:      messageID,
		CreatedAt:      s.now(),
	}); err != nil {
		return appErrors.NewStore("create email log", err)
	}

	log.Info().Str("entry_id", entry.ID).Str("to", entry.RecipientEmail).Str("message_id", messageID).Msg("delivered")
	return nil
}

func (s *DeliveryService) fail(entry *model.QueueEntry, reason string) error {
	if err := s.QueueRepo.MarkFailed(entry.ID); err != nil {
		return appErrors.NewStore("mark failed", err)
	}
	if err := s.LogRepo.Create(&model.EmailLog{
		ID:             uuid.New().String(),
		RecipientEmail: entry.RecipientEmail,
		TemplateID:     entry.TemplateID,
		Status:         model.StatusFailed,
		Error:          reason,
		CreatedAt:      s.now(),
	}); err != nil {
		return appErrors.NewStore("create email log", err)
	}
	return nil
}
