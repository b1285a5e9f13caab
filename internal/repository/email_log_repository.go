package repository

import (
	"database/sql"
	"time"

	"github.com/brightfund/email-backend/internal/model"
)

type EmailLogRepositoryInterface interface {
	// Create appends a delivery record. Log rows are never updated except
	// for engagement timestamps via RecordEvent.
	Create(l *model.EmailLog) error
	ListAll() ([]model.EmailLog, error)
	// RecordEvent stamps opened_at, clicked_at or bounced_at on the newest
	// log row for the recipient+template, if not already set.
	RecordEvent(recipientEmail, templateID, event string, at time.Time) error
}

// Engagement events accepted by RecordEvent.
const (
	EventOpened  = "opened"
	EventClicked = "clicked"
	EventBounced = "bounced"
)

type EmailLogRepository struct {
	DB *sql.DB
}

func (r *EmailLogRepository) Create(l *model.EmailLog) error {
	query := `
        INSERT INTO email_logs
        (id, recipient_email, template_id, status, message_id, error,
         opened_at, clicked_at, bounced_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.DB.Exec(query,
		l.ID, l.RecipientEmail, l.TemplateID, l.Status, l.MessageID, l.Error,
		l.OpenedAt, l.ClickedAt, l.BouncedAt, l.CreatedAt,
	)
	return err
}

func (r *EmailLogRepository) ListAll() ([]model.EmailLog, error) {
	query := `
        SELECT id, recipient_email, template_id, status, message_id, error,
               opened_at, clicked_at, bounced_at, created_at
        FROM email_logs
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []model.EmailLog{}
	for rows.Next() {
		var l model.EmailLog
		if err := rows.Scan(
			&l.ID, &l.RecipientEmail, &l.TemplateID, &l.Status, &l.MessageID, &l.Error,
			&l.OpenedAt, &l.ClickedAt, &l.BouncedAt, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *EmailLogRepository) RecordEvent(recipientEmail, templateID, event string, at time.Time) error {
	var column string
	switch event {
	case EventOpened:
		column = "opened_at"
	case EventClicked:
		column = "clicked_at"
	case EventBounced:
		column = "bounced_at"
	default:
		return nil
	}

	query := `
        UPDATE email_logs SET ` + column + ` = $1
        WHERE id = (
            SELECT id FROM email_logs
            WHERE recipient_email = $2 AND template_id = $3 AND ` + column + ` IS NULL
            ORDER BY created_at DESC
            LIMIT 1
        )
    `
	_, err := r.DB.Exec(query, at, recipientEmail, templateID)
	return err
}

var _ EmailLogRepositoryInterface = (*EmailLogRepository)(nil)
