// internal/model/email_log.go
package model

import "time"

// EmailLog is an append-only delivery and engagement record, written by
// the delivery worker. Engagement timestamps are set at most once.
type EmailLog struct {
	ID             string     `db:"id" json:"id"`
	RecipientEmail string     `db:"recipient_email" json:"recipient_email"`
	TemplateID     string     `db:"template_id" json:"template_id"`
	Status         string     `db:"status" json:"status"`
	MessageID      string     `db:"message_id" json:"message_id,omitempty"`
	Error          string     `db:"error" json:"error,omitempty"`
	OpenedAt       *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	ClickedAt      *time.Time `db:"clicked_at" json:"clicked_at,omitempty"`
	BouncedAt      *time.Time `db:"bounced_at" json:"bounced_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
