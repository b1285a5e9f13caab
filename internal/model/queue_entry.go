// internal/model/queue_entry.go
package model

import "time"

// Queue entry statuses. An entry starts pending and transitions exactly
// once, to sent or failed. Entries are never deleted.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Recipient types accepted by the trigger endpoint.
const (
	RecipientDonor    = "donor"
	RecipientWaitlist = "waitlist"
)

type QueueEntry struct {
	ID             string            `db:"id" json:"id"`
	RecipientEmail string            `db:"recipient_email" json:"recipient_email"`
	RecipientID    string            `db:"recipient_id" json:"recipient_id"`
	RecipientType  string            `db:"recipient_type" json:"recipient_type"`
	TemplateID     string            `db:"template_id" json:"template_id"`
	SequenceID     *string           `db:"sequence_id" json:"sequence_id,omitempty"`
	StepOrder      *int              `db:"step_order" json:"step_order,omitempty"`
	ScheduledAt    time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status         string            `db:"status" json:"status"`
	Metadata       map[string]string `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}
