// internal/model/recipient.go
package model

import "time"

// Recipient is a resolved send target. Donor and waitlist rows both map
// into this shape; identity for deduplication is the email address.
type Recipient struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	Name        string    `db:"name" json:"name"`
	Type        string    `db:"type" json:"type"`
	Tier        string    `db:"tier" json:"tier,omitempty"`
	Category    string    `db:"category" json:"category,omitempty"`
	WelcomeSent bool      `db:"welcome_sent" json:"welcome_sent"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
