// internal/model/sequence.go
package model

import "time"

// Trigger types a sequence can be gated on.
const (
	TriggerOnSignup = "on_signup"
	TriggerOnBacker = "on_backer"
	TriggerManual   = "manual"
)

// Audiences a sequence or broadcast can target.
const (
	AudienceDonors    = "donors"
	AudienceWaitlist  = "waitlist"
	AudienceInvestors = "investors"
	AudienceAll       = "all"
)

type Sequence struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	TriggerType string    `db:"trigger_type" json:"trigger_type"`
	Audience    string    `db:"audience" json:"audience"`
	TierFilter  *string   `db:"tier_filter" json:"tier_filter,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Step is one ordered stage of a sequence. Order is unique per sequence.
type Step struct {
	ID         string `db:"id" json:"id"`
	SequenceID string `db:"sequence_id" json:"sequence_id"`
	Order      int    `db:"step_order" json:"order"`
	TemplateID string `db:"template_id" json:"template_id"`
	DelayHours int    `db:"delay_hours" json:"delay_hours"`
}
