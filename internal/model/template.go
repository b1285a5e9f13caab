// internal/model/template.go
package model

import "time"

type Template struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Subject      string    `db:"subject" json:"subject"`
	Body         string    `db:"body" json:"body"`
	Category     string    `db:"category" json:"category"`
	TierSpecific *string   `db:"tier_specific" json:"tier_specific,omitempty"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
