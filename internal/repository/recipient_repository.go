package repository

import (
	"database/sql"

	"github.com/brightfund/email-backend/internal/model"
)

type RecipientRepositoryInterface interface {
	// ListDonors returns donor rows, optionally narrowed to a tier.
	ListDonors(tier string) ([]model.Recipient, error)
	// ListWaitlist returns waitlist rows, optionally narrowed to a tier.
	ListWaitlist(tier string) ([]model.Recipient, error)
	// ListInvestors returns waitlist rows tagged category='investor'.
	// The tier filter does not apply to this subset.
	ListInvestors() ([]model.Recipient, error)
	// ListDonorsMissingWelcome returns donors without the welcome marker,
	// ordered by creation time.
	ListDonorsMissingWelcome() ([]model.Recipient, error)
	MarkWelcomeSent(id string) error
}

type RecipientRepository struct {
	DB *sql.DB
}

func (r *RecipientRepository) ListDonors(tier string) ([]model.Recipient, error) {
	query := `
        SELECT id, email, name, tier, welcome_sent, created_at
        FROM donors
        WHERE ($1 = '' OR tier = $1)
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query, tier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var rec model.Recipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.Tier, &rec.WelcomeSent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Type = model.RecipientDonor
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *RecipientRepository) ListWaitlist(tier string) ([]model.Recipient, error) {
	query := `
        SELECT id, email, name, COALESCE(tier, ''), COALESCE(category, ''), welcome_sent, created_at
        FROM waitlist
        WHERE ($1 = '' OR tier = $1)
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query, tier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWaitlist(rows)
}

func (r *RecipientRepository) ListInvestors() ([]model.Recipient, error) {
	query := `
        SELECT id, email, name, COALESCE(tier, ''), COALESCE(category, ''), welcome_sent, created_at
        FROM waitlist
        WHERE category = 'investor'
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWaitlist(rows)
}

func (r *RecipientRepository) ListDonorsMissingWelcome() ([]model.Recipient, error) {
	query := `
        SELECT id, email, name, tier, welcome_sent, created_at
        FROM donors
        WHERE welcome_sent = false
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []model.Recipient{}
	for rows.Next() {
		var rec model.Recipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.Tier, &rec.WelcomeSent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Type = model.RecipientDonor
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *RecipientRepository) MarkWelcomeSent(id string) error {
	_, err := r.DB.Exec(`UPDATE donors SET welcome_sent = true WHERE id = $1`, id)
	return err
}

func collectWaitlist(rows *sql.Rows) ([]model.Recipient, error) {
	recipients := []model.Recipient{}
	for rows.Next() {
		var rec model.Recipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Name, &rec.Tier, &rec.Category, &rec.WelcomeSent, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Type = model.RecipientWaitlist
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

var _ RecipientRepositoryInterface = (*RecipientRepository)(nil)
