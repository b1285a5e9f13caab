package repository

import (
	"database/sql"

	"github.com/brightfund/email-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	// GetActiveByID returns nil when the id is absent or inactive.
	GetActiveByID(id string) (*model.Template, error)
	// FindWelcome returns the active welcome-category template for a tier,
	// preferring a tier-specific template over a generic one. Returns nil
	// when no welcome template exists.
	FindWelcome(tier string) (*model.Template, error)
	List() ([]model.Template, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) GetActiveByID(id string) (*model.Template, error) {
	query := `
        SELECT id, name, subject, body, category, tier_specific, active, created_at
        FROM templates
        WHERE id = $1 AND active = true
    `
	var t model.Template
	err := r.DB.QueryRow(query, id).Scan(
		&t.ID, &t.Name, &t.Subject, &t.Body, &t.Category, &t.TierSpecific, &t.Active, &t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) FindWelcome(tier string) (*model.Template, error) {
	query := `
        SELECT id, name, subject, body, category, tier_specific, active, created_at
        FROM templates
        WHERE category = 'welcome'
          AND active = true
          AND (tier_specific IS NULL OR tier_specific = $1)
        ORDER BY (tier_specific IS NOT NULL) DESC, created_at ASC
        LIMIT 1
    `
	var t model.Template
	err := r.DB.QueryRow(query, tier).Scan(
		&t.ID, &t.Name, &t.Subject, &t.Body, &t.Category, &t.TierSpecific, &t.Active, &t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) List() ([]model.Template, error) {
	query := `
        SELECT id, name, subject, body, category, tier_specific, active, created_at
        FROM templates
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.Category, &t.TierSpecific, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
