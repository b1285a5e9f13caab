package repository

import (
	"database/sql"

	"github.com/brightfund/email-backend/internal/model"
)

type SequenceRepositoryInterface interface {
	// GetActiveByID returns nil when the id is absent or inactive.
	GetActiveByID(id string) (*model.Sequence, error)
	// FindMatch returns the best active sequence for a trigger/audience/tier
	// combination, or nil when nothing matches. Tie-break: exact tier match
	// before null tier, then earliest created_at.
	FindMatch(triggerType, audience string, tier *string) (*model.Sequence, error)
	// ListSteps returns the sequence's steps in ascending order.
	ListSteps(sequenceID string) ([]model.Step, error)
	List() ([]model.Sequence, error)
}

type SequenceRepository struct {
	DB *sql.DB
}

func (r *SequenceRepository) GetActiveByID(id string) (*model.Sequence, error) {
	query := `
        SELECT id, name, trigger_type, audience, tier_filter, active, created_at
        FROM sequences
        WHERE id = $1 AND active = true
    `
	var s model.Sequence
	err := r.DB.QueryRow(query, id).Scan(
		&s.ID, &s.Name, &s.TriggerType, &s.Audience, &s.TierFilter, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SequenceRepository) FindMatch(triggerType, audience string, tier *string) (*model.Sequence, error) {
	query := `
        SELECT id, name, trigger_type, audience, tier_filter, active, created_at
        FROM sequences
        WHERE trigger_type = $1
          AND active = true
          AND audience IN ($2, 'all')
          AND (tier_filter IS NULL OR tier_filter = $3)
        ORDER BY (tier_filter IS NOT NULL) DESC, created_at ASC
        LIMIT 1
    `
	var s model.Sequence
	err := r.DB.QueryRow(query, triggerType, audience, tier).Scan(
		&s.ID, &s.Name, &s.TriggerType, &s.Audience, &s.TierFilter, &s.Active, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SequenceRepository) ListSteps(sequenceID string) ([]model.Step, error) {
	query := `
        SELECT id, sequence_id, step_order, template_id, delay_hours
        FROM steps
        WHERE sequence_id = $1
        ORDER BY step_order ASC
    `
	rows, err := r.DB.Query(query, sequenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := []model.Step{}
	for rows.Next() {
		var st model.Step
		if err := rows.Scan(&st.ID, &st.SequenceID, &st.Order, &st.TemplateID, &st.DelayHours); err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

func (r *SequenceRepository) List() ([]model.Sequence, error) {
	query := `
        SELECT id, name, trigger_type, audience, tier_filter, active, created_at
        FROM sequences
        ORDER BY created_at ASC
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sequences := []model.Sequence{}
	for rows.Next() {
		var s model.Sequence
		if err := rows.Scan(&s.ID, &s.Name, &s.TriggerType, &s.Audience, &s.TierFilter, &s.Active, &s.CreatedAt); err != nil {
			return nil, err
		}
		sequences = append(sequences, s)
	}
	return sequences, rows.Err()
}

var _ SequenceRepositoryInterface = (*SequenceRepository)(nil)
