package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/brightfund/email-backend/internal/model"
)

type QueueRepositoryInterface interface {
	// CreateBatch inserts all entries in a single transaction. A failure
	// mid-batch rolls back every row, never leaving a partial subset.
	CreateBatch(entries []*model.QueueEntry) error
	GetByID(id string) (*model.QueueEntry, error)
	// ListDue returns pending entries with scheduled_at <= now.
	ListDue(now time.Time, limit int) ([]model.QueueEntry, error)
	// MarkSent transitions pending -> sent. Non-pending rows are untouched.
	MarkSent(id string) error
	// MarkFailed transitions pending -> failed. Non-pending rows are untouched.
	MarkFailed(id string) error
	ListAll() ([]model.QueueEntry, error)
}

type QueueRepository struct {
	DB *sql.DB
}

const queueColumns = `id, recipient_email, recipient_id, recipient_type, template_id,
       sequence_id, step_order, scheduled_at, status, metadata, created_at`

func (r *QueueRepository) CreateBatch(entries []*model.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}

	query := `
        INSERT INTO queue_entries
        (id, recipient_email, recipient_id, recipient_type, template_id,
         sequence_id, step_order, scheduled_at, status, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `
	for _, e := range entries {
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			tx.Rollback()
			return err
		}
		if _, err := tx.Exec(query,
			e.ID, e.RecipientEmail, e.RecipientID, e.RecipientType, e.TemplateID,
			e.SequenceID, e.StepOrder, e.ScheduledAt, e.Status, meta, e.CreatedAt,
		); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (r *QueueRepository) GetByID(id string) (*model.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_entries WHERE id = $1`
	e, err := scanQueueEntry(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *QueueRepository) ListDue(now time.Time, limit int) ([]model.QueueEntry, error) {
	query := `
        SELECT ` + queueColumns + `
        FROM queue_entries
        WHERE status = 'pending' AND scheduled_at <= $1
        ORDER BY scheduled_at ASC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQueueEntries(rows)
}

func (r *QueueRepository) MarkSent(id string) error {
	query := `UPDATE queue_entries SET status='sent' WHERE id=$1 AND status='pending'`
	_, err := r.DB.Exec(query, id)
	return err
}

func (r *QueueRepository) MarkFailed(id string) error {
	query := `UPDATE queue_entries SET status='failed' WHERE id=$1 AND status='pending'`
	_, err := r.DB.Exec(query, id)
	return err
}

func (r *QueueRepository) ListAll() ([]model.QueueEntry, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_entries ORDER BY created_at ASC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQueueEntries(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueEntry(row rowScanner) (*model.QueueEntry, error) {
	var e model.QueueEntry
	var meta []byte
	err := row.Scan(
		&e.ID, &e.RecipientEmail, &e.RecipientID, &e.RecipientType, &e.TemplateID,
		&e.SequenceID, &e.StepOrder, &e.ScheduledAt, &e.Status, &meta, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Metadata); err != nil {
			return nil, err
		}
	}
	return &e, nil
}

func collectQueueEntries(rows *sql.Rows) ([]model.QueueEntry, error) {
	entries := []model.QueueEntry{}
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
