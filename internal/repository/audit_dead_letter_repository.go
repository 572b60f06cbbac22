package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// DeadLetter is an audit entry the worker gave up delivering to the PMS.
type DeadLetter struct {
	ID         uint64    `json:"id"`
	EventID    string    `json:"event_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	Payload    []byte    `json:"-"` // the JSON-encoded event as it was queued
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditDeadLetterRepo keeps undeliverable audit entries in MySQL so they can
// be replayed by hand.
type AuditDeadLetterRepo struct{ DB *sql.DB }

func NewAuditDeadLetterRepo(db *sql.DB) *AuditDeadLetterRepo { return &AuditDeadLetterRepo{DB: db} }

const createDeadLetterTable = `CREATE TABLE IF NOT EXISTS audit_dead_letters (
	id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
	event_id    CHAR(36)        NOT NULL,
	entity_type VARCHAR(64)     NOT NULL,
	entity_id   VARCHAR(128)    NOT NULL,
	action      VARCHAR(64)     NOT NULL,
	payload     JSON            NOT NULL,
	attempts    INT             NOT NULL DEFAULT 0,
	last_error  TEXT            NULL,
	created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uq_audit_dead_letters_event (event_id)
)`

// EnsureSchema creates the table when it is missing.
func (r *AuditDeadLetterRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, createDeadLetterTable)
	return err
}

// Insert stores a dead letter.  Re-inserting the same event updates the
// attempt count and error instead of duplicating the row.
func (r *AuditDeadLetterRepo) Insert(ctx context.Context, d DeadLetter) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO audit_dead_letters (event_id, entity_type, entity_id, action, payload, attempts, last_error)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE attempts=VALUES(attempts), last_error=VALUES(last_error)`,
		d.EventID, d.EntityType, d.EntityID, d.Action, d.Payload, d.Attempts, d.LastError)
	return err
}

// ListRecent returns the newest dead letters first.
func (r *AuditDeadLetterRepo) ListRecent(ctx context.Context, limit int) ([]DeadLetter, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, event_id, entity_type, entity_id, action, payload, attempts, COALESCE(last_error,''), created_at
		 FROM audit_dead_letters ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeadLetter
	for rows.Next() {
		var d DeadLetter
		if err := rows.Scan(&d.ID, &d.EventID, &d.EntityType, &d.EntityID, &d.Action, &d.Payload, &d.Attempts, &d.LastError, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Get returns one dead letter by event id, or ErrNotFound.
func (r *AuditDeadLetterRepo) Get(ctx context.Context, eventID string) (DeadLetter, error) {
	var d DeadLetter
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, event_id, entity_type, entity_id, action, payload, attempts, COALESCE(last_error,''), created_at
		 FROM audit_dead_letters WHERE event_id=?`, eventID).
		Scan(&d.ID, &d.EventID, &d.EntityType, &d.EntityID, &d.Action, &d.Payload, &d.Attempts, &d.LastError, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DeadLetter{}, ErrNotFound
	}
	return d, err
}

// Delete removes a dead letter after it has been replayed.  ErrNotFound is
// returned when no row matched.
func (r *AuditDeadLetterRepo) Delete(ctx context.Context, eventID string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM audit_dead_letters WHERE event_id=?", eventID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
