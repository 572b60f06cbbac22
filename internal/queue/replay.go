package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

// ReplayStore is the dead-letter table as seen by an operator replaying it.
type ReplayStore interface {
	Get(ctx context.Context, eventID string) (repository.DeadLetter, error)
	ListRecent(ctx context.Context, limit int) ([]repository.DeadLetter, error)
	Delete(ctx context.Context, eventID string) error
}

// Replay delivers a dead letter again.  The row is removed once the PMS
// accepted or deliberately dropped the event; a second failure leaves it in
// place with the new attempt count.
func (d *Deliverer) Replay(ctx context.Context, store ReplayStore, eventID string) (Outcome, error) {
	dl, err := store.Get(ctx, eventID)
	if err != nil {
		return "", err
	}
	var ev AuditEvent
	if err := json.Unmarshal(dl.Payload, &ev); err != nil {
		return "", fmt.Errorf("dead letter %s: %w", eventID, err)
	}
	out, err := d.Deliver(ctx, ev)
	if err != nil {
		return "", err
	}
	if out == DeadLettered {
		return out, nil
	}
	if err := store.Delete(ctx, eventID); err != nil {
		return out, err
	}
	return out, nil
}
