// Package queue defines the audit side-effect queue: the message exchanged
// over the broker, the worker that delivers it to the PMS audit trail, and
// an in-process fallback used when no broker is configured.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// DefaultAuditQueue is the durable RabbitMQ queue carrying audit events.
const DefaultAuditQueue = "pms.audit"

// AuditEvent wraps one audit entry on its way to POST /audit-logs.  The
// EventID lets the dead-letter table deduplicate redeliveries.
type AuditEvent struct {
	EventID    string         `json:"event_id"`
	Entry      model.AuditLog `json:"entry"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// NewAuditEvent stamps an entry with a fresh event id.
func NewAuditEvent(entry model.AuditLog) AuditEvent {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = model.At(time.Now().UTC())
	}
	return AuditEvent{
		EventID:    uuid.NewString(),
		Entry:      entry,
		EnqueuedAt: time.Now().UTC(),
	}
}
