package queue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

// AuditSink receives audit entries; *pmsapi.Client is the real one.
type AuditSink interface {
	CreateAuditLog(ctx context.Context, entry model.AuditLog) error
}

// DeadLetterStore keeps entries that could not be delivered.
type DeadLetterStore interface {
	Insert(ctx context.Context, d repository.DeadLetter) error
}

// Deliverer posts audit events with exponential backoff.  A 403 means the
// operator may not write the audit trail and the event is dropped quietly.
type Deliverer struct {
	Sink        AuditSink
	DeadLetters DeadLetterStore // optional
	MaxAttempts int
	BaseBackoff time.Duration
	Log         *zap.Logger

	sleep func(context.Context, time.Duration) error
}

// Outcome of one delivery.
type Outcome string

const (
	Delivered    Outcome = "delivered"
	Dropped      Outcome = "dropped"
	DeadLettered Outcome = "dead_lettered"
)

// Deliver tries until the sink accepts the event, the error is permanent, or
// attempts run out.  Only a cancelled context yields an error; every other
// outcome is final for the event.
func (d *Deliverer) Deliver(ctx context.Context, ev AuditEvent) (Outcome, error) {
	log := d.logger().With(zap.String("event_id", ev.EventID), zap.String("entity_id", ev.Entry.EntityID))
	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	backoff := d.BaseBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	tried := 0
	for tried < attempts {
		tried++
		err := d.Sink.CreateAuditLog(ctx, ev.Entry)
		if err == nil {
			return Delivered, nil
		}
		lastErr = err
		if pmsapi.IsForbidden(err) {
			log.Debug("audit entry dropped: forbidden")
			return Dropped, nil
		}
		if permanent(err) {
			break
		}
		if tried == attempts {
			break
		}
		log.Warn("audit delivery failed, retrying", zap.Int("attempt", tried), zap.Duration("backoff", backoff), zap.Error(err))
		if err := d.wait(ctx, backoff); err != nil {
			return "", err
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
	return d.deadLetter(ctx, log, ev, tried, lastErr), nil
}

func (d *Deliverer) deadLetter(ctx context.Context, log *zap.Logger, ev AuditEvent, attempts int, cause error) Outcome {
	log.Error("audit entry undeliverable", zap.Int("attempts", attempts), zap.Error(cause))
	if d.DeadLetters == nil {
		return DeadLettered
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error("encode dead letter", zap.Error(err))
		return DeadLettered
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	// Store even if the delivery context is already gone.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.DeadLetters.Insert(sctx, repository.DeadLetter{
		EventID:    ev.EventID,
		EntityType: ev.Entry.EntityType,
		EntityID:   ev.Entry.EntityID,
		Action:     ev.Entry.Action,
		Payload:    payload,
		Attempts:   attempts,
		LastError:  msg,
	}); err != nil {
		log.Error("store dead letter", zap.Error(err))
	}
	return DeadLettered
}

// permanent reports client errors that retrying cannot fix.
func permanent(err error) bool {
	var apiErr *pmsapi.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500
}

func (d *Deliverer) wait(ctx context.Context, dur time.Duration) error {
	if d.sleep != nil {
		return d.sleep(ctx, dur)
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d *Deliverer) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
