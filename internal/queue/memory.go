package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/model"
)

// MemoryQueue is the in-process audit queue used when no broker is
// configured.  Events live only as long as the process.
type MemoryQueue struct {
	ch        chan AuditEvent
	deliverer *Deliverer
	log       *zap.Logger
	wg        sync.WaitGroup
}

// NewMemoryQueue buffers up to size events.
func NewMemoryQueue(size int, d *Deliverer, log *zap.Logger) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MemoryQueue{ch: make(chan AuditEvent, size), deliverer: d, log: log.Named("audit-memory")}
}

// Enqueue never blocks: when the buffer is full the entry is logged and
// dropped.
func (q *MemoryQueue) Enqueue(_ context.Context, entry model.AuditLog) {
	q.Push(NewAuditEvent(entry))
}

// Push queues an already stamped event.
func (q *MemoryQueue) Push(ev AuditEvent) {
	select {
	case q.ch <- ev:
	default:
		q.log.Warn("audit queue full, entry dropped",
			zap.String("event_id", ev.EventID),
			zap.String("entity_id", ev.Entry.EntityID),
			zap.String("action", ev.Entry.Action))
	}
}

// Start runs workers until ctx is cancelled.
func (q *MemoryQueue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-q.ch:
					if _, err := q.deliverer.Deliver(ctx, ev); err != nil {
						q.log.Info("audit delivery interrupted", zap.String("event_id", ev.EventID), zap.Error(err))
					}
				}
			}
		}()
	}
}

// Wait blocks until every worker has stopped.
func (q *MemoryQueue) Wait() { q.wg.Wait() }

// Pending is the number of buffered events.
func (q *MemoryQueue) Pending() int { return len(q.ch) }
