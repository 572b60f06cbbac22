// Package service holds the outbound side effects of the console that are
// not plain REST calls.  Today that is publishing audit events to RabbitMQ.
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/queue"
)

// Fallback takes events the broker refused.
type Fallback interface {
	Push(ev queue.AuditEvent)
}

// link is an open publishing channel.
type link interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpLink owns the connection behind its channel.
type amqpLink struct {
	conn *amqp.Connection
	*amqp.Channel
}

func (l *amqpLink) Close() error {
	_ = l.Channel.Close()
	return l.conn.Close()
}

// AuditPublisher publishes audit events to a durable queue over one
// long-lived connection.  Enqueue only buffers; a single worker publishes
// so a gesture never waits on the broker.  Events that overflow the buffer
// or that the broker refuses go to Fallback.
type AuditPublisher struct {
	url      string
	queue    string
	timeout  time.Duration
	fallback Fallback
	log      *zap.Logger

	ch   chan queue.AuditEvent
	wg   sync.WaitGroup
	open func(ctx context.Context) (link, error)

	mu   sync.Mutex
	conn link
}

// PublisherOptions configures NewAuditPublisher.
type PublisherOptions struct {
	URL      string
	Queue    string
	Timeout  time.Duration
	Buffer   int
	Fallback Fallback
}

func NewAuditPublisher(opts PublisherOptions, log *zap.Logger) *AuditPublisher {
	if opts.Queue == "" {
		opts.Queue = queue.DefaultAuditQueue
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &AuditPublisher{
		url:      opts.URL,
		queue:    opts.Queue,
		timeout:  opts.Timeout,
		fallback: opts.Fallback,
		log:      log,
		ch:       make(chan queue.AuditEvent, opts.Buffer),
	}
	p.open = p.dial
	return p
}

// Enqueue implements the gesture controller's Auditor.  It never blocks.
func (p *AuditPublisher) Enqueue(_ context.Context, entry model.AuditLog) {
	ev := queue.NewAuditEvent(entry)
	select {
	case p.ch <- ev:
	default:
		p.log.Warn("rabbitmq: publish buffer full", zap.String("event_id", ev.EventID))
		p.refuse(ev)
	}
}

// Start runs the publishing worker until ctx is cancelled.  Events still
// buffered at that point are handed to Fallback.
func (p *AuditPublisher) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.reset()
		for {
			select {
			case <-ctx.Done():
				for {
					select {
					case ev := <-p.ch:
						p.refuse(ev)
					default:
						return
					}
				}
			case ev := <-p.ch:
				// The request that produced the entry has finished by now.
				if err := p.Publish(context.WithoutCancel(ctx), ev); err != nil {
					p.refuse(ev)
				}
			}
		}
	}()
}

// Wait blocks until the worker has stopped and the connection is closed.
func (p *AuditPublisher) Wait() { p.wg.Wait() }

// Publish sends one event and waits for the broker.  The connection is
// opened on first use and dropped after any failure so the next event
// redials.
func (p *AuditPublisher) Publish(ctx context.Context, ev queue.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		l, err := p.open(ctx)
		if err != nil {
			p.log.Warn("rabbitmq: connect failed", zap.Error(err))
			return err
		}
		p.conn = l
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.conn.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("event_id", ev.EventID), zap.Error(err))
		_ = p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

func (p *AuditPublisher) dial(_ context.Context) (link, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Idempotent; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &amqpLink{conn: conn, Channel: ch}, nil
}

func (p *AuditPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *AuditPublisher) refuse(ev queue.AuditEvent) {
	if p.fallback != nil {
		p.fallback.Push(ev)
		return
	}
	p.log.Warn("rabbitmq: audit event dropped", zap.String("event_id", ev.EventID))
}
