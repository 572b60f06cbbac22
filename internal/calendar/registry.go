package calendar

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-pms-console/internal/interaction"
)

// Registry owns one Session per operator.  Sessions are created on first
// use, polled in the background while alive, and dropped by the janitor
// once idle for longer than the TTL.
type Registry struct {
	api     API
	auditor interaction.Auditor
	opts    Options
	ttl     time.Duration
	log     *zap.Logger
	now     func() time.Time

	ctx context.Context

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns a registry whose sessions poll until ctx is done.
func NewRegistry(ctx context.Context, api API, auditor interaction.Auditor, opts Options, ttl time.Duration, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		api:      api,
		auditor:  auditor,
		opts:     opts,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
		ctx:      ctx,
		sessions: make(map[string]*Session),
	}
}

// Get returns the operator's session, creating it when needed.  created is
// true for a new session, which the caller is expected to Load.
func (r *Registry) Get(operator string) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[operator]; ok {
		s.Touch()
		return s, false
	}
	s = NewSession(operator, r.api, r.auditor, r.opts, r.log)
	r.sessions[operator] = s
	s.StartPolling(r.ctx)
	r.log.Info("calendar session opened", zap.String("operator", operator))
	return s, true
}

// Drop closes an operator's session.
func (r *Registry) Drop(operator string) bool {
	r.mu.Lock()
	s, ok := r.sessions[operator]
	delete(r.sessions, operator)
	r.mu.Unlock()
	if ok {
		s.Stop()
	}
	return ok
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops every session idle for longer than the TTL and reports how
// many went.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var stale []*Session
	r.mu.Lock()
	for op, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, op)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Stop()
		r.log.Info("calendar session expired", zap.String("operator", s.Operator()))
	}
	return len(stale)
}

// RunJanitor sweeps every interval until ctx is cancelled, then stops every
// remaining session.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for op, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, op)
	}
	r.mu.Unlock()
	for _, s := range all {
		s.Stop()
	}
}
