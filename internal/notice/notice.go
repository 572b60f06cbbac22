// Package notice carries the transient messages the console shows operators
// after loads and mutations.  A request collects its notices in a Collector
// and returns them with the response; each calendar session also keeps a
// bounded Feed the browser can poll.
package notice

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Levels.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

// Categories mirror the kinds of failure the console distinguishes.
const (
	CategoryLoad       = "load"
	CategoryMutation   = "mutation"
	CategoryValidation = "validation"
	CategoryPermission = "permission"
	CategoryBestEffort = "best_effort"
)

// Notice is one message for the operator.
type Notice struct {
	ID       string    `json:"id"`
	Level    string    `json:"level"`
	Category string    `json:"category,omitempty"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// New stamps a notice with a fresh id and the current time.
func New(level, category, message string) Notice {
	return Notice{
		ID:       uuid.NewString(),
		Level:    level,
		Category: category,
		Message:  message,
		At:       time.Now().UTC(),
	}
}

// Notifier receives notices.  Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n Notice)
}

// Success emits a success notice for a completed mutation.
func Success(to Notifier, message string) {
	to.Notify(New(LevelSuccess, CategoryMutation, message))
}

// Info emits an informational notice.
func Info(to Notifier, message string) {
	to.Notify(New(LevelInfo, "", message))
}

// Validation emits a validation failure.  Nothing reached the network.
func Validation(to Notifier, message string) {
	to.Notify(New(LevelError, CategoryValidation, message))
}

// Collector gathers the notices produced while serving one request.
type Collector struct {
	mu   sync.Mutex
	list []Notice
	next Notifier
}

// NewCollector returns a collector that also forwards every notice to next
// when it is non-nil (typically the session feed).
func NewCollector(next Notifier) *Collector {
	return &Collector{next: next}
}

func (c *Collector) Notify(n Notice) {
	c.mu.Lock()
	c.list = append(c.list, n)
	c.mu.Unlock()
	if c.next != nil {
		c.next.Notify(n)
	}
}

// Notices returns a copy of everything collected so far, never nil.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, len(c.list))
	copy(out, c.list)
	return out
}

// Len is the number of collected notices.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.list)
}

// Count returns how many collected notices have the given level.
func (c *Collector) Count(level string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, x := range c.list {
		if x.Level == level {
			n++
		}
	}
	return n
}

// Feed is a bounded ring of recent notices for one session.
type Feed struct {
	mu   sync.Mutex
	buf  []Notice
	size int
}

// NewFeed keeps at most size notices; older ones are dropped first.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 50
	}
	return &Feed{size: size}
}

func (f *Feed) Notify(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf = append(f.buf, n)
	if over := len(f.buf) - f.size; over > 0 {
		f.buf = append([]Notice(nil), f.buf[over:]...)
	}
}

// Since returns the notices stamped strictly after t, oldest first.  A zero
// t returns the whole feed.
func (f *Feed) Since(t time.Time) []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, 0, len(f.buf))
	for _, n := range f.buf {
		if t.IsZero() || n.At.After(t) {
			out = append(out, n)
		}
	}
	return out
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) {}
