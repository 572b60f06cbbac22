package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Timestamp is an instant sent by the PMS (updated_at, posted_at, ...).
// Backends disagree on the format: some send RFC3339, others a naive ISO
// time without an offset, which is read as UTC.  Values that cannot be
// parsed decode to the zero Timestamp so one odd row never fails a list.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	DateLayout,
}

// At wraps t.
func At(t time.Time) Timestamp { return Timestamp{Time: t} }

// ParseTimestamp is the lenient parser behind UnmarshalJSON.  ok is false
// for input that matched no known layout.
func ParseTimestamp(s string) (ts Timestamp, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	return Timestamp{}, false
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var s string
	if len(b) == 0 || bytes.Equal(b, []byte("null")) || json.Unmarshal(b, &s) != nil {
		*t = Timestamp{}
		return nil
	}
	parsed, _ := ParseTimestamp(s)
	*t = parsed
	return nil
}
