package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

type fakeReplayStore struct {
	fakeDeadLetters
	deleted []string
}

func (f *fakeReplayStore) Get(ctx context.Context, id string) (repository.DeadLetter, error) {
	for _, r := range f.rows {
		if r.EventID == id {
			return r, nil
		}
	}
	return repository.DeadLetter{}, repository.ErrNotFound
}

func (f *fakeReplayStore) ListRecent(ctx context.Context, limit int) ([]repository.DeadLetter, error) {
	return f.rows, nil
}

func (f *fakeReplayStore) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func storedEvent(t *testing.T) (AuditEvent, repository.DeadLetter) {
	t.Helper()
	ev := event()
	payload, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return ev, repository.DeadLetter{EventID: ev.EventID, Payload: payload, Attempts: 5}
}

func TestReplay_DeliveredRowIsDeleted(t *testing.T) {
	ev, row := storedEvent(t)
	store := &fakeReplayStore{fakeDeadLetters: fakeDeadLetters{rows: []repository.DeadLetter{row}}}
	sink := &fakeSink{}
	d, _ := newDeliverer(sink, store, 3)

	out, err := d.Replay(context.Background(), store, ev.EventID)
	if err != nil || out != Delivered {
		t.Fatalf("out=%s err=%v", out, err)
	}
	if sink.count() != 1 || len(store.deleted) != 1 || store.deleted[0] != ev.EventID {
		t.Fatalf("calls=%d deleted=%v", sink.count(), store.deleted)
	}
}

func TestReplay_FailureKeepsRow(t *testing.T) {
	ev, row := storedEvent(t)
	store := &fakeReplayStore{fakeDeadLetters: fakeDeadLetters{rows: []repository.DeadLetter{row}}}
	boom := errors.New("still down")
	d, _ := newDeliverer(&fakeSink{errs: []error{boom, boom}}, store, 2)

	out, err := d.Replay(context.Background(), store, ev.EventID)
	if err != nil || out != DeadLettered {
		t.Fatalf("out=%s err=%v", out, err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("deleted=%v", store.deleted)
	}
}

func TestReplay_UnknownEvent(t *testing.T) {
	store := &fakeReplayStore{}
	d, _ := newDeliverer(&fakeSink{}, store, 1)
	if _, err := d.Replay(context.Background(), store, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}
