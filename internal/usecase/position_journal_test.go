package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ChainPull/internal/domain/models"
	"ChainPull/pkg/logger"
)

type fakeQueue struct {
	msgType string
	payload interface{}
	err     error
}

func (f *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	f.msgType = msgType
	f.payload = payload
	return f.err
}

type fakeEventStore struct {
	events []models.PositionEvent
	err    error
}

func (f *fakeEventStore) Append(_ context.Context, ev models.PositionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func journalTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("build test logger: %v", err)
	}
	return l
}

func sampleEvent() models.PositionEvent {
	return models.PositionEvent{
		Timestamp:  time.Now(),
		EventType:  "open",
		PositionID: "pos-1",
		Payload:    `{"id":"pos-1"}`,
	}
}

func TestQueueJournalPublishes(t *testing.T) {
	q := &fakeQueue{}
	j := NewQueueJournal(q)

	ev := sampleEvent()
	if err := j.Record(context.Background(), ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	if q.msgType != positionEventType {
		t.Fatalf("message type = %q, want %q", q.msgType, positionEventType)
	}
	got, ok := q.payload.(models.PositionEvent)
	if !ok {
		t.Fatalf("payload type %T", q.payload)
	}
	if got.PositionID != ev.PositionID || got.EventType != "open" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestQueueJournalPropagatesPublishError(t *testing.T) {
	q := &fakeQueue{err: errors.New("queue full")}
	if err := NewQueueJournal(q).Record(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestPositionEventJobPersists(t *testing.T) {
	store := &fakeEventStore{}
	job := NewPositionEventJob(store, journalTestLogger(t))

	if job.Type() != positionEventType {
		t.Fatalf("job type = %q", job.Type())
	}

	if err := job.Handle(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.events) != 1 || store.events[0].PositionID != "pos-1" {
		t.Fatalf("event not persisted: %+v", store.events)
	}
}

func TestPositionEventJobDecodesMapPayload(t *testing.T) {
	store := &fakeEventStore{}
	job := NewPositionEventJob(store, journalTestLogger(t))

	// Payloads round-tripped through Redis arrive as generic maps.
	payload := map[string]interface{}{
		"event_type":  "close",
		"position_id": "pos-2",
		"payload":     `{"id":"pos-2"}`,
	}
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.events) != 1 || store.events[0].EventType != "close" {
		t.Fatalf("map payload not decoded: %+v", store.events)
	}
}

func TestPositionEventJobStoreFailure(t *testing.T) {
	store := &fakeEventStore{err: errors.New("clickhouse down")}
	job := NewPositionEventJob(store, journalTestLogger(t))
	if err := job.Handle(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected append error to surface for retry")
	}
}
