package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ChainPull/internal/domain/models"
)

type fakeJournal struct {
	events []models.PositionEvent
	err    error
}

func (f *fakeJournal) Record(_ context.Context, ev models.PositionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func TestLedgerAddCloseFlow(t *testing.T) {
	j := &fakeJournal{}
	l := NewLedger(j, testLogger(t))
	ctx := context.Background()

	res := l.Add(ctx, map[string]interface{}{"strategy": "iron_condor", "premium": 5.20})
	if res.Status != "success" || res.PositionID == "" {
		t.Fatalf("unexpected add result: %+v", res)
	}
	if res.Position == nil || res.Position.Closed {
		t.Fatalf("new position must be open: %+v", res.Position)
	}

	closed := l.Close(ctx, res.PositionID)
	if closed.Status != "success" {
		t.Fatalf("unexpected close result: %+v", closed)
	}
	if !closed.Position.Closed || closed.Position.CloseTimestamp == nil {
		t.Fatalf("closed position missing close state: %+v", closed.Position)
	}

	if len(j.events) != 2 {
		t.Fatalf("expected open and close journal events, got %d", len(j.events))
	}
	if j.events[0].EventType != "open" || j.events[1].EventType != "close" {
		t.Fatalf("unexpected event types: %+v", j.events)
	}
	var p models.Position
	if err := json.Unmarshal([]byte(j.events[0].Payload), &p); err != nil {
		t.Fatalf("journal payload must be the encoded position: %v", err)
	}
	if p.ID != res.PositionID {
		t.Fatalf("payload id %s, want %s", p.ID, res.PositionID)
	}
}

func TestLedgerCloseUnknownID(t *testing.T) {
	l := NewLedger(nil, testLogger(t))
	res := l.Close(context.Background(), "missing")
	if res.Status != "error" || res.Message == "" {
		t.Fatalf("unknown id must yield a structured error: %+v", res)
	}
	if l.Count() != 0 {
		t.Fatalf("failed close must not mutate the ledger")
	}
}

func TestLedgerCloseIdempotent(t *testing.T) {
	l := NewLedger(nil, testLogger(t))
	ctx := context.Background()
	res := l.Add(ctx, nil)

	first := l.Close(ctx, res.PositionID)
	second := l.Close(ctx, res.PositionID)
	if second.Status != "success" {
		t.Fatalf("repeat close must succeed: %+v", second)
	}
	if !first.Position.CloseTimestamp.Equal(*second.Position.CloseTimestamp) {
		t.Fatalf("repeat close must not restamp the close time")
	}
}

func TestLedgerListFiltersAndOrders(t *testing.T) {
	l := NewLedger(nil, testLogger(t))
	ctx := context.Background()

	a := l.Add(ctx, map[string]interface{}{"n": 1})
	b := l.Add(ctx, map[string]interface{}{"n": 2})
	c := l.Add(ctx, map[string]interface{}{"n": 3})
	l.Close(ctx, b.PositionID)

	all := l.List("all", 10)
	if len(all) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(all))
	}
	if all[0].ID != c.PositionID || all[2].ID != a.PositionID {
		t.Fatalf("list must be most recent first")
	}

	open := l.List("open", 10)
	if len(open) != 2 {
		t.Fatalf("expected 2 open positions, got %d", len(open))
	}
	for _, p := range open {
		if p.Closed {
			t.Fatalf("open filter leaked a closed position")
		}
	}

	closed := l.List("closed", 10)
	if len(closed) != 1 || closed[0].ID != b.PositionID {
		t.Fatalf("unexpected closed list: %+v", closed)
	}

	if got := l.List("all", 2); len(got) != 2 {
		t.Fatalf("limit not applied, got %d", len(got))
	}
	if l.Count() != 3 {
		t.Fatalf("count = %d, want 3", l.Count())
	}
}

func TestLedgerListCopiesPositions(t *testing.T) {
	l := NewLedger(nil, testLogger(t))
	res := l.Add(context.Background(), map[string]interface{}{"n": 1})

	out := l.List("all", 1)
	out[0].Data["n"] = 99
	out[0].Closed = true

	again := l.List("all", 1)
	if again[0].Data["n"] != 1 || again[0].Closed {
		t.Fatalf("list must return copies, ledger state mutated for %s", res.PositionID)
	}
}

func TestLedgerJournalFailureBestEffort(t *testing.T) {
	j := &fakeJournal{err: errors.New("redis down")}
	l := NewLedger(j, testLogger(t))

	res := l.Add(context.Background(), nil)
	if res.Status != "success" {
		t.Fatalf("journal failure must not fail the ledger op: %+v", res)
	}
	if l.Count() != 1 {
		t.Fatalf("position must still be recorded in memory")
	}
}
