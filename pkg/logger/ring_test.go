package logger

import (
	"fmt"
	"testing"
)

func TestLogRingNewestFirst(t *testing.T) {
	r := NewLogRing(10)
	r.Add("info", "first", nil)
	r.Add("warn", "second", nil)
	r.Add("error", "third", nil)

	got := r.Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Message != "third" || got[2].Message != "first" {
		t.Fatalf("entries not newest first: %v", got)
	}
	if r.Len() != 3 {
		t.Fatalf("len = %d, want 3", r.Len())
	}
}

func TestLogRingWraparound(t *testing.T) {
	r := NewLogRing(3)
	for i := 1; i <= 5; i++ {
		r.Add("info", fmt.Sprintf("msg-%d", i), nil)
	}
	if r.Len() != 3 {
		t.Fatalf("len = %d, want capacity 3", r.Len())
	}
	got := r.Recent(0)
	if got[0].Message != "msg-5" || got[1].Message != "msg-4" || got[2].Message != "msg-3" {
		t.Fatalf("wraparound kept wrong entries: %v", got)
	}
}

func TestLogRingLimit(t *testing.T) {
	r := NewLogRing(10)
	for i := 0; i < 6; i++ {
		r.Add("info", fmt.Sprintf("msg-%d", i), nil)
	}
	got := r.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(got))
	}
	if got[0].Message != "msg-5" {
		t.Fatalf("limited read must start at the newest entry, got %s", got[0].Message)
	}
}

func TestLogRingDefaultCapacity(t *testing.T) {
	r := NewLogRing(0)
	r.Add("info", "entry", nil)
	if r.Len() != 1 {
		t.Fatalf("zero capacity must fall back to the default")
	}
}

func TestLoggerFeedsRing(t *testing.T) {
	l, err := New(&Config{Level: "debug", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.AddRing(NewLogRing(5))

	l.Info("startup complete", String("component", "test"))
	l.Warn("slow cycle")
	l.Error("cycle failed", Error(fmt.Errorf("boom")))

	got := l.Ring().Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 ring entries, got %d", len(got))
	}
	if got[0].Level != "error" || got[2].Level != "info" {
		t.Fatalf("unexpected levels: %v", got)
	}
	if got[2].Fields["component"] != "test" {
		t.Fatalf("fields not retained: %v", got[2].Fields)
	}
}
