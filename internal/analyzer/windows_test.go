package analyzer

import (
	"testing"
	"time"
)

func sessionTime(t *testing.T, hour, minute int) time.Time {
	t.Helper()
	loc, err := SessionLocation()
	if err != nil {
		t.Fatalf("load session location: %v", err)
	}
	return time.Date(2026, 3, 2, hour, minute, 0, 0, loc)
}

func TestWindowForBoundaryBelongsToNextWindow(t *testing.T) {
	w, ok := WindowFor(sessionTime(t, 9, 30))
	if !ok {
		t.Fatalf("expected in-session window")
	}
	if w.Label != "09:30-10:00" {
		t.Fatalf("expected 09:30-10:00, got %s", w.Label)
	}
}

func TestWindowForOpenAndClose(t *testing.T) {
	w, ok := WindowFor(sessionTime(t, 8, 30))
	if !ok || w.Label != "08:30-08:45" {
		t.Fatalf("expected first window at the open, got %v %v", w.Label, ok)
	}
	w, ok = WindowFor(sessionTime(t, 14, 59))
	if !ok || w.Label != "14:45-15:00" {
		t.Fatalf("expected last window before the close, got %v %v", w.Label, ok)
	}
}

func TestWindowForOutsideSession(t *testing.T) {
	if _, ok := WindowFor(sessionTime(t, 8, 29)); ok {
		t.Fatalf("pre-open minute must not map to a window")
	}
	if _, ok := WindowFor(sessionTime(t, 15, 0)); ok {
		t.Fatalf("the close itself is outside the session")
	}
	if _, ok := WindowFor(sessionTime(t, 3, 12)); ok {
		t.Fatalf("overnight time must not map to a window")
	}
}

func TestSessionWindowsAreContiguous(t *testing.T) {
	if len(SessionWindows) != 16 {
		t.Fatalf("expected 16 windows, got %d", len(SessionWindows))
	}
	prev := 510
	for _, w := range SessionWindows {
		if w.Start != prev {
			t.Fatalf("gap before %s: start %d, want %d", w.Label, w.Start, prev)
		}
		if w.End <= w.Start {
			t.Fatalf("window %s is empty", w.Label)
		}
		prev = w.End
	}
	if prev != 900 {
		t.Fatalf("session must end at minute 900, got %d", prev)
	}
}
