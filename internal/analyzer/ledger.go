package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"ChainPull/internal/domain/models"
	applogger "ChainPull/pkg/logger"
)

// Journal receives ledger events for best-effort durable recording.
type Journal interface {
	Record(ctx context.Context, ev models.PositionEvent) error
}

// OpResult is the structured outcome of a ledger operation. Ledger calls
// report success or error through it and never panic past the boundary.
type OpResult struct {
	Status     string           `json:"status"`
	Message    string           `json:"message,omitempty"`
	PositionID string           `json:"position_id,omitempty"`
	Position   *models.Position `json:"position,omitempty"`
}

// Ledger is the in-memory append-only position book. Entries are created by
// Add, mutated only by Close, never deleted. All access is mutex-guarded so
// the ledger can be shared between analyzers and request handlers.
type Ledger struct {
	mu        sync.RWMutex
	positions []*models.Position
	journal   Journal
	log       *applogger.Logger
}

func NewLedger(journal Journal, log *applogger.Logger) *Ledger {
	return &Ledger{journal: journal, log: log}
}

// Add opens a new position with a generated id and creation timestamp.
func (l *Ledger) Add(ctx context.Context, data map[string]interface{}) OpResult {
	p := &models.Position{
		ID:        uuid.NewString(),
		Data:      data,
		Timestamp: time.Now(),
	}

	l.mu.Lock()
	l.positions = append(l.positions, p)
	l.mu.Unlock()

	l.record(ctx, "open", p)
	l.log.Info("position opened", applogger.String("position_id", p.ID))
	return OpResult{Status: "success", PositionID: p.ID, Position: p.Clone()}
}

// Close marks the position closed and stamps the close time. An unknown id
// yields a structured error and mutates nothing.
func (l *Ledger) Close(ctx context.Context, id string) OpResult {
	l.mu.Lock()
	var found *models.Position
	for _, p := range l.positions {
		if p.ID == id {
			found = p
			break
		}
	}
	if found == nil {
		l.mu.Unlock()
		return OpResult{Status: "error", Message: fmt.Sprintf("position %s not found", id)}
	}
	if !found.Closed {
		now := time.Now()
		found.Closed = true
		found.CloseTimestamp = &now
	}
	snapshot := found.Clone()
	l.mu.Unlock()

	l.record(ctx, "close", snapshot)
	l.log.Info("position closed", applogger.String("position_id", id))
	return OpResult{Status: "success", PositionID: id, Position: snapshot}
}

// List returns positions filtered by status: open, closed, or all. Most
// recent first, capped at limit.
func (l *Ledger) List(status string, limit int) []*models.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*models.Position, 0, limit)
	for i := len(l.positions) - 1; i >= 0 && len(out) < limit; i-- {
		p := l.positions[i]
		switch status {
		case "open":
			if p.Closed {
				continue
			}
		case "closed":
			if !p.Closed {
				continue
			}
		}
		out = append(out, p.Clone())
	}
	return out
}

// Count returns the total number of ledger entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

func (l *Ledger) record(ctx context.Context, eventType string, p *models.Position) {
	if l.journal == nil {
		return
	}
	payload, err := json.Marshal(p)
	if err != nil {
		l.log.Warn("position journal encode failed", applogger.Error(err))
		return
	}
	ev := models.PositionEvent{
		Timestamp:  time.Now(),
		EventType:  eventType,
		PositionID: p.ID,
		Payload:    string(payload),
	}
	if err := l.journal.Record(ctx, ev); err != nil {
		// Journal writes are best-effort; the ledger stays authoritative.
		l.log.Warn("position journal record failed", applogger.Error(err))
	}
}
