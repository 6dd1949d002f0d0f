package models

import "time"

// Position is one ledger entry. Entries are created by add-position calls,
// mutated only by close-position, and never deleted. The ledger is
// process-local; durable persistence is best-effort via the journal.
type Position struct {
	ID             string                 `json:"id"`
	Data           map[string]interface{} `json:"data"`
	Timestamp      time.Time              `json:"timestamp"`
	Closed         bool                   `json:"closed"`
	CloseTimestamp *time.Time             `json:"close_timestamp,omitempty"`
}

// Clone returns a shallow-safe copy so callers cannot mutate ledger state
// through returned records.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Data != nil {
		cp.Data = make(map[string]interface{}, len(p.Data))
		for k, v := range p.Data {
			cp.Data[k] = v
		}
	}
	if p.CloseTimestamp != nil {
		t := *p.CloseTimestamp
		cp.CloseTimestamp = &t
	}
	return &cp
}

// PositionEvent is an append-only ledger fact journaled to durable storage.
type PositionEvent struct {
	Timestamp  time.Time `json:"ts"`
	EventType  string    `json:"event_type"` // "open" | "close"
	PositionID string    `json:"position_id"`
	Payload    string    `json:"payload"` // JSON-encoded position data
}
