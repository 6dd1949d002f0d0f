package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	pkgch "ChainPull/pkg/clickhouse"
)

// CHPositionEventStore journals ledger events.
type CHPositionEventStore struct {
	db    *sql.DB
	table string
}

func NewCHPositionEventStore(ch *pkgch.Client, table string) *CHPositionEventStore {
	return &CHPositionEventStore{db: ch.DB(), table: table}
}

func (s *CHPositionEventStore) Append(ctx context.Context, ev models.PositionEvent) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, event_type, position_id, payload) VALUES (?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, ev.Timestamp, ev.EventType, ev.PositionID, ev.Payload); err != nil {
		return fmt.Errorf("append position event: %w", err)
	}
	return nil
}

var _ domrepo.PositionEventStore = (*CHPositionEventStore)(nil)
