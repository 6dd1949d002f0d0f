package repository

import (
	"context"
	"errors"
	"time"

	"ChainPull/internal/domain/models"
)

// ErrNoData marks an empty or stale snapshot. Analyzers convert it into an
// explicit empty-result marker rather than propagating a fault.
var ErrNoData = errors.New("no chain data available")

// ChainStream is the upstream quote feed (websocket). The feed multiplexes
// per-strike chain rows and underlying spot ticks on one connection.
type ChainStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.ChainRow, <-chan *models.SpotTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher forwards chain rows onto the message bus.
type Publisher interface {
	Publish(ctx context.Context, r *models.ChainRow) error
	PublishBatch(ctx context.Context, rows []*models.ChainRow) error
	Close() error
}

// Storage persists raw chain rows and serves recent-window queries.
type Storage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, r *models.ChainRow) error
	StoreBatch(ctx context.Context, rows []*models.ChainRow) error
	StoreSpot(ctx context.Context, t *models.SpotTick) error
	Query(ctx context.Context, from, to time.Time, strikeMin, strikeMax float64, limit int) ([]*models.ChainRow, error)
	Health(ctx context.Context) error
	Close() error
}

// SnapshotStore supplies the most recent full chain snapshot and spot price.
type SnapshotStore interface {
	// Latest returns the normalized chain at the newest stream timestamp.
	// Returns ErrNoData when nothing recent enough exists.
	Latest(ctx context.Context) (*models.ChainSnapshot, error)
	// Spot returns the latest underlying price observation.
	Spot(ctx context.Context) (*models.SpotTick, error)
}

// SpreadStore appends credit-spread observations and serves a trading day's
// worth of them for aggregation.
type SpreadStore interface {
	Append(ctx context.Context, obs []models.CreditSpreadObservation) error
	Day(ctx context.Context, day time.Time) ([]models.CreditSpreadObservation, error)
	Count(ctx context.Context, day time.Time) (int, error)
}

// PositionEventStore journals ledger events; writes are best-effort.
type PositionEventStore interface {
	Append(ctx context.Context, ev models.PositionEvent) error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordMessageSent(backend, underlying string)
	RecordError(kind string)
	RecordUnderlyingPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordObservations(analyzer string, n int)
}
