package usecase

import (
	"context"
	"fmt"
	"time"

	"ChainPull/internal/domain/models"
	drepo "ChainPull/internal/domain/repository"
)

// ChainProcessor processes chain rows and routes them to the configured backend.
type ChainProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewChainProcessor creates a new ChainProcessor instance.
func NewChainProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *ChainProcessor {
	return &ChainProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process processes a single chain row and routes it to the configured backend.
func (p *ChainProcessor) Process(ctx context.Context, r *models.ChainRow) error {
	if r == nil {
		return fmt.Errorf("chain row is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, r)
	case "clickhouse":
		err = p.store.Store(ctx, r)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process chain row: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, r.Underlying)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch processes multiple chain rows in a batch.
func (p *ChainProcessor) ProcessBatch(ctx context.Context, rows []*models.ChainRow) error {
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, rows)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, rows)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, r := range rows {
		p.metrics.RecordMessageSent(p.backend, r.Underlying)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// ProcessSpot stores an underlying spot tick. Spot ticks always go to storage
// so the snapshot reader can resolve the latest underlying price.
func (p *ChainProcessor) ProcessSpot(ctx context.Context, t *models.SpotTick) error {
	if t == nil {
		return fmt.Errorf("spot tick is nil")
	}
	if err := p.store.StoreSpot(ctx, t); err != nil {
		p.metrics.RecordError("process_spot")
		return fmt.Errorf("process spot: %w", err)
	}
	p.metrics.RecordUnderlyingPrice(t.Symbol, t.Price)
	return nil
}

// Close closes underlying resources if available.
func (p *ChainProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
