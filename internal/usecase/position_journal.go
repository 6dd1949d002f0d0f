package usecase

import (
	"context"
	"fmt"

	"ChainPull/internal/analyzer"
	"ChainPull/internal/domain/models"
	drepo "ChainPull/internal/domain/repository"
	"ChainPull/pkg/logger"
	"ChainPull/pkg/queue"
)

const positionEventType = "position_event"

// QueueJournal publishes position events onto the Redis queue so ledger
// writes never block on ClickHouse.
type QueueJournal struct {
	q queue.QueueService
}

func NewQueueJournal(q queue.QueueService) *QueueJournal {
	return &QueueJournal{q: q}
}

func (j *QueueJournal) Record(ctx context.Context, ev models.PositionEvent) error {
	return j.q.PublishMessage(ctx, positionEventType, ev)
}

// PositionEventJob consumes queued position events and persists them.
type PositionEventJob struct {
	store drepo.PositionEventStore
	l     *logger.Logger
}

func NewPositionEventJob(store drepo.PositionEventStore, l *logger.Logger) *PositionEventJob {
	return &PositionEventJob{store: store, l: l}
}

func (j *PositionEventJob) Name() string { return "position-event-writer" }

func (j *PositionEventJob) Type() string { return positionEventType }

func (j *PositionEventJob) Handle(ctx context.Context, payload interface{}) error {
	ev, err := queue.ParsePayload[models.PositionEvent](payload)
	if err != nil {
		return fmt.Errorf("parse position event: %w", err)
	}
	if err := j.store.Append(ctx, *ev); err != nil {
		return fmt.Errorf("append position event: %w", err)
	}
	j.l.Debug("position event persisted",
		logger.String("event_type", ev.EventType),
		logger.String("position_id", ev.PositionID))
	return nil
}

var _ queue.Job = (*PositionEventJob)(nil)
var _ analyzer.Journal = (*QueueJournal)(nil)
