package usecase

import (
	"context"
	"encoding/json"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	pkgkafka "ChainPull/pkg/kafka"
)

// KafkaChainHandler consumes chain-row messages from Kafka and writes them to storage.
type KafkaChainHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaChainHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaChainHandler {
	return &KafkaChainHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaChainHandler) Topic() string { return h.topic }

// Handle decodes one chain row and stores it.
func (h *KafkaChainHandler) Handle(ctx context.Context, b []byte) error {
	var r models.ChainRow
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if err := r.Validate(); err != nil {
		h.metrics.RecordError("consumer_validate")
		return err
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(r.Timestamp).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &r)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", r.Underlying)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaChainHandler)(nil)
