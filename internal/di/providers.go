package di

import (
	"context"
	"fmt"
	"time"

	"ChainPull/internal/domain/repository"
	mid "ChainPull/internal/middleware"
	internalrepo "ChainPull/internal/repository"
	"ChainPull/internal/service/chainfeed"
	"ChainPull/internal/usecase"
	pkgch "ChainPull/pkg/clickhouse"
	"ChainPull/pkg/config"
	pkgkafka "ChainPull/pkg/kafka"
	applogger "ChainPull/pkg/logger"
	"ChainPull/pkg/metrics"
)

// Table names inside the configured database.
const (
	chainTable         = "option_stream"
	spotTable          = "spot"
	spreadMetricsTable = "credit_spread_metrics"
	positionEventTable = "position_events"
)

func tableRef(cfg *config.Config, name string) string {
	return cfg.ClickHouse.Database + "." + name
}

// ProvideLogger creates the application logger with a retention ring for the
// log inspection endpoint.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lcfg := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lcfg.Level == "" {
		lcfg.Level = "info"
	}
	if lcfg.Format == "" {
		lcfg.Format = "console"
	}
	if lcfg.Output == "" {
		lcfg.Output = "stdout"
	}
	l, err := applogger.New(lcfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AddRing(applogger.NewLogRing(cfg.Logging.MaxLogEntries))
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and initializes schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3), underlying String, exp_date Date, strike Float64,
			call_bid Float64, call_ask Float64, call_last Float64,
			call_delta Float64, call_gamma Float64, call_theta Float64, call_vega Float64,
			call_iv Float64, call_volume Int64, call_open_int Int64,
			put_bid Float64, put_ask Float64, put_last Float64,
			put_delta Float64, put_gamma Float64, put_theta Float64, put_vega Float64,
			put_iv Float64, put_volume Int64, put_open_int Int64
		) ENGINE=MergeTree ORDER BY (ts, strike)`, db, chainTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3), symbol String, price Float64
		) ENGINE=MergeTree ORDER BY ts`, db, spotTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3), option_type FixedString(4),
			delta_bucket Float64, point_spread Int32, credit Float64
		) ENGINE=MergeTree ORDER BY ts`, db, spreadMetricsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ts DateTime64(3), event_type String, position_id String, payload String
		) ENGINE=MergeTree ORDER BY ts`, db, positionEventTable),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideChainStorage creates ClickHouse storage for raw chain rows.
func ProvideChainStorage(chClient *pkgch.Client, cfg *config.Config) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB(), tableRef(cfg, chainTable), tableRef(cfg, spotTable))
}

// ProvideChainPublisher creates a Kafka publisher for chain rows.
func ProvideChainPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaChainHandler registers the handler for the chain-rows topic.
func ProvideKafkaChainHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaChainHandler {
	return usecase.NewKafkaChainHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideChainStream creates the chain WebSocket stream.
func ProvideChainStream(cfg *config.Config) repository.ChainStream {
	return chainfeed.New(
		cfg.ChainFeed.APIKey,
		cfg.ChainFeed.WebSocketURL,
		cfg.ChainFeed.Underlyings,
		cfg.ChainFeed.ReconnectDelay,
		cfg.ChainFeed.PingInterval,
	)
}

// ProvideChainProcessor creates the chain processor use case.
func ProvideChainProcessor(
	pub repository.Publisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ChainProcessor {
	return usecase.NewChainProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideChainCollector creates the chain collector use case.
func ProvideChainCollector(
	stream repository.ChainStream,
	processor *usecase.ChainProcessor,
	metrics repository.Metrics,
) *usecase.ChainCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewChainCollector(stream, processor, metrics, pipe)
}
