package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ChainPull/internal/domain/models"
	"ChainPull/internal/domain/repository"
	pkgkafka "ChainPull/pkg/kafka"
)

// ClickHouseStorage implements Storage for raw chain rows and spot ticks.
type ClickHouseStorage struct {
	db        *sql.DB
	table     string
	spotTable string
}

// NewClickHouseStorage creates ClickHouse chain-row storage.
func NewClickHouseStorage(db *sql.DB, table, spotTable string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table, spotTable: spotTable}
}

func (s *ClickHouseStorage) StoreSpot(ctx context.Context, t *models.SpotTick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, price) VALUES (?, ?, ?)", s.spotTable)
	_, err := s.db.ExecContext(ctx, q, t.Timestamp, t.Symbol, t.Price)
	return err
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // schema init in pkg
}

const chainCols = `ts, underlying, exp_date, strike,
    call_bid, call_ask, call_last, call_delta, call_gamma, call_theta, call_vega, call_iv, call_volume, call_open_int,
    put_bid, put_ask, put_last, put_delta, put_gamma, put_theta, put_vega, put_iv, put_volume, put_open_int`

func chainArgs(r *models.ChainRow) []interface{} {
	return []interface{}{
		r.Timestamp, r.Underlying, r.Expiration, r.Strike,
		r.CallBid, r.CallAsk, r.CallLast, r.CallDelta, r.CallGamma, r.CallTheta, r.CallVega, r.CallIV, r.CallVolume, r.CallOI,
		r.PutBid, r.PutAsk, r.PutLast, r.PutDelta, r.PutGamma, r.PutTheta, r.PutVega, r.PutIV, r.PutVolume, r.PutOI,
	}
}

func (s *ClickHouseStorage) Store(ctx context.Context, r *models.ChainRow) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.table, chainCols, placeholders(24))
	_, err := s.db.ExecContext(ctx, q, chainArgs(r)...)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, rows []*models.ChainRow) error {
	if len(rows) == 0 {
		return nil
	}
	// Multi-row VALUES to reduce round-trips; chunked at 2000 rows.
	const chunkSize = 2000
	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*24)
		for _, r := range rows[start:end] {
			if r == nil || r.Validate() != nil {
				continue
			}
			values = append(values, "("+placeholders(24)+")")
			args = append(args, chainArgs(r)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, chainCols, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, from, to time.Time, strikeMin, strikeMax float64, limit int) ([]*models.ChainRow, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ts >= ? AND ts <= ?", chainCols, s.table)
	args := []interface{}{from, to}
	if strikeMin > 0 {
		q += " AND strike >= ?"
		args = append(args, strikeMin)
	}
	if strikeMax > 0 {
		q += " AND strike <= ?"
		args = append(args, strikeMax)
	}
	q += " ORDER BY ts DESC, strike ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ChainRow
	for rows.Next() {
		var r models.ChainRow
		if err := rows.Scan(
			&r.Timestamp, &r.Underlying, &r.Expiration, &r.Strike,
			&r.CallBid, &r.CallAsk, &r.CallLast, &r.CallDelta, &r.CallGamma, &r.CallTheta, &r.CallVega, &r.CallIV, &r.CallVolume, &r.CallOI,
			&r.PutBid, &r.PutAsk, &r.PutLast, &r.PutDelta, &r.PutGamma, &r.PutTheta, &r.PutVega, &r.PutIV, &r.PutVolume, &r.PutOI,
		); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // managed by pkg
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// KafkaPublisher implements Publisher for chain rows.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka chain-row publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.ChainRow) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Underlying), r)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, rows []*models.ChainRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(rows))
	for i, r := range rows {
		msgs[i] = pkgkafka.Message{Key: []byte(r.Underlying), Value: r}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
