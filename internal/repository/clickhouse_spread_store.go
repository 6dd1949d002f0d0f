package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	pkgch "ChainPull/pkg/clickhouse"
	applogger "ChainPull/pkg/logger"
)

// CHSpreadStore appends credit-spread observations and serves a trading
// day's worth of them back for aggregation.
type CHSpreadStore struct {
	db    *sql.DB
	table string
	loc   *time.Location
	l     *applogger.Logger
}

func NewCHSpreadStore(ch *pkgch.Client, table string, loc *time.Location) *CHSpreadStore {
	return &CHSpreadStore{db: ch.DB(), table: table, loc: loc}
}

// SetLogger injects a structured logger.
func (s *CHSpreadStore) SetLogger(l *applogger.Logger) { s.l = l }

// Append inserts observations as one multi-row statement.
func (s *CHSpreadStore) Append(ctx context.Context, obs []models.CreditSpreadObservation) error {
	if len(obs) == 0 {
		return nil
	}
	values := make([]string, 0, len(obs))
	args := make([]interface{}, 0, len(obs)*5)
	for _, o := range obs {
		values = append(values, "(?, ?, ?, ?, ?)")
		args = append(args, o.Timestamp, string(o.OptionType), o.DeltaBucket, int32(o.PointSpread), o.Credit)
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, option_type, delta_bucket, point_spread, credit) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse spread insert error",
				applogger.Int("rows", len(obs)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append observations: %w", err)
	}
	return nil
}

// Day returns every observation recorded on the given session-local
// calendar day, oldest first.
func (s *CHSpreadStore) Day(ctx context.Context, day time.Time) ([]models.CreditSpreadObservation, error) {
	from, to := s.dayBounds(day)
	q := fmt.Sprintf(`SELECT ts, option_type, delta_bucket, point_spread, credit
        FROM %s WHERE ts >= ? AND ts < ? ORDER BY ts ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, fmt.Errorf("day observations: %w", err)
	}
	defer rows.Close()

	out := make([]models.CreditSpreadObservation, 0, 1024)
	for rows.Next() {
		var o models.CreditSpreadObservation
		var typ string
		var spread int32
		if err := rows.Scan(&o.Timestamp, &typ, &o.DeltaBucket, &spread, &o.Credit); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		// option_type is FixedString(4); strip the pad.
		o.OptionType = models.OptionType(strings.TrimRight(typ, "\x00 "))
		o.PointSpread = int(spread)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Count returns the number of observations recorded on the given day.
func (s *CHSpreadStore) Count(ctx context.Context, day time.Time) (int, error) {
	from, to := s.dayBounds(day)
	var n uint64
	q := fmt.Sprintf("SELECT count() FROM %s WHERE ts >= ? AND ts < ?", s.table)
	if err := s.db.QueryRowContext(ctx, q, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}
	return int(n), nil
}

func (s *CHSpreadStore) dayBounds(day time.Time) (time.Time, time.Time) {
	d := day.In(s.loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return from, from.Add(24 * time.Hour)
}

var _ domrepo.SpreadStore = (*CHSpreadStore)(nil)
