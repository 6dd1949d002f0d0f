package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	pkgch "ChainPull/pkg/clickhouse"
	applogger "ChainPull/pkg/logger"
)

// CHSnapshotStore reads the most recent full chain snapshot from ClickHouse
// and normalizes raw rows into typed quotes with derived mid prices.
type CHSnapshotStore struct {
	db        *sql.DB
	table     string
	spotTable string
	staleness time.Duration
	l         *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client, table, spotTable string, staleness time.Duration) *CHSnapshotStore {
	if staleness <= 0 {
		staleness = 5 * time.Minute
	}
	return &CHSnapshotStore{db: ch.DB(), table: table, spotTable: spotTable, staleness: staleness}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

// Latest returns the normalized chain at the newest stream timestamp within
// the staleness cutoff, or ErrNoData.
func (s *CHSnapshotStore) Latest(ctx context.Context) (*models.ChainSnapshot, error) {
	start := time.Now()
	cutoff := time.Now().Add(-s.staleness)

	var maxTS time.Time
	q := fmt.Sprintf("SELECT max(ts) FROM %s WHERE ts >= ?", s.table)
	if err := s.db.QueryRowContext(ctx, q, cutoff).Scan(&maxTS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrNoData
		}
		return nil, fmt.Errorf("latest snapshot ts: %w", err)
	}
	if maxTS.IsZero() || maxTS.Before(cutoff) {
		return nil, domrepo.ErrNoData
	}

	const cols = `ts, underlying, exp_date, strike,
        call_bid, call_ask, call_last, call_delta, call_gamma, call_theta, call_vega, call_iv, call_volume, call_open_int,
        put_bid, put_ask, put_last, put_delta, put_gamma, put_theta, put_vega, put_iv, put_volume, put_open_int`
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE ts = ? ORDER BY strike ASC", cols, s.table), maxTS)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse snapshot query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("snapshot rows: %w", err)
	}
	defer rows.Close()

	snap := &models.ChainSnapshot{Timestamp: maxTS}
	n := 0
	for rows.Next() {
		var r models.ChainRow
		if err := rows.Scan(
			&r.Timestamp, &r.Underlying, &r.Expiration, &r.Strike,
			&r.CallBid, &r.CallAsk, &r.CallLast, &r.CallDelta, &r.CallGamma, &r.CallTheta, &r.CallVega, &r.CallIV, &r.CallVolume, &r.CallOI,
			&r.PutBid, &r.PutAsk, &r.PutLast, &r.PutDelta, &r.PutGamma, &r.PutTheta, &r.PutVega, &r.PutIV, &r.PutVolume, &r.PutOI,
		); err != nil {
			return nil, fmt.Errorf("scan chain row: %w", err)
		}
		snap.Calls = append(snap.Calls, r.CallQuote())
		snap.Puts = append(snap.Puts, r.PutQuote())
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if n == 0 {
		return nil, domrepo.ErrNoData
	}

	if spot, err := s.Spot(ctx); err == nil {
		snap.UnderlyingPrice = spot.Price
	} else if s.l != nil && !errors.Is(err, domrepo.ErrNoData) {
		s.l.Warn("clickhouse spot query error", applogger.Error(err))
	}

	if s.l != nil {
		s.l.Debug("clickhouse snapshot ok",
			applogger.Int("strikes", n),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return snap, nil
}

// Spot returns the latest underlying price observation.
func (s *CHSnapshotStore) Spot(ctx context.Context) (*models.SpotTick, error) {
	q := fmt.Sprintf("SELECT ts, symbol, price FROM %s ORDER BY ts DESC LIMIT 1", s.spotTable)
	var t models.SpotTick
	if err := s.db.QueryRowContext(ctx, q).Scan(&t.Timestamp, &t.Symbol, &t.Price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domrepo.ErrNoData
		}
		return nil, fmt.Errorf("spot: %w", err)
	}
	return &t, nil
}

var _ domrepo.SnapshotStore = (*CHSnapshotStore)(nil)
