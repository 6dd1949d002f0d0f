package analyzer

import (
	"fmt"
	"time"

	"ChainPull/internal/domain/models"
)

// Aggregator folds a day's credit observations into the time-window grid.
type Aggregator struct {
	loc *time.Location
}

// NewAggregator builds an aggregator pinned to the session clock.
func NewAggregator(loc *time.Location) *Aggregator {
	return &Aggregator{loc: loc}
}

type groupKey struct {
	typ    models.OptionType
	spread int
	window string
	bucket float64
}

type groupAcc struct {
	sum   float64
	high  float64
	low   float64
	count int
}

// Aggregate groups observations by (type, point spread, window, delta bucket)
// and computes Ave/High/Low of credit per group, rounded to two decimals.
// Groups with no observations are absent from the output: the grid never
// zero-fills, so consumers can tell "no data" from a recorded low credit.
// Aggregation is a pure fold; re-running over the same observations yields
// an identical grid.
func (a *Aggregator) Aggregate(obs []models.CreditSpreadObservation) models.SpreadGrid {
	groups := make(map[groupKey]*groupAcc)
	for _, o := range obs {
		w, ok := WindowFor(o.Timestamp.In(a.loc))
		if !ok {
			continue // outside the trading session
		}
		k := groupKey{typ: o.OptionType, spread: o.PointSpread, window: w.Label, bucket: o.DeltaBucket}
		g, ok := groups[k]
		if !ok {
			g = &groupAcc{high: o.Credit, low: o.Credit}
			groups[k] = g
		}
		g.sum += o.Credit
		g.count++
		if o.Credit > g.high {
			g.high = o.Credit
		}
		if o.Credit < g.low {
			g.low = o.Credit
		}
	}

	grid := make(models.SpreadGrid)
	for k, g := range groups {
		byType := ensure(grid, string(k.typ))
		bySpread := ensure(byType, SpreadLabel(k.spread))
		byWindow := ensure(bySpread, k.window)
		byWindow["Ave"] = setBucket(byWindow["Ave"], k.bucket, round(g.sum/float64(g.count), 2))
		byWindow["High"] = setBucket(byWindow["High"], k.bucket, round(g.high, 2))
		byWindow["Low"] = setBucket(byWindow["Low"], k.bucket, round(g.low, 2))
	}
	return grid
}

// SpreadLabel formats a point-spread grid key.
func SpreadLabel(points int) string { return fmt.Sprintf("%dpt", points) }

// BucketLabel formats a delta-bucket grid key.
func BucketLabel(bucket float64) string { return fmt.Sprintf("%.2f", bucket) }

func ensure[V any](m map[string]map[string]V, key string) map[string]V {
	if m[key] == nil {
		m[key] = make(map[string]V)
	}
	return m[key]
}

func setBucket(m map[string]float64, bucket, v float64) map[string]float64 {
	if m == nil {
		m = make(map[string]float64)
	}
	m[BucketLabel(bucket)] = v
	return m
}
