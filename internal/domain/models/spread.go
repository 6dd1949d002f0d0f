package models

import "time"

// CreditSpreadObservation is one append-only credit fact emitted by the
// delta-bucket spread engine. A row exists only for candidates with a
// strictly positive credit; non-positive candidates are dropped, never
// stored as zero.
type CreditSpreadObservation struct {
	Timestamp   time.Time  `json:"timestamp"`
	OptionType  OptionType `json:"option_type"`
	DeltaBucket float64    `json:"delta_bucket"`
	PointSpread int        `json:"point_spread"`
	Credit      float64    `json:"credit"`
}

// SpreadStat holds the aggregate credit statistics for one
// (type, point spread, time window, delta bucket) group.
type SpreadStat struct {
	Ave  float64 `json:"Ave"`
	High float64 `json:"High"`
	Low  float64 `json:"Low"`
}

// SpreadGrid is the aggregated credit-spread view consumed by the dashboard:
// option type -> point-spread label -> time-window label -> stat name ->
// delta-bucket label -> value. Windows with zero observations are absent
// from the map, preserving the distinction between "no data" and a recorded
// zero credit.
type SpreadGrid map[string]map[string]map[string]map[string]map[string]float64

// SpreadResult is the spread analyzer's cycle output.
type SpreadResult struct {
	Timestamp       time.Time  `json:"timestamp"`
	UnderlyingPrice float64    `json:"underlying_price"`
	Observations    int        `json:"observations"`
	Grid            SpreadGrid `json:"grid"`
	Error           string     `json:"error,omitempty"`
}
