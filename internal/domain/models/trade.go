package models

import "time"

// TradeCandidate is an ephemeral structured-trade candidate. Candidates are
// recomputed on every analysis tick and never merged across ticks; only the
// current top-N survive in memory.
type TradeCandidate struct {
	Strategy        string    `json:"strategy"`
	Tier            string    `json:"tier,omitempty"`
	UnderlyingPrice float64   `json:"underlying_price"`
	ShortPut        float64   `json:"short_put,omitempty"`
	LongPut         float64   `json:"long_put,omitempty"`
	ShortCall       float64   `json:"short_call,omitempty"`
	LongCall        float64   `json:"long_call,omitempty"`
	Premium         float64   `json:"premium"`
	MaxLoss         float64   `json:"max_loss"`
	RewardToRisk    float64   `json:"reward_to_risk"`
	ShortCallDelta  float64   `json:"short_call_delta,omitempty"`
	LongCallDelta   float64   `json:"long_call_delta,omitempty"`
	ShortPutDelta   float64   `json:"short_put_delta,omitempty"`
	LongPutDelta    float64   `json:"long_put_delta,omitempty"`
	CallVolume      int64     `json:"call_volume,omitempty"`
	PutVolume       int64     `json:"put_volume,omitempty"`
	CallIV          float64   `json:"call_iv,omitempty"`
	PutIV           float64   `json:"put_iv,omitempty"`
	Gamma           float64   `json:"gamma"`
	Theta           float64   `json:"theta"`
	Score           float64   `json:"score,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// CondorResult is the iron-condor analyzer's cycle output.
type CondorResult struct {
	Timestamp       time.Time        `json:"timestamp"`
	UnderlyingPrice float64          `json:"underlying_price"`
	ScoredTrades    []TradeCandidate `json:"scored_trades"`
	Error           string           `json:"error,omitempty"`
}

// VerticalResult is the short-vertical analyzer's cycle output; one best
// candidate per (tier, option type), nil when no candidate qualified.
type VerticalResult struct {
	Timestamp       time.Time                             `json:"timestamp"`
	UnderlyingPrice float64                               `json:"underlying_price"`
	Opportunities   map[string]map[string]*TradeCandidate `json:"opportunities"`
	Error           string                                `json:"error,omitempty"`
}
