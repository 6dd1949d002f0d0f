package analyzer

import (
	"fmt"
	"math"
)

// DeltaBuckets are the target absolute deltas the spread engine anchors on.
var DeltaBuckets = []float64{0.10, 0.14, 0.18, 0.22, 0.25, 0.30, 0.35, 0.40, 0.50, 0.60, 0.70}

// PointSpreads are the fixed spread widths, in index points.
var PointSpreads = []int{5, 10, 15, 20, 25}

// DeltaRange bounds the absolute delta of a qualifying short leg.
type DeltaRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r DeltaRange) Validate() error {
	if r.Min <= 0 || r.Max <= r.Min || r.Max > 1 {
		return fmt.Errorf("invalid delta range [%v, %v]", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether |delta| falls inside the range, inclusive.
func (r DeltaRange) Contains(delta float64) bool {
	ad := math.Abs(delta)
	return ad >= r.Min && ad <= r.Max
}

// ScoreWeights are the condor scoring factor weights; they must sum to 1.
type ScoreWeights struct {
	Premium         float64 `yaml:"premium"`
	RiskReward      float64 `yaml:"risk_reward"`
	DeltaBalance    float64 `yaml:"delta_balance"`
	VolumeLiquidity float64 `yaml:"volume_liquidity"`
	Volatility      float64 `yaml:"volatility"`
	Greeks          float64 `yaml:"greeks"`
}

func (w ScoreWeights) Validate() error {
	sum := w.Premium + w.RiskReward + w.DeltaBalance + w.VolumeLiquidity + w.Volatility + w.Greeks
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("score weights sum to %v, want 1.0", sum)
	}
	return nil
}

// CondorParams parameterizes the iron-condor search.
type CondorParams struct {
	DeltaRange DeltaRange   `yaml:"delta_range"`
	WingWidth  float64      `yaml:"wing_width"`
	MinPremium float64      `yaml:"min_premium"`
	MaxRisk    float64      `yaml:"max_risk"`
	Weights    ScoreWeights `yaml:"scoring_weights"`
}

func (p CondorParams) Validate() error {
	if err := p.DeltaRange.Validate(); err != nil {
		return err
	}
	if p.WingWidth <= 0 {
		return fmt.Errorf("wing width must be positive: %v", p.WingWidth)
	}
	if p.MinPremium <= 0 {
		return fmt.Errorf("min premium must be positive: %v", p.MinPremium)
	}
	if p.MaxRisk <= 0 {
		return fmt.Errorf("max risk must be positive: %v", p.MaxRisk)
	}
	return p.Weights.Validate()
}

// DefaultCondorParams returns the fixed production parameter set.
func DefaultCondorParams() CondorParams {
	return CondorParams{
		DeltaRange: DeltaRange{Min: 0.12, Max: 0.22},
		WingWidth:  20,
		MinPremium: 0.50,
		MaxRisk:    15.00,
		Weights: ScoreWeights{
			Premium:         0.25,
			RiskReward:      0.25,
			DeltaBalance:    0.15,
			VolumeLiquidity: 0.15,
			Volatility:      0.10,
			Greeks:          0.10,
		},
	}
}

// Tier names the short-vertical aggressiveness tiers.
type Tier string

const (
	TierAggressive   Tier = "aggressive"
	TierModerate     Tier = "moderate"
	TierConservative Tier = "conservative"
)

// VerticalParams parameterizes one short-vertical tier.
type VerticalParams struct {
	Tier       Tier       `yaml:"tier"`
	DeltaRange DeltaRange `yaml:"delta_range"`
	WingWidth  float64    `yaml:"wing_width"`
	MinPremium float64    `yaml:"min_premium"`
}

func (p VerticalParams) Validate() error {
	switch p.Tier {
	case TierAggressive, TierModerate, TierConservative:
	default:
		return fmt.Errorf("unknown tier: %s", p.Tier)
	}
	if err := p.DeltaRange.Validate(); err != nil {
		return err
	}
	if p.WingWidth <= 0 {
		return fmt.Errorf("wing width must be positive: %v", p.WingWidth)
	}
	if p.MinPremium <= 0 {
		return fmt.Errorf("min premium must be positive: %v", p.MinPremium)
	}
	return nil
}

// VerticalTiers returns the three fixed tiers, most aggressive first.
func VerticalTiers() []VerticalParams {
	return []VerticalParams{
		{Tier: TierAggressive, DeltaRange: DeltaRange{Min: 0.38, Max: 0.52}, WingWidth: 10, MinPremium: 0.60},
		{Tier: TierModerate, DeltaRange: DeltaRange{Min: 0.18, Max: 0.28}, WingWidth: 15, MinPremium: 0.40},
		{Tier: TierConservative, DeltaRange: DeltaRange{Min: 0.07, Max: 0.13}, WingWidth: 25, MinPremium: 0.25},
	}
}
