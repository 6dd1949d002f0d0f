package analyzer

import (
	"math"

	"ChainPull/internal/domain/models"
)

// topCondors caps the ranked list returned per cycle.
const topCondors = 5

// ScoreCondor rates an iron-condor candidate from 0 to 100 using the fixed
// six-factor rubric. Invalid inputs (non-positive max loss, non-finite
// greeks) deterministically score zero; scoring never panics.
func ScoreCondor(t models.TradeCandidate, p CondorParams) float64 {
	if !scorable(t) {
		return 0
	}

	premiumScore := math.Min(t.Premium/p.MinPremium, 2.0) * 50

	rrScore := math.Min((t.Premium/t.MaxLoss)/0.30, 1.0) * 100

	// Target < 0.05 difference between short-leg deltas.
	deltaDiff := math.Abs(math.Abs(t.ShortCallDelta) - math.Abs(t.ShortPutDelta))
	deltaScore := (1 - math.Min(deltaDiff/0.05, 1.0)) * 100

	volumeScore := math.Min(float64(t.CallVolume+t.PutVolume)/100, 1.0) * 100

	avgIV := (t.CallIV + t.PutIV) / 2
	ivScore := math.Min(avgIV/30, 2.0) * 50

	gammaScore := math.Min(t.Gamma/0.005, 1.0) * 100
	thetaScore := math.Min(math.Abs(t.Theta)/5, 1.0) * 100
	greeksScore := (gammaScore + thetaScore) / 2

	w := p.Weights
	score := premiumScore*w.Premium +
		rrScore*w.RiskReward +
		deltaScore*w.DeltaBalance +
		volumeScore*w.VolumeLiquidity +
		ivScore*w.Volatility +
		greeksScore*w.Greeks

	return math.Max(0, math.Min(100, round(score, 2)))
}

// scorable validates candidate inputs instead of relying on caught
// arithmetic failures: a division by zero or NaN greek must force a zero
// score, not a panic or a garbage rank.
func scorable(t models.TradeCandidate) bool {
	if t.MaxLoss <= 0 {
		return false
	}
	for _, v := range []float64{
		t.Premium, t.MaxLoss,
		t.ShortCallDelta, t.ShortPutDelta,
		t.CallIV, t.PutIV, t.Gamma, t.Theta,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
