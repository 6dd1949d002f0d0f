package analyzer

import (
	"math"
	"testing"

	"ChainPull/internal/domain/models"
)

func scoringCandidate() models.TradeCandidate {
	return models.TradeCandidate{
		Premium:        1.00,
		MaxLoss:        19.00,
		ShortCallDelta: 0.15,
		ShortPutDelta:  -0.15,
		CallVolume:     60,
		PutVolume:      40,
		CallIV:         15,
		PutIV:          15,
		Gamma:          0.0025,
		Theta:          -2.5,
	}
}

func TestScoreCondorRubric(t *testing.T) {
	p := DefaultCondorParams()
	got := ScoreCondor(scoringCandidate(), p)

	// premium: min(1.00/0.50, 2)*50 = 100
	// risk/reward: min((1/19)/0.30, 1)*100 = 17.543859...
	// delta balance: perfectly balanced = 100
	// volume: min(100/100, 1)*100 = 100
	// volatility: min(15/30, 2)*50 = 25
	// greeks: (min(.0025/.005,1)*100 + min(2.5/5,1)*100)/2 = 50
	want := 100*0.25 + (1.0/19.0)/0.30*100*0.25 + 100*0.15 + 100*0.15 + 25*0.10 + 50*0.10
	want = math.Round(want*100) / 100
	if got != want {
		t.Fatalf("score = %v, want %v", got, want)
	}
}

func TestScoreCondorMonotoneInPremium(t *testing.T) {
	// Holding every other factor fixed, a richer premium never lowers the
	// score, and even 1000x the minimum premium stays inside the clamp.
	p := DefaultCondorParams()
	premiums := []float64{0.10, 0.50, 1.00, 1.50, 2.00, 5.00, 500.00}
	prev := -1.0
	for _, prem := range premiums {
		c := scoringCandidate()
		c.Premium = prem
		got := ScoreCondor(c, p)
		if got < prev {
			t.Fatalf("score decreased: premium %v scored %v after %v", prem, got, prev)
		}
		if got < 0 || got > 100 {
			t.Fatalf("score %v outside [0, 100] at premium %v", got, prem)
		}
		prev = got
	}
}

func TestScoreCondorCapsAt100(t *testing.T) {
	p := DefaultCondorParams()
	c := scoringCandidate()
	c.Premium = 10
	c.MaxLoss = 10
	c.CallVolume = 10000
	c.PutVolume = 10000
	c.CallIV = 90
	c.PutIV = 90
	c.Gamma = 0.05
	c.Theta = -50
	got := ScoreCondor(c, p)
	if got < 0 || got > 100 {
		t.Fatalf("score %v outside [0, 100]", got)
	}
}

func TestScoreCondorRejectsNonPositiveMaxLoss(t *testing.T) {
	p := DefaultCondorParams()
	c := scoringCandidate()
	c.MaxLoss = 0
	if got := ScoreCondor(c, p); got != 0 {
		t.Fatalf("zero max loss must score 0, got %v", got)
	}
	c.MaxLoss = -1
	if got := ScoreCondor(c, p); got != 0 {
		t.Fatalf("negative max loss must score 0, got %v", got)
	}
}

func TestScoreCondorRejectsNonFiniteInputs(t *testing.T) {
	p := DefaultCondorParams()
	for _, set := range []func(*models.TradeCandidate){
		func(c *models.TradeCandidate) { c.Premium = math.NaN() },
		func(c *models.TradeCandidate) { c.Gamma = math.Inf(1) },
		func(c *models.TradeCandidate) { c.Theta = math.NaN() },
		func(c *models.TradeCandidate) { c.CallIV = math.Inf(-1) },
	} {
		c := scoringCandidate()
		set(&c)
		if got := ScoreCondor(c, p); got != 0 {
			t.Fatalf("non-finite input must score 0, got %v", got)
		}
	}
}

func TestScoreWeightsValidate(t *testing.T) {
	w := DefaultCondorParams().Weights
	if err := w.Validate(); err != nil {
		t.Fatalf("default weights must validate: %v", err)
	}
	w.Premium = 0.5
	if err := w.Validate(); err == nil {
		t.Fatalf("expected validation failure for weights not summing to 1")
	}
}
