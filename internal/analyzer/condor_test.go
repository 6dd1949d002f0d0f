package analyzer

import (
	"context"
	"testing"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
)

func condorSnapshot() *models.ChainSnapshot {
	mkCall := func(strike, delta, bid, ask float64) models.OptionQuote {
		return models.OptionQuote{
			Strike: strike, Expiration: expiry(), Type: models.Call,
			Delta: delta, Bid: bid, Ask: ask, Mid: (bid + ask) / 2,
			IV: 14, Volume: 80, Gamma: 0.002, Theta: -1.8,
		}
	}
	mkPut := func(strike, delta, bid, ask float64) models.OptionQuote {
		return models.OptionQuote{
			Strike: strike, Expiration: expiry(), Type: models.Put,
			Delta: delta, Bid: bid, Ask: ask, Mid: (bid + ask) / 2,
			IV: 16, Volume: 70, Gamma: 0.002, Theta: -1.6,
		}
	}
	return &models.ChainSnapshot{
		Timestamp:       time.Now(),
		UnderlyingPrice: 4500,
		Calls: []models.OptionQuote{
			mkCall(4540, 0.15, 2.90, 3.00),
			mkCall(4560, 0.07, 0.45, 0.50),
		},
		Puts: []models.OptionQuote{
			mkPut(4440, -0.16, 3.20, 3.30),
			mkPut(4420, -0.08, 0.35, 0.40),
		},
	}
}

func TestFindCondorsBuildsQualifyingPair(t *testing.T) {
	p := DefaultCondorParams()
	trades := FindCondors(condorSnapshot(), p, time.Now())
	if len(trades) != 1 {
		t.Fatalf("expected one condor, got %d", len(trades))
	}

	c := trades[0]
	if c.ShortPut != 4440 || c.LongPut != 4420 || c.ShortCall != 4540 || c.LongCall != 4560 {
		t.Fatalf("unexpected legs: %+v", c)
	}
	// (3.20-0.40) + (2.90-0.50) = 5.20
	if c.Premium != 5.20 {
		t.Fatalf("premium = %v, want 5.20", c.Premium)
	}
	if c.MaxLoss != 14.80 {
		t.Fatalf("max loss = %v, want 14.80", c.MaxLoss)
	}
	if c.Strategy != "iron_condor" {
		t.Fatalf("strategy = %q", c.Strategy)
	}
	if c.Score <= 0 {
		t.Fatalf("qualifying condor must score above zero, got %v", c.Score)
	}
}

func TestFindCondorsSkipsMissingWing(t *testing.T) {
	snap := condorSnapshot()
	snap.Calls = snap.Calls[:1] // drop the 4560 wing
	p := DefaultCondorParams()
	if trades := FindCondors(snap, p, time.Now()); len(trades) != 0 {
		t.Fatalf("pair without an exact wing strike must be skipped, got %v", trades)
	}
}

func TestFindCondorsFiltersByPremiumAndRisk(t *testing.T) {
	p := DefaultCondorParams()

	snap := condorSnapshot()
	p.MinPremium = 6.00
	if trades := FindCondors(snap, p, time.Now()); len(trades) != 0 {
		t.Fatalf("premium below minimum must be rejected")
	}

	p = DefaultCondorParams()
	p.MaxRisk = 10.00
	if trades := FindCondors(snap, p, time.Now()); len(trades) != 0 {
		t.Fatalf("max loss above the risk cap must be rejected")
	}
}

func TestFindCondorsIgnoresZeroDelta(t *testing.T) {
	snap := condorSnapshot()
	snap.Calls[0].Delta = 0
	p := DefaultCondorParams()
	if trades := FindCondors(snap, p, time.Now()); len(trades) != 0 {
		t.Fatalf("zero-delta quote must not qualify as a short leg")
	}
}

func TestFindCondorsRanksAndCaps(t *testing.T) {
	snap := condorSnapshot()
	// Widen the short-leg population so every put/call cross qualifies.
	add := func(strike, delta, bid, ask float64, typ models.OptionType) {
		q := models.OptionQuote{
			Strike: strike, Expiration: expiry(), Type: typ,
			Delta: delta, Bid: bid, Ask: ask,
			IV: 15, Volume: 60, Gamma: 0.002, Theta: -1.5,
		}
		if typ == models.Call {
			snap.Calls = append(snap.Calls, q)
		} else {
			snap.Puts = append(snap.Puts, q)
		}
	}
	for i := 0; i < 3; i++ {
		s := 4530.0 - float64(i)*5
		add(s, 0.14+float64(i)*0.02, 1.5+float64(i)*0.3, 1.6+float64(i)*0.3, models.Call)
		add(s+20, 0, 0.4, 0.5, models.Call) // wings, delta 0 keeps them long-only
	}
	for i := 0; i < 3; i++ {
		s := 4450.0 + float64(i)*5
		add(s, -0.14-float64(i)*0.02, 1.5+float64(i)*0.3, 1.6+float64(i)*0.3, models.Put)
		add(s-20, 0, 0.4, 0.5, models.Put)
	}

	p := DefaultCondorParams()
	p.MaxRisk = 25
	trades := FindCondors(snap, p, time.Now())
	if len(trades) != topCondors {
		t.Fatalf("expected the ranked list capped at %d, got %d", topCondors, len(trades))
	}
	for i := 1; i < len(trades); i++ {
		if trades[i].Score > trades[i-1].Score {
			t.Fatalf("ranking not descending at %d: %v > %v", i, trades[i].Score, trades[i-1].Score)
		}
	}
}

func TestCondorAnalyzerValidatesParams(t *testing.T) {
	p := DefaultCondorParams()
	p.WingWidth = -5
	if _, err := NewCondorAnalyzer(&fakeSnapshots{}, p, &fakeMetrics{}, time.UTC, testLogger(t)); err == nil {
		t.Fatalf("invalid params must be rejected at construction")
	}
}

func TestCondorAnalyzerRunCycle(t *testing.T) {
	a, err := NewCondorAnalyzer(&fakeSnapshots{snap: condorSnapshot()}, DefaultCondorParams(), &fakeMetrics{}, time.UTC, testLogger(t))
	if err != nil {
		t.Fatalf("new condor analyzer: %v", err)
	}
	res := a.RunCycle(context.Background())
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.ScoredTrades) != 1 {
		t.Fatalf("expected one scored trade, got %d", len(res.ScoredTrades))
	}
	if got := a.Latest(); len(got.ScoredTrades) != 1 {
		t.Fatalf("latest must serve the cached cycle result")
	}
	if st := a.Status(); st.Analyzer != "condor" || st.RecordCount != 1 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestCondorAnalyzerNoData(t *testing.T) {
	a, err := NewCondorAnalyzer(&fakeSnapshots{err: domrepo.ErrNoData}, DefaultCondorParams(), &fakeMetrics{}, time.UTC, testLogger(t))
	if err != nil {
		t.Fatalf("new condor analyzer: %v", err)
	}
	res := a.RunCycle(context.Background())
	if res.Error != domrepo.ErrNoData.Error() {
		t.Fatalf("no-data cycle must carry the marker, got %q", res.Error)
	}
}
