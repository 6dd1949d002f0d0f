package analyzer

import (
	"context"
	"testing"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
)

func verticalSnapshot() *models.ChainSnapshot {
	mk := func(typ models.OptionType, strike, delta, bid, ask float64) models.OptionQuote {
		return models.OptionQuote{
			Strike: strike, Expiration: expiry(), Type: typ,
			Delta: delta, Bid: bid, Ask: ask,
			IV: 15, Volume: 50, Gamma: 0.002, Theta: -1.5,
		}
	}
	return &models.ChainSnapshot{
		UnderlyingPrice: 4500,
		Calls: []models.OptionQuote{
			mk(models.Call, 4505, 0.45, 6.00, 6.20),
			mk(models.Call, 4510, 0.40, 4.80, 5.00),
			mk(models.Call, 4515, 0.35, 3.80, 4.00),
			mk(models.Call, 4520, 0.30, 3.00, 3.20),
			mk(models.Call, 4525, 0.25, 2.30, 2.50),
		},
		Puts: []models.OptionQuote{
			mk(models.Put, 4495, -0.45, 6.10, 6.30),
			mk(models.Put, 4490, -0.40, 4.90, 5.10),
			mk(models.Put, 4485, -0.35, 3.90, 4.10),
			mk(models.Put, 4480, -0.30, 3.10, 3.30),
			mk(models.Put, 4475, -0.25, 2.40, 2.60),
		},
	}
}

func aggressiveTier() VerticalParams {
	return VerticalTiers()[0]
}

func TestFindVerticalPicksBestPremium(t *testing.T) {
	snap := verticalSnapshot()
	best := FindVertical(snap, models.Call, aggressiveTier(), time.Now())
	if best == nil {
		t.Fatalf("expected a call vertical")
	}
	// Qualifying shorts are 4505 (0.45) and 4510 (0.40); the 4505 short
	// pays 6.00 - 4.00 = 2.00 against the 4515 long, beating 4.80 - 3.20.
	if best.ShortCall != 4505 || best.LongCall != 4515 {
		t.Fatalf("unexpected legs: short %v long %v", best.ShortCall, best.LongCall)
	}
	if best.Premium != 2.00 {
		t.Fatalf("premium = %v, want 2.00", best.Premium)
	}
	if best.Strategy != "short_vertical_call" {
		t.Fatalf("strategy = %q", best.Strategy)
	}
	if best.Tier != string(TierAggressive) {
		t.Fatalf("tier = %q", best.Tier)
	}
}

func TestFindVerticalPutLegDirection(t *testing.T) {
	snap := verticalSnapshot()
	best := FindVertical(snap, models.Put, aggressiveTier(), time.Now())
	if best == nil {
		t.Fatalf("expected a put vertical")
	}
	if best.LongPut >= best.ShortPut {
		t.Fatalf("put long leg must sit below the short: %v >= %v", best.LongPut, best.ShortPut)
	}
	if best.ShortPut-best.LongPut != aggressiveTier().WingWidth {
		t.Fatalf("leg separation %v, want %v", best.ShortPut-best.LongPut, aggressiveTier().WingWidth)
	}
}

func TestFindVerticalRespectsMinPremium(t *testing.T) {
	p := aggressiveTier()
	p.MinPremium = 5.00
	if got := FindVertical(verticalSnapshot(), models.Call, p, time.Now()); got != nil {
		t.Fatalf("premium below the tier minimum must yield nil, got %+v", got)
	}
}

func TestFindVerticalMissingWingYieldsNil(t *testing.T) {
	snap := verticalSnapshot()
	snap.Calls = snap.Calls[:2] // shorts with no strikes 10 points above
	if got := FindVertical(snap, models.Call, aggressiveTier(), time.Now()); got != nil {
		t.Fatalf("missing exact wing strike must yield nil, got %+v", got)
	}
}

func TestVerticalAnalyzerValidatesTiers(t *testing.T) {
	bad := []VerticalParams{{Tier: "reckless", DeltaRange: DeltaRange{Min: 0.1, Max: 0.2}, WingWidth: 10, MinPremium: 0.5}}
	if _, err := NewVerticalAnalyzer(&fakeSnapshots{}, bad, &fakeMetrics{}, time.UTC, testLogger(t)); err == nil {
		t.Fatalf("unknown tier must be rejected at construction")
	}
}

func TestVerticalAnalyzerRunCycle(t *testing.T) {
	a, err := NewVerticalAnalyzer(&fakeSnapshots{snap: verticalSnapshot()}, VerticalTiers(), &fakeMetrics{}, time.UTC, testLogger(t))
	if err != nil {
		t.Fatalf("new vertical analyzer: %v", err)
	}
	res := a.RunCycle(context.Background())
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if len(res.Opportunities) != len(VerticalTiers()) {
		t.Fatalf("expected one entry per tier, got %d", len(res.Opportunities))
	}
	for tier, byType := range res.Opportunities {
		if len(byType) != 2 {
			t.Fatalf("tier %s must carry both option sides, got %d", tier, len(byType))
		}
	}
	if res.Opportunities[string(TierAggressive)]["call"] == nil {
		t.Fatalf("expected an aggressive call opportunity")
	}
}

func TestVerticalAnalyzerNoData(t *testing.T) {
	a, err := NewVerticalAnalyzer(&fakeSnapshots{err: domrepo.ErrNoData}, VerticalTiers(), &fakeMetrics{}, time.UTC, testLogger(t))
	if err != nil {
		t.Fatalf("new vertical analyzer: %v", err)
	}
	res := a.RunCycle(context.Background())
	if res.Error != domrepo.ErrNoData.Error() {
		t.Fatalf("no-data cycle must carry the marker, got %q", res.Error)
	}
	if got := a.Latest(); got.Error != res.Error {
		t.Fatalf("latest must serve the cached error result")
	}
}
