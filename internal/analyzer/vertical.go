package analyzer

import (
	"context"
	"errors"
	"sync"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	applogger "ChainPull/pkg/logger"
)

// FindVertical searches one option side for the best short vertical under
// the tier's parameters: short leg delta inside the tier range, long leg at
// exactly wing_width beyond (above for calls, below for puts), premium of
// short bid minus long ask at or above the tier minimum. Returns the single
// highest-premium candidate, or nil when nothing qualifies.
func FindVertical(snap *models.ChainSnapshot, typ models.OptionType, p VerticalParams, ts time.Time) *models.TradeCandidate {
	quotes := snap.Side(typ)
	var best *models.TradeCandidate
	for _, short := range filterByDelta(quotes, p.DeltaRange) {
		long, ok := quoteAtStrike(quotes, short.Strike+p.WingWidth*typ.Sign())
		if !ok {
			continue
		}

		premium := short.Bid - long.Ask
		if premium < p.MinPremium {
			continue
		}
		maxLoss := p.WingWidth - premium

		t := models.TradeCandidate{
			Strategy:        "short_vertical_" + string(typ),
			Tier:            string(p.Tier),
			UnderlyingPrice: snap.UnderlyingPrice,
			Premium:         round(premium, 2),
			MaxLoss:         round(maxLoss, 2),
			RewardToRisk:    safeRatio(premium, maxLoss),
			Gamma:           short.Gamma,
			Theta:           short.Theta,
			Timestamp:       ts,
		}
		switch typ {
		case models.Call:
			t.ShortCall, t.LongCall = short.Strike, long.Strike
			t.ShortCallDelta, t.LongCallDelta = short.Delta, long.Delta
			t.CallVolume, t.CallIV = short.Volume, short.IV
		case models.Put:
			t.ShortPut, t.LongPut = short.Strike, long.Strike
			t.ShortPutDelta, t.LongPutDelta = short.Delta, long.Delta
			t.PutVolume, t.PutIV = short.Volume, short.IV
		}

		if best == nil || t.Premium > best.Premium {
			c := t
			best = &c
		}
	}
	return best
}

// VerticalAnalyzer evaluates all three aggressiveness tiers for both option
// sides on each cycle.
type VerticalAnalyzer struct {
	snaps   domrepo.SnapshotStore
	tiers   []VerticalParams
	metrics domrepo.Metrics
	loc     *time.Location
	log     *applogger.Logger

	mu          sync.RWMutex
	last        *models.VerticalResult
	lastRun     time.Time
	recordCount int
}

func NewVerticalAnalyzer(snaps domrepo.SnapshotStore, tiers []VerticalParams, metrics domrepo.Metrics, loc *time.Location, log *applogger.Logger) (*VerticalAnalyzer, error) {
	for _, p := range tiers {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return &VerticalAnalyzer{snaps: snaps, tiers: tiers, metrics: metrics, loc: loc, log: log}, nil
}

func (a *VerticalAnalyzer) Name() string { return "vertical" }

func (a *VerticalAnalyzer) RunCycle(ctx context.Context) *models.VerticalResult {
	now := time.Now().In(a.loc)
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNoData) {
			a.log.Error("vertical snapshot fetch failed", applogger.Error(err))
			a.metrics.RecordError("vertical_snapshot")
		}
		return a.finish(&models.VerticalResult{Timestamp: now, Error: err.Error()})
	}
	if snap.Empty() {
		return a.finish(&models.VerticalResult{Timestamp: now, Error: domrepo.ErrNoData.Error()})
	}

	found := 0
	opps := make(map[string]map[string]*models.TradeCandidate, len(a.tiers))
	for _, tier := range a.tiers {
		byType := make(map[string]*models.TradeCandidate, 2)
		for _, typ := range []models.OptionType{models.Call, models.Put} {
			c := FindVertical(snap, typ, tier, now)
			byType[string(typ)] = c
			if c != nil {
				found++
			}
		}
		opps[string(tier.Tier)] = byType
	}

	a.metrics.RecordObservations(a.Name(), found)
	return a.finish(&models.VerticalResult{
		Timestamp:       now,
		UnderlyingPrice: snap.UnderlyingPrice,
		Opportunities:   opps,
	})
}

func (a *VerticalAnalyzer) finish(res *models.VerticalResult) *models.VerticalResult {
	n := 0
	for _, byType := range res.Opportunities {
		for _, c := range byType {
			if c != nil {
				n++
			}
		}
	}
	a.mu.Lock()
	a.last = res
	a.lastRun = res.Timestamp
	a.recordCount += n
	a.mu.Unlock()
	return res
}

func (a *VerticalAnalyzer) Latest() *models.VerticalResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return &models.VerticalResult{Timestamp: time.Now().In(a.loc), Error: domrepo.ErrNoData.Error()}
	}
	return a.last
}

func (a *VerticalAnalyzer) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{Analyzer: a.Name(), Running: !a.lastRun.IsZero(), LastRun: a.lastRun, RecordCount: a.recordCount}
}
