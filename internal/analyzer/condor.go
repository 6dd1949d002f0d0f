package analyzer

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	applogger "ChainPull/pkg/logger"
)

// FindCondors enumerates and scores iron-condor candidates: every qualifying
// short put crossed with every qualifying short call, wings exactly
// wing_width beyond each short strike. The wing lookup requires an exact
// strike on the grid; pairs whose wing strike is absent are skipped with no
// nearest-strike fallback, unlike the credit-spread engine. Returns the top
// candidates by descending score.
func FindCondors(snap *models.ChainSnapshot, p CondorParams, ts time.Time) []models.TradeCandidate {
	shortCalls := filterByDelta(snap.Calls, p.DeltaRange)
	shortPuts := filterByDelta(snap.Puts, p.DeltaRange)

	var out []models.TradeCandidate
	for _, shortPut := range shortPuts {
		for _, shortCall := range shortCalls {
			longPut, okP := quoteAtStrike(snap.Puts, shortPut.Strike-p.WingWidth)
			longCall, okC := quoteAtStrike(snap.Calls, shortCall.Strike+p.WingWidth)
			if !okP || !okC {
				continue
			}

			premium := (shortPut.Bid - longPut.Ask) + (shortCall.Bid - longCall.Ask)
			maxLoss := p.WingWidth - premium
			if premium < p.MinPremium || maxLoss > p.MaxRisk {
				continue
			}

			t := models.TradeCandidate{
				Strategy:        "iron_condor",
				UnderlyingPrice: snap.UnderlyingPrice,
				ShortPut:        shortPut.Strike,
				LongPut:         longPut.Strike,
				ShortCall:       shortCall.Strike,
				LongCall:        longCall.Strike,
				Premium:         round(premium, 2),
				MaxLoss:         round(maxLoss, 2),
				RewardToRisk:    safeRatio(premium, maxLoss),
				ShortCallDelta:  shortCall.Delta,
				LongCallDelta:   longCall.Delta,
				ShortPutDelta:   shortPut.Delta,
				LongPutDelta:    longPut.Delta,
				CallVolume:      shortCall.Volume,
				PutVolume:       shortPut.Volume,
				CallIV:          shortCall.IV,
				PutIV:           shortPut.IV,
				Gamma:           (shortCall.Gamma + shortPut.Gamma) / 2,
				Theta:           (shortCall.Theta + shortPut.Theta) / 2,
				Timestamp:       ts,
			}
			t.Score = ScoreCondor(t, p)
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topCondors {
		out = out[:topCondors]
	}
	return out
}

func filterByDelta(quotes []models.OptionQuote, r DeltaRange) []models.OptionQuote {
	out := make([]models.OptionQuote, 0, len(quotes))
	for _, q := range quotes {
		if q.Delta != 0 && r.Contains(q.Delta) {
			out = append(out, q)
		}
	}
	return out
}

// quoteAtStrike is an exact-match lookup on the strike grid.
func quoteAtStrike(quotes []models.OptionQuote, strike float64) (models.OptionQuote, bool) {
	for _, q := range quotes {
		if math.Abs(q.Strike-strike) < 1e-9 {
			return q, true
		}
	}
	return models.OptionQuote{}, false
}

// safeRatio guards reward-to-risk against a zero denominator; the candidate
// is skipped by scoring anyway, but the batch must not abort.
func safeRatio(premium, maxLoss float64) float64 {
	if maxLoss == 0 {
		return 0
	}
	return round(premium/maxLoss, 2)
}

// CondorAnalyzer runs the periodic iron-condor search over the latest
// snapshot and caches the ranked result.
type CondorAnalyzer struct {
	snaps   domrepo.SnapshotStore
	params  CondorParams
	metrics domrepo.Metrics
	loc     *time.Location
	log     *applogger.Logger

	mu          sync.RWMutex
	last        *models.CondorResult
	lastRun     time.Time
	recordCount int
}

func NewCondorAnalyzer(snaps domrepo.SnapshotStore, params CondorParams, metrics domrepo.Metrics, loc *time.Location, log *applogger.Logger) (*CondorAnalyzer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &CondorAnalyzer{snaps: snaps, params: params, metrics: metrics, loc: loc, log: log}, nil
}

func (a *CondorAnalyzer) Name() string { return "condor" }

func (a *CondorAnalyzer) RunCycle(ctx context.Context) *models.CondorResult {
	now := time.Now().In(a.loc)
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNoData) {
			a.log.Error("condor snapshot fetch failed", applogger.Error(err))
			a.metrics.RecordError("condor_snapshot")
		}
		return a.finish(&models.CondorResult{Timestamp: now, Error: err.Error()})
	}
	if snap.Empty() {
		return a.finish(&models.CondorResult{Timestamp: now, Error: domrepo.ErrNoData.Error()})
	}

	trades := FindCondors(snap, a.params, now)
	a.metrics.RecordObservations(a.Name(), len(trades))
	return a.finish(&models.CondorResult{
		Timestamp:       now,
		UnderlyingPrice: snap.UnderlyingPrice,
		ScoredTrades:    trades,
	})
}

func (a *CondorAnalyzer) finish(res *models.CondorResult) *models.CondorResult {
	a.mu.Lock()
	a.last = res
	a.lastRun = res.Timestamp
	a.recordCount += len(res.ScoredTrades)
	a.mu.Unlock()
	return res
}

func (a *CondorAnalyzer) Latest() *models.CondorResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return &models.CondorResult{Timestamp: time.Now().In(a.loc), Error: domrepo.ErrNoData.Error()}
	}
	return a.last
}

func (a *CondorAnalyzer) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{Analyzer: a.Name(), Running: !a.lastRun.IsZero(), LastRun: a.lastRun, RecordCount: a.recordCount}
}
