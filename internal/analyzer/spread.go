package analyzer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	applogger "ChainPull/pkg/logger"
)

// BuildObservations reduces one side of a chain snapshot into delta-bucketed
// credit-spread observations. For each target delta the nearest-delta quote
// is taken as the short (anchor) leg; for each point width the long leg is
// the nearest same-expiration quote at or beyond the target strike on the
// correct side. Credit is the executable net: short bid minus long ask, the
// same convention the condor and vertical searches price with. Candidates
// whose credit is not strictly positive are dropped, not zero-filled.
// Deterministic for a fixed input snapshot.
func BuildObservations(quotes []models.OptionQuote, typ models.OptionType, ts time.Time) []models.CreditSpreadObservation {
	out := make([]models.CreditSpreadObservation, 0, len(DeltaBuckets)*len(PointSpreads))
	for _, bucket := range DeltaBuckets {
		anchor, ok := nearestDelta(quotes, typ, bucket*typ.Sign())
		if !ok {
			continue
		}
		for _, width := range PointSpreads {
			target, ok := coveringStrike(quotes, typ, anchor, float64(width))
			if !ok {
				continue
			}
			credit := anchor.Bid - target.Ask
			if credit <= 0 {
				continue
			}
			out = append(out, models.CreditSpreadObservation{
				Timestamp:   ts,
				OptionType:  typ,
				DeltaBucket: bucket,
				PointSpread: width,
				Credit:      round(credit, 4),
			})
		}
	}
	return out
}

// nearestDelta selects the quote of the given type whose delta is closest to
// the signed target. Put targets are negative, matching put delta signs.
func nearestDelta(quotes []models.OptionQuote, typ models.OptionType, target float64) (models.OptionQuote, bool) {
	var best models.OptionQuote
	bestDiff := math.Inf(1)
	for _, q := range quotes {
		if q.Type != typ {
			continue
		}
		diff := math.Abs(q.Delta - target)
		if diff < bestDiff {
			best, bestDiff = q, diff
		}
	}
	return best, !math.IsInf(bestDiff, 1)
}

// coveringStrike finds the long leg for the anchor at the given width: the
// nearest same-expiration quote with strike >= anchor+width for calls, or
// <= anchor-width for puts.
func coveringStrike(quotes []models.OptionQuote, typ models.OptionType, anchor models.OptionQuote, width float64) (models.OptionQuote, bool) {
	target := anchor.Strike + width*typ.Sign()
	var best models.OptionQuote
	bestDist := math.Inf(1)
	for _, q := range quotes {
		if q.Type != typ || !q.Expiration.Equal(anchor.Expiration) {
			continue
		}
		if typ == models.Call && q.Strike < target {
			continue
		}
		if typ == models.Put && q.Strike > target {
			continue
		}
		dist := math.Abs(q.Strike - target)
		if dist < bestDist {
			best, bestDist = q, dist
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// SpreadAnalyzer runs the delta-bucket credit-spread cycle: snapshot read,
// observation build, best-effort persistence, and day aggregation into the
// time-window grid.
type SpreadAnalyzer struct {
	snaps   domrepo.SnapshotStore
	store   domrepo.SpreadStore
	metrics domrepo.Metrics
	loc     *time.Location
	log     *applogger.Logger

	mu          sync.RWMutex
	last        *models.SpreadResult
	lastRun     time.Time
	recordCount int
}

func NewSpreadAnalyzer(snaps domrepo.SnapshotStore, store domrepo.SpreadStore, metrics domrepo.Metrics, loc *time.Location, log *applogger.Logger) *SpreadAnalyzer {
	return &SpreadAnalyzer{snaps: snaps, store: store, metrics: metrics, loc: loc, log: log}
}

func (a *SpreadAnalyzer) Name() string { return "spread" }

// RunCycle executes one analysis pass. Fetch failures degrade to an explicit
// error-marked result; they are never raised to the caller.
func (a *SpreadAnalyzer) RunCycle(ctx context.Context) *models.SpreadResult {
	now := time.Now().In(a.loc)
	snap, err := a.snaps.Latest(ctx)
	if err != nil {
		if !errors.Is(err, domrepo.ErrNoData) {
			a.log.Error("spread snapshot fetch failed", applogger.Error(err))
			a.metrics.RecordError("spread_snapshot")
		}
		return a.finish(&models.SpreadResult{Timestamp: now, Error: err.Error()}, nil)
	}
	if snap.Empty() {
		return a.finish(&models.SpreadResult{Timestamp: now, Error: domrepo.ErrNoData.Error()}, nil)
	}

	obs := BuildObservations(snap.Calls, models.Call, now)
	obs = append(obs, BuildObservations(snap.Puts, models.Put, now)...)

	persisted := true
	if err := a.store.Append(ctx, obs); err != nil {
		// At-most-once persistence: serve the cycle from memory regardless.
		persisted = false
		a.log.Error("spread observations persist failed", applogger.Error(err))
		a.metrics.RecordError("spread_persist")
	}

	dayObs, err := a.store.Day(ctx, now)
	if err != nil {
		a.log.Warn("spread day query failed", applogger.Error(err))
		a.metrics.RecordError("spread_day_query")
		dayObs = nil
	}
	if !persisted || len(dayObs) == 0 {
		dayObs = append(dayObs, obs...)
	}

	res := &models.SpreadResult{
		Timestamp:       now,
		UnderlyingPrice: snap.UnderlyingPrice,
		Observations:    len(obs),
		Grid:            NewAggregator(a.loc).Aggregate(dayObs),
	}
	a.metrics.RecordObservations(a.Name(), len(obs))
	return a.finish(res, obs)
}

func (a *SpreadAnalyzer) finish(res *models.SpreadResult, obs []models.CreditSpreadObservation) *models.SpreadResult {
	a.mu.Lock()
	a.last = res
	a.lastRun = res.Timestamp
	a.recordCount += len(obs)
	a.mu.Unlock()
	return res
}

// Latest returns the cached result from the most recent cycle, or an
// explicit no-data marker before the first cycle completes.
func (a *SpreadAnalyzer) Latest() *models.SpreadResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return &models.SpreadResult{Timestamp: time.Now().In(a.loc), Error: domrepo.ErrNoData.Error()}
	}
	return a.last
}

// Status reports scheduling state for the status endpoint.
func (a *SpreadAnalyzer) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Status{Analyzer: a.Name(), Running: !a.lastRun.IsZero(), LastRun: a.lastRun, RecordCount: a.recordCount}
}

// Status is the common analyzer status shape. Running reports whether the
// scheduled loop has completed at least one cycle.
type Status struct {
	Analyzer    string    `json:"analyzer"`
	Running     bool      `json:"running"`
	LastRun     time.Time `json:"last_run"`
	RecordCount int       `json:"record_count"`
}
