package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"ChainPull/internal/domain/models"
	domrepo "ChainPull/internal/domain/repository"
	applogger "ChainPull/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("build test logger: %v", err)
	}
	return l
}

func expiry() time.Time {
	return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
}

func putQuote(strike, delta, bid, ask float64) models.OptionQuote {
	return models.OptionQuote{
		Strike: strike, Expiration: expiry(), Type: models.Put,
		Delta: delta, Bid: bid, Ask: ask, Mid: (bid + ask) / 2,
	}
}

func TestBuildObservationsPutSpread(t *testing.T) {
	// Anchor for the 0.25 bucket is the -0.25 delta put at 4480; the 20pt
	// covering strike is the put at or below 4460. Credit is the executable
	// net: anchor bid minus target ask.
	quotes := []models.OptionQuote{
		putQuote(4440, -0.12, 1.00, 1.20),
		putQuote(4460, -0.18, 1.90, 2.00),
		putQuote(4480, -0.25, 3.50, 3.60),
	}
	obs := BuildObservations(quotes, models.Put, time.Now())

	var found *models.CreditSpreadObservation
	for i := range obs {
		if obs[i].DeltaBucket == 0.25 && obs[i].PointSpread == 20 {
			found = &obs[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a 0.25/20pt observation, got %v", obs)
	}
	if found.Credit != 1.5 {
		t.Fatalf("credit = %v, want 1.5", found.Credit)
	}
	if found.OptionType != models.Put {
		t.Fatalf("type = %v", found.OptionType)
	}
}

func TestBuildObservationsShallowDeltaAnchor(t *testing.T) {
	// The -0.15 put is nearest to the 0.14 bucket target; the 20-point
	// covering strike lands exactly on 4460 and the credit is the anchor
	// bid minus the target ask: 1.0 - 0.4 = 0.6.
	quotes := []models.OptionQuote{
		putQuote(4480, -0.15, 1.0, 1.2),
		putQuote(4460, -0.07, 0.3, 0.4),
	}
	obs := BuildObservations(quotes, models.Put, time.Now())

	var matches []models.CreditSpreadObservation
	for _, o := range obs {
		if o.DeltaBucket == 0.14 && o.PointSpread == 20 {
			matches = append(matches, o)
		}
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one 0.14/20pt observation, got %d", len(matches))
	}
	if matches[0].Credit != 0.6 {
		t.Fatalf("credit = %v, want 0.6", matches[0].Credit)
	}
}

func TestBuildObservationsDropsNonPositiveCredit(t *testing.T) {
	// Long leg asks more than the anchor bids: the candidate must be
	// dropped, never recorded as zero or negative.
	quotes := []models.OptionQuote{
		putQuote(4480, -0.25, 2.00, 2.10),
		putQuote(4460, -0.18, 2.40, 2.50),
	}
	obs := BuildObservations(quotes, models.Put, time.Now())
	for _, o := range obs {
		if o.Credit <= 0 {
			t.Fatalf("non-positive credit leaked: %+v", o)
		}
	}
}

func TestBuildObservationsRoundsCredit(t *testing.T) {
	quotes := []models.OptionQuote{
		putQuote(4480, -0.25, 3.123456, 3.30),
		putQuote(4475, -0.20, 0.90, 1.0),
	}
	obs := BuildObservations(quotes, models.Put, time.Now())
	if len(obs) == 0 {
		t.Fatalf("expected at least one observation")
	}
	if obs[0].Credit != 2.1235 {
		t.Fatalf("credit = %v, want 2.1235", obs[0].Credit)
	}
}

func TestBuildObservationsSameExpirationOnly(t *testing.T) {
	other := expiry().AddDate(0, 0, 7)
	quotes := []models.OptionQuote{
		putQuote(4480, -0.25, 3.50, 3.60),
		{Strike: 4460, Expiration: other, Type: models.Put, Delta: -0.18, Bid: 0.90, Ask: 1.00},
	}
	if obs := BuildObservations(quotes, models.Put, time.Now()); len(obs) != 0 {
		t.Fatalf("cross-expiration leg must not pair: %v", obs)
	}
}

func TestCoveringStrikeDirection(t *testing.T) {
	call := models.OptionQuote{Strike: 4500, Expiration: expiry(), Type: models.Call, Delta: 0.25}
	quotes := []models.OptionQuote{
		call,
		{Strike: 4495, Expiration: expiry(), Type: models.Call, Delta: 0.30},
		{Strike: 4520, Expiration: expiry(), Type: models.Call, Delta: 0.15},
		{Strike: 4530, Expiration: expiry(), Type: models.Call, Delta: 0.10},
	}
	got, ok := coveringStrike(quotes, models.Call, call, 20)
	if !ok {
		t.Fatalf("expected a covering strike")
	}
	if got.Strike != 4520 {
		t.Fatalf("covering strike = %v, want 4520 (at or beyond, nearest)", got.Strike)
	}
}

func TestNearestDeltaSigned(t *testing.T) {
	quotes := []models.OptionQuote{
		putQuote(4480, -0.25, 3.50, 3.60),
		putQuote(4520, -0.45, 6.90, 7.10),
		{Strike: 4520, Expiration: expiry(), Type: models.Call, Delta: 0.25},
	}
	got, ok := nearestDelta(quotes, models.Put, 0.25*models.Put.Sign())
	if !ok {
		t.Fatalf("expected an anchor")
	}
	if got.Strike != 4480 {
		t.Fatalf("anchor strike = %v, want 4480", got.Strike)
	}
}

type fakeSnapshots struct {
	snap *models.ChainSnapshot
	err  error
}

func (f *fakeSnapshots) Latest(context.Context) (*models.ChainSnapshot, error) {
	return f.snap, f.err
}

func (f *fakeSnapshots) Spot(context.Context) (*models.SpotTick, error) {
	return nil, domrepo.ErrNoData
}

type fakeSpreadStore struct {
	appendErr error
	appended  []models.CreditSpreadObservation
	day       []models.CreditSpreadObservation
	dayErr    error
}

func (f *fakeSpreadStore) Append(_ context.Context, obs []models.CreditSpreadObservation) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, obs...)
	return nil
}

func (f *fakeSpreadStore) Day(context.Context, time.Time) ([]models.CreditSpreadObservation, error) {
	return f.day, f.dayErr
}

func (f *fakeSpreadStore) Count(context.Context, time.Time) (int, error) {
	return len(f.day), nil
}

type fakeMetrics struct {
	errors       []string
	observations map[string]int
}

func (f *fakeMetrics) RecordMessageSent(string, string)      {}
func (f *fakeMetrics) RecordError(kind string)               { f.errors = append(f.errors, kind) }
func (f *fakeMetrics) RecordUnderlyingPrice(string, float64) {}
func (f *fakeMetrics) RecordLatency(string, float64)         {}
func (f *fakeMetrics) RecordObservations(analyzer string, n int) {
	if f.observations == nil {
		f.observations = make(map[string]int)
	}
	f.observations[analyzer] += n
}

func newSpreadAnalyzerForTest(t *testing.T, snaps domrepo.SnapshotStore, store domrepo.SpreadStore, m domrepo.Metrics) *SpreadAnalyzer {
	t.Helper()
	loc, err := SessionLocation()
	if err != nil {
		t.Fatalf("load session location: %v", err)
	}
	return NewSpreadAnalyzer(snaps, store, m, loc, testLogger(t))
}

func TestSpreadAnalyzerNoData(t *testing.T) {
	a := newSpreadAnalyzerForTest(t, &fakeSnapshots{err: domrepo.ErrNoData}, &fakeSpreadStore{}, &fakeMetrics{})
	res := a.RunCycle(context.Background())
	if res.Error != domrepo.ErrNoData.Error() {
		t.Fatalf("error marker = %q", res.Error)
	}
	if res.Observations != 0 || len(res.Grid) != 0 {
		t.Fatalf("no-data cycle must produce an empty result: %+v", res)
	}
	if got := a.Latest(); got.Error != res.Error {
		t.Fatalf("latest must serve the cached error result")
	}
}

func TestSpreadAnalyzerEmptySnapshot(t *testing.T) {
	a := newSpreadAnalyzerForTest(t, &fakeSnapshots{snap: &models.ChainSnapshot{}}, &fakeSpreadStore{}, &fakeMetrics{})
	res := a.RunCycle(context.Background())
	if res.Error != domrepo.ErrNoData.Error() {
		t.Fatalf("empty snapshot must mark no data, got %q", res.Error)
	}
}

func TestSpreadAnalyzerPersistsAndAggregates(t *testing.T) {
	snap := &models.ChainSnapshot{
		UnderlyingPrice: 4500,
		Puts: []models.OptionQuote{
			putQuote(4480, -0.25, 3.50, 3.60),
			putQuote(4460, -0.18, 1.90, 2.00),
		},
	}
	store := &fakeSpreadStore{}
	m := &fakeMetrics{}
	a := newSpreadAnalyzerForTest(t, &fakeSnapshots{snap: snap}, store, m)

	res := a.RunCycle(context.Background())
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if res.Observations == 0 {
		t.Fatalf("expected observations from the snapshot")
	}
	if len(store.appended) != res.Observations {
		t.Fatalf("persisted %d, result reports %d", len(store.appended), res.Observations)
	}
	if res.UnderlyingPrice != 4500 {
		t.Fatalf("underlying = %v", res.UnderlyingPrice)
	}
	if m.observations["spread"] != res.Observations {
		t.Fatalf("observation metric = %v", m.observations)
	}

	st := a.Status()
	if st.Analyzer != "spread" || !st.Running || st.RecordCount != res.Observations || st.LastRun.IsZero() {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestSpreadAnalyzerPersistFailureStillServes(t *testing.T) {
	snap := &models.ChainSnapshot{
		UnderlyingPrice: 4500,
		Puts: []models.OptionQuote{
			putQuote(4480, -0.25, 3.50, 3.60),
			putQuote(4460, -0.18, 1.90, 2.00),
		},
	}
	store := &fakeSpreadStore{appendErr: errors.New("clickhouse down")}
	m := &fakeMetrics{}
	a := newSpreadAnalyzerForTest(t, &fakeSnapshots{snap: snap}, store, m)

	res := a.RunCycle(context.Background())
	if res.Error != "" {
		t.Fatalf("persist failure must not fail the cycle: %s", res.Error)
	}
	if res.Observations == 0 {
		t.Fatalf("expected in-memory observations despite persist failure")
	}
	found := false
	for _, kind := range m.errors {
		if kind == "spread_persist" {
			found = true
		}
	}
	if !found {
		t.Fatalf("persist failure must be counted, got %v", m.errors)
	}
}

func TestSpreadAnalyzerLatestBeforeFirstCycle(t *testing.T) {
	a := newSpreadAnalyzerForTest(t, &fakeSnapshots{err: domrepo.ErrNoData}, &fakeSpreadStore{}, &fakeMetrics{})
	res := a.Latest()
	if res.Error != domrepo.ErrNoData.Error() {
		t.Fatalf("pre-cycle latest must mark no data, got %+v", res)
	}
}
