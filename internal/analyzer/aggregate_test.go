package analyzer

import (
	"reflect"
	"testing"
	"time"

	"ChainPull/internal/domain/models"
)

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := SessionLocation()
	if err != nil {
		t.Fatalf("load session location: %v", err)
	}
	return loc
}

func obsAt(loc *time.Location, hour, minute int, typ models.OptionType, spread int, bucket, credit float64) models.CreditSpreadObservation {
	return models.CreditSpreadObservation{
		Timestamp:   time.Date(2026, 3, 2, hour, minute, 0, 0, loc),
		OptionType:  typ,
		DeltaBucket: bucket,
		PointSpread: spread,
		Credit:      credit,
	}
}

func TestAggregateStats(t *testing.T) {
	loc := chicago(t)
	obs := []models.CreditSpreadObservation{
		obsAt(loc, 9, 0, models.Put, 10, 0.25, 1.20),
		obsAt(loc, 9, 5, models.Put, 10, 0.25, 1.80),
		obsAt(loc, 9, 10, models.Put, 10, 0.25, 1.50),
	}
	grid := NewAggregator(loc).Aggregate(obs)

	win := grid["put"]["10pt"]["09:00-09:15"]
	if win == nil {
		t.Fatalf("missing window entry: %v", grid)
	}
	if got := win["Ave"]["0.25"]; got != 1.5 {
		t.Fatalf("ave = %v, want 1.5", got)
	}
	if got := win["High"]["0.25"]; got != 1.8 {
		t.Fatalf("high = %v, want 1.8", got)
	}
	if got := win["Low"]["0.25"]; got != 1.2 {
		t.Fatalf("low = %v, want 1.2", got)
	}
}

func TestAggregateRoundsToTwoDecimals(t *testing.T) {
	loc := chicago(t)
	obs := []models.CreditSpreadObservation{
		obsAt(loc, 10, 0, models.Call, 5, 0.10, 0.3333),
		obsAt(loc, 10, 1, models.Call, 5, 0.10, 0.3334),
	}
	grid := NewAggregator(loc).Aggregate(obs)
	if got := grid["call"]["5pt"]["10:00-10:30"]["Ave"]["0.10"]; got != 0.33 {
		t.Fatalf("ave = %v, want 0.33", got)
	}
}

func TestAggregateSkipsOutOfSession(t *testing.T) {
	loc := chicago(t)
	obs := []models.CreditSpreadObservation{
		obsAt(loc, 7, 0, models.Put, 10, 0.25, 1.00),
		obsAt(loc, 16, 0, models.Put, 10, 0.25, 1.00),
	}
	grid := NewAggregator(loc).Aggregate(obs)
	if len(grid) != 0 {
		t.Fatalf("out-of-session observations must be dropped, got %v", grid)
	}
}

func TestAggregateAbsentGroupsNotZeroFilled(t *testing.T) {
	loc := chicago(t)
	obs := []models.CreditSpreadObservation{
		obsAt(loc, 9, 0, models.Put, 10, 0.25, 1.00),
	}
	grid := NewAggregator(loc).Aggregate(obs)
	if _, ok := grid["call"]; ok {
		t.Fatalf("call side must be absent, not zero-filled")
	}
	if _, ok := grid["put"]["10pt"]["09:30-10:00"]; ok {
		t.Fatalf("empty windows must be absent from the grid")
	}
	if _, ok := grid["put"]["10pt"]["09:00-09:15"]["Ave"]["0.30"]; ok {
		t.Fatalf("unobserved buckets must be absent from the stat maps")
	}
}

func TestAggregateDeterministic(t *testing.T) {
	loc := chicago(t)
	obs := []models.CreditSpreadObservation{
		obsAt(loc, 9, 0, models.Put, 10, 0.25, 1.20),
		obsAt(loc, 9, 45, models.Call, 20, 0.40, 2.10),
		obsAt(loc, 13, 10, models.Put, 5, 0.10, 0.45),
	}
	a := NewAggregator(loc)
	first := a.Aggregate(obs)
	second := a.Aggregate(obs)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("re-aggregation of the same observations changed the grid")
	}
}

func TestLabels(t *testing.T) {
	if got := SpreadLabel(15); got != "15pt" {
		t.Fatalf("spread label = %q", got)
	}
	if got := BucketLabel(0.1); got != "0.10" {
		t.Fatalf("bucket label = %q", got)
	}
}
