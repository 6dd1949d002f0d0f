package models

import (
	"testing"
	"time"
)

func validRow() *ChainRow {
	return &ChainRow{
		Timestamp:  time.Now(),
		Underlying: "SPX",
		Expiration: time.Now().Add(6 * time.Hour),
		Strike:     4500,
		CallBid:    2.90,
		CallAsk:    3.10,
		CallDelta:  0.15,
		PutBid:     3.20,
		PutAsk:     3.40,
		PutDelta:   -0.16,
	}
}

func TestChainRowValidate(t *testing.T) {
	if err := validRow().Validate(); err != nil {
		t.Fatalf("valid row rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*ChainRow)
	}{
		{"empty underlying", func(r *ChainRow) { r.Underlying = "" }},
		{"zero timestamp", func(r *ChainRow) { r.Timestamp = time.Time{} }},
		{"zero strike", func(r *ChainRow) { r.Strike = 0 }},
		{"negative strike", func(r *ChainRow) { r.Strike = -4500 }},
		{"negative call bid", func(r *ChainRow) { r.CallBid = -0.05 }},
		{"negative put ask", func(r *ChainRow) { r.PutAsk = -0.05 }},
	}
	for _, tc := range cases {
		r := validRow()
		tc.mut(r)
		if err := r.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	var nilRow *ChainRow
	if err := nilRow.Validate(); err == nil {
		t.Fatalf("nil row must be rejected")
	}
}

func TestChainRowQuotes(t *testing.T) {
	r := validRow()

	c := r.CallQuote()
	if c.Type != Call || c.Strike != r.Strike || !c.Expiration.Equal(r.Expiration) {
		t.Fatalf("unexpected call quote: %+v", c)
	}
	if c.Mid != (r.CallBid+r.CallAsk)/2 {
		t.Fatalf("call mid = %v", c.Mid)
	}

	p := r.PutQuote()
	if p.Type != Put || p.Delta != r.PutDelta {
		t.Fatalf("unexpected put quote: %+v", p)
	}
	if p.Mid != (r.PutBid+r.PutAsk)/2 {
		t.Fatalf("put mid = %v", p.Mid)
	}
}

func TestOptionTypeSignAndValidate(t *testing.T) {
	if Call.Sign() != 1 || Put.Sign() != -1 {
		t.Fatalf("unexpected signs: call %v put %v", Call.Sign(), Put.Sign())
	}
	if err := Call.Validate(); err != nil {
		t.Fatalf("call must validate: %v", err)
	}
	if err := OptionType("straddle").Validate(); err == nil {
		t.Fatalf("unknown option type must be rejected")
	}
}

func TestChainSnapshotSideAndEmpty(t *testing.T) {
	var nilSnap *ChainSnapshot
	if !nilSnap.Empty() {
		t.Fatalf("nil snapshot is empty")
	}

	s := &ChainSnapshot{
		Calls: []OptionQuote{{Strike: 4500, Type: Call}},
		Puts:  []OptionQuote{{Strike: 4400, Type: Put}},
	}
	if s.Empty() {
		t.Fatalf("populated snapshot must not be empty")
	}
	if got := s.Side(Put); len(got) != 1 || got[0].Strike != 4400 {
		t.Fatalf("unexpected put side: %v", got)
	}
	if got := s.Side(Call); got[0].Strike != 4500 {
		t.Fatalf("unexpected call side: %v", got)
	}
}
