package models

import (
	"fmt"
	"time"
)

// OptionType identifies the side of an option contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Validate checks the option type value.
func (t OptionType) Validate() error {
	if t != Call && t != Put {
		return fmt.Errorf("invalid option type: %s", t)
	}
	return nil
}

// Sign returns +1 for calls and -1 for puts, matching delta sign conventions.
func (t OptionType) Sign() float64 {
	if t == Put {
		return -1
	}
	return 1
}

// OptionQuote is a single normalized option record from one chain snapshot.
// Immutable once read; one per (strike, expiration, type) per snapshot timestamp.
type OptionQuote struct {
	Strike       float64    `json:"strike"`
	Expiration   time.Time  `json:"expiration"`
	Type         OptionType `json:"type"`
	Bid          float64    `json:"bid"`
	Ask          float64    `json:"ask"`
	Mid          float64    `json:"mid"`
	Delta        float64    `json:"delta"`
	Gamma        float64    `json:"gamma"`
	Theta        float64    `json:"theta"`
	Vega         float64    `json:"vega"`
	IV           float64    `json:"iv"`
	Volume       int64      `json:"volume"`
	OpenInterest int64      `json:"open_interest"`
}

// ChainSnapshot is one full options chain at a single stream timestamp.
// Calls and Puts are ordered by ascending strike. A snapshot is read-only to
// all consumers and is superseded, never mutated, by the next refresh tick.
type ChainSnapshot struct {
	Timestamp       time.Time     `json:"timestamp"`
	UnderlyingPrice float64       `json:"underlying_price"`
	Calls           []OptionQuote `json:"calls"`
	Puts            []OptionQuote `json:"puts"`
}

// Empty reports whether the snapshot carries no quotes at all.
func (s *ChainSnapshot) Empty() bool {
	return s == nil || (len(s.Calls) == 0 && len(s.Puts) == 0)
}

// Side returns the quotes for the given option type.
func (s *ChainSnapshot) Side(t OptionType) []OptionQuote {
	if t == Put {
		return s.Puts
	}
	return s.Calls
}
