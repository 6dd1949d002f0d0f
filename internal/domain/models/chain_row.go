package models

import (
	"fmt"
	"time"
)

// ChainRow is one raw per-strike row from the upstream chain feed. The feed
// delivers both sides of the book in a single row, mirroring the vendor
// stream format; normalization into typed OptionQuote pairs happens at the
// snapshot boundary.
type ChainRow struct {
	Timestamp  time.Time `json:"ts"`
	Underlying string    `json:"underlying"`
	Expiration time.Time `json:"exp_date"`
	Strike     float64   `json:"strike"`

	CallBid    float64 `json:"call_bid"`
	CallAsk    float64 `json:"call_ask"`
	CallLast   float64 `json:"call_last"`
	CallDelta  float64 `json:"call_delta"`
	CallGamma  float64 `json:"call_gamma"`
	CallTheta  float64 `json:"call_theta"`
	CallVega   float64 `json:"call_vega"`
	CallIV     float64 `json:"call_iv"`
	CallVolume int64   `json:"call_volume"`
	CallOI     int64   `json:"call_open_int"`

	PutBid    float64 `json:"put_bid"`
	PutAsk    float64 `json:"put_ask"`
	PutLast   float64 `json:"put_last"`
	PutDelta  float64 `json:"put_delta"`
	PutGamma  float64 `json:"put_gamma"`
	PutTheta  float64 `json:"put_theta"`
	PutVega   float64 `json:"put_vega"`
	PutIV     float64 `json:"put_iv"`
	PutVolume int64   `json:"put_volume"`
	PutOI     int64   `json:"put_open_int"`
}

// Validate rejects rows the ingest pipeline must not forward.
func (r *ChainRow) Validate() error {
	if r == nil {
		return fmt.Errorf("chain row nil")
	}
	if r.Underlying == "" {
		return fmt.Errorf("underlying empty")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if r.Strike <= 0 {
		return fmt.Errorf("strike invalid: %v", r.Strike)
	}
	if r.CallBid < 0 || r.CallAsk < 0 || r.PutBid < 0 || r.PutAsk < 0 {
		return fmt.Errorf("negative bid/ask")
	}
	return nil
}

// CallQuote converts the call side of the row into a normalized quote.
// Mid is derived as (bid+ask)/2.
func (r *ChainRow) CallQuote() OptionQuote {
	return OptionQuote{
		Strike:       r.Strike,
		Expiration:   r.Expiration,
		Type:         Call,
		Bid:          r.CallBid,
		Ask:          r.CallAsk,
		Mid:          (r.CallBid + r.CallAsk) / 2,
		Delta:        r.CallDelta,
		Gamma:        r.CallGamma,
		Theta:        r.CallTheta,
		Vega:         r.CallVega,
		IV:           r.CallIV,
		Volume:       r.CallVolume,
		OpenInterest: r.CallOI,
	}
}

// PutQuote converts the put side of the row into a normalized quote.
func (r *ChainRow) PutQuote() OptionQuote {
	return OptionQuote{
		Strike:       r.Strike,
		Expiration:   r.Expiration,
		Type:         Put,
		Bid:          r.PutBid,
		Ask:          r.PutAsk,
		Mid:          (r.PutBid + r.PutAsk) / 2,
		Delta:        r.PutDelta,
		Gamma:        r.PutGamma,
		Theta:        r.PutTheta,
		Vega:         r.PutVega,
		IV:           r.PutIV,
		Volume:       r.PutVolume,
		OpenInterest: r.PutOI,
	}
}

// SpotTick is one underlying price observation from the feed.
type SpotTick struct {
	Timestamp time.Time `json:"ts"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
}
