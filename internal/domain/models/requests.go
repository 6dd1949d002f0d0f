package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type ChainRequest struct {
	Minutes   int     `query:"minutes" json:"minutes" default:"5" validate:"gte=1,lte=120"`
	StrikeMin float64 `query:"strike_min" json:"strike_min" validate:"gte=0"`
	StrikeMax float64 `query:"strike_max" json:"strike_max" validate:"gte=0"`
	Limit     int     `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=10000"`
}

type PositionsRequest struct {
	Status string `query:"status" json:"status" default:"open" validate:"oneof=open closed all"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type AddPositionRequest struct {
	Data map[string]interface{} `json:"data" validate:"required"`
}
