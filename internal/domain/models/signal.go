package models

import "time"

// Trigger identifies which detector condition fired.
type Trigger string

const (
	TriggerVolZScore   Trigger = "VOL_ZSCORE"
	TriggerCVDBullish  Trigger = "CVD_BULLISH_ALIGN"
	TriggerCVDBearish  Trigger = "CVD_BEARISH_ALIGN"
)

// Momentum is the CVD short-vs-long moving-average verdict.
type Momentum string

const (
	MomentumBullish Momentum = "BULLISH"
	MomentumBearish Momentum = "BEARISH"
	MomentumNeutral Momentum = "NEUTRAL"
)

// Signal is one detected order-flow event against a pre-classified symbol.
// ZScore is nil when the rolling window was undefined at detection time.
type Signal struct {
	Symbol      string      `json:"symbol"`
	Trigger     Trigger     `json:"trigger"`
	ZScore      *float64    `json:"zscore,omitempty"`
	CVDMomentum Momentum    `json:"cvd_momentum"`
	PriceLoc    Interaction `json:"price_loc"`
	State       Regime      `json:"auction_state"`
	Price       float64     `json:"current_price"`
	DetectedAt  time.Time   `json:"detected_at"`
}
