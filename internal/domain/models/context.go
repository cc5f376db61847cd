package models

import "time"

// Regime labels how much a period's value area overlaps the prior period's.
type Regime string

const (
	RegimeBalanced     Regime = "BALANCED"
	RegimeTrending     Regime = "TRENDING"
	RegimeTransitional Regime = "TRANSITIONAL"
)

// Direction is the higher-timeframe directional bias (current vs prior period).
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// Interaction tags where the current price sits relative to the anchor
// period's value-area levels.
type Interaction string

const (
	InteractionTestPOC     Interaction = "TEST_POC"
	InteractionTestVAL     Interaction = "TEST_VAL"
	InteractionTestVAH     Interaction = "TEST_VAH"
	InteractionInsideValue Interaction = "INSIDE_VALUE"
	InteractionBelowValue  Interaction = "BELOW_VALUE"
	InteractionAboveValue  Interaction = "ABOVE_VALUE"
	InteractionUnknown     Interaction = "UNKNOWN"
)

// IsTest reports whether the tag is one of the level-test tags.
func (i Interaction) IsTest() bool {
	return i == InteractionTestPOC || i == InteractionTestVAL || i == InteractionTestVAH
}

// Warning flags structural caveats on a context row.
type Warning string

const (
	WarningLowConfidence Warning = "LOW_CONFIDENCE"
	WarningCompressed    Warning = "COMPRESSED"
	WarningPinned        Warning = "PINNED"
	WarningExtended      Warning = "EXTENDED"
)

// Bias is the composite long/short/wait verdict.
type Bias string

const (
	BiasFavorsLong  Bias = "FAVORS_LONG"
	BiasFavorsShort Bias = "FAVORS_SHORT"
	BiasNeutralWait Bias = "NEUTRAL_WAIT"
)

// Band is the relevance tier attached after classification.
type Band string

const (
	BandTradeReady Band = "TRADE_READY"
	BandWatch      Band = "WATCH"
	BandIgnore     Band = "IGNORE"
)

// ContextRow is the one-row-per-symbol join of the latest anchor-period levels
// with the live price, enriched with every classifier output. Built fresh on
// each refresh and never mutated after banding.
type ContextRow struct {
	Symbol      string     `json:"symbol"`
	PeriodStart time.Time  `json:"period_start"`
	POC         float64    `json:"poc"`
	VAH         float64    `json:"vah"`
	VAL         float64    `json:"val"`
	PriorPOC    *float64   `json:"prior_poc,omitempty"`
	PriorVAH    *float64   `json:"prior_vah,omitempty"`
	PriorVAL    *float64   `json:"prior_val,omitempty"`
	VAWidthPct  *float64   `json:"va_width_pct,omitempty"`
	OverlapPct  *float64   `json:"value_overlap_pct,omitempty"`
	Coverage    *string    `json:"coverage_flag,omitempty"`
	Price       float64    `json:"price"`

	Regime      Regime      `json:"regime"`
	Direction   Direction   `json:"htf_direction"`
	Interaction Interaction `json:"interaction"`
	PctToPOC    *float64    `json:"pct_to_poc,omitempty"`
	PctToVAL    *float64    `json:"pct_to_val,omitempty"`
	PctToVAH    *float64    `json:"pct_to_vah,omitempty"`
	Warnings    []Warning   `json:"warnings,omitempty"`
	Bias        Bias        `json:"bias"`
	Band        Band        `json:"band"`
}

// HasWarning reports membership in the warning set.
func (c ContextRow) HasWarning(w Warning) bool {
	for _, have := range c.Warnings {
		if have == w {
			return true
		}
	}
	return false
}
