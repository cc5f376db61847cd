package models

import "time"

// LevelRow is one historical value-area summary for one symbol at one period.
// Rows come straight out of the warehouse; prior_* columns carry the previous
// period's levels when the period before it had coverage. Optional columns are
// pointers: absent means the warehouse had no value, not zero.
type LevelRow struct {
	Symbol          string
	Timeframe       string
	PeriodStart     time.Time
	POC             float64
	VAH             float64
	VAL             float64
	PriorPOC        *float64
	PriorVAH        *float64
	PriorVAL        *float64
	VAWidthPct      *float64 // value-area height as a fraction of price
	POCChangePct    *float64
	ValueOverlapPct *float64 // overlap of this period's value area with the prior one
	CoverageFlag    *string
}

// HasPrior reports whether the row carries a usable previous-period reference.
func (r LevelRow) HasPrior() bool { return r.PriorPOC != nil }
