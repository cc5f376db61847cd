package repository

import "strings"

// Timeframe is a canonical period label for structural rows.
type Timeframe string

const (
	TFWeekly Timeframe = "W"
	TFDaily  Timeframe = "D"
	TF4h     Timeframe = "4h"
	TF1h     Timeframe = "1h"
)

// AnchorTimeframe is the structural timeframe the scanner classifies against.
func AnchorTimeframe() Timeframe { return TFWeekly }

// NormalizeTimeframe collapses the label variants the warehouse emits
// ("Weekly", "W", "1w", "Daily", "D", "1d", ...) to the canonical set.
// Unknown labels pass through unchanged so they fail the anchor filter
// instead of being silently misfiled.
func NormalizeTimeframe(s string) Timeframe {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "1w", "weekly", "week":
		return TFWeekly
	case "d", "1d", "daily", "day":
		return TFDaily
	case "4h", "240":
		return TF4h
	case "1h", "60":
		return TF1h
	default:
		return Timeframe(s)
	}
}
