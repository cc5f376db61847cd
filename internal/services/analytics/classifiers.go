package analytics

import (
	"math"
	"strings"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

// Row-local classifiers. Each one is a total function: a missing input maps to
// the documented neutral value, never to an error.

// ClassifyRegime buckets the value-area overlap into a regime. Missing overlap
// means the prior period gave us nothing to compare against: TRANSITIONAL.
// Boundaries are inclusive on the BALANCED and TRENDING sides.
func ClassifyRegime(overlap *float64, th Thresholds) models.Regime {
	if overlap == nil {
		return models.RegimeTransitional
	}
	switch {
	case *overlap >= th.OverlapBalanced:
		return models.RegimeBalanced
	case *overlap <= th.OverlapTrending:
		return models.RegimeTrending
	default:
		return models.RegimeTransitional
	}
}

// ClassifyDirection compares the current period's POC and value-area midpoint
// against the prior period's. Both deltas must agree strictly; a zero delta or
// a disagreement is NEUTRAL, as is a row without prior coverage.
func ClassifyDirection(row models.ContextRow) models.Direction {
	if row.PriorPOC == nil || row.PriorVAH == nil || row.PriorVAL == nil {
		return models.DirectionNeutral
	}
	pocDelta := row.POC - *row.PriorPOC
	mid := (row.VAH + row.VAL) / 2
	priorMid := (*row.PriorVAH + *row.PriorVAL) / 2
	midDelta := mid - priorMid

	switch {
	case pocDelta > 0 && midDelta > 0:
		return models.DirectionUp
	case pocDelta < 0 && midDelta < 0:
		return models.DirectionDown
	default:
		return models.DirectionNeutral
	}
}

// ClassifyInteraction tags where price sits against the anchor levels.
// Level tests are checked in strict priority order (POC, VAL, VAH) with a
// relative tolerance; only then the inside/below/above partition applies.
func ClassifyInteraction(price, poc, val, vah float64, th Thresholds) models.Interaction {
	tol := th.TolerancePct / 100

	if withinTolerance(price, poc, tol) {
		return models.InteractionTestPOC
	}
	if withinTolerance(price, val, tol) {
		return models.InteractionTestVAL
	}
	if withinTolerance(price, vah, tol) {
		return models.InteractionTestVAH
	}
	switch {
	case price >= val && price <= vah:
		return models.InteractionInsideValue
	case price < val:
		return models.InteractionBelowValue
	case price > vah:
		return models.InteractionAboveValue
	}
	return models.InteractionUnknown
}

func withinTolerance(price, level, tol float64) bool {
	if level == 0 {
		return false
	}
	return math.Abs(price-level)/level <= tol
}

// acceptedCoverage are the markers the warehouse uses for complete periods.
var acceptedCoverage = map[string]bool{"": true, "full": true, "complete": true}

// ClassifyWarnings builds the warning set for a row whose distances have
// already been computed. Set semantics: each tag appears at most once.
// PINNED is a conjunction of the near-POC and tight-width conditions.
func ClassifyWarnings(row models.ContextRow, th Thresholds) []models.Warning {
	var warnings []models.Warning

	if row.Coverage != nil && !acceptedCoverage[strings.ToLower(*row.Coverage)] {
		warnings = append(warnings, models.WarningLowConfidence)
	}

	if row.VAWidthPct != nil && *row.VAWidthPct < th.CompressionWidth {
		warnings = append(warnings, models.WarningCompressed)
	}

	if row.PctToPOC != nil && math.Abs(*row.PctToPOC) < th.PinnedDistance &&
		row.VAWidthPct != nil && *row.VAWidthPct < th.PinnedWidth {
		warnings = append(warnings, models.WarningPinned)
	}

	extended := (row.PctToVAL != nil && *row.PctToVAL < -th.ExtendedPct) ||
		(row.PctToVAH != nil && *row.PctToVAH > th.ExtendedPct)
	if extended {
		warnings = append(warnings, models.WarningExtended)
	}

	return warnings
}

// ClassifyBias folds regime, direction, interaction and warnings into one
// verdict. PINNED or COMPRESSED overrides everything: no verdict until the
// structure decompresses.
func ClassifyBias(row models.ContextRow) models.Bias {
	if row.HasWarning(models.WarningPinned) || row.HasWarning(models.WarningCompressed) {
		return models.BiasNeutralWait
	}

	if row.Regime == models.RegimeTrending {
		switch row.Direction {
		case models.DirectionUp:
			switch row.Interaction {
			case models.InteractionBelowValue, models.InteractionTestVAL,
				models.InteractionTestPOC, models.InteractionInsideValue:
				return models.BiasFavorsLong
			}
		case models.DirectionDown:
			switch row.Interaction {
			case models.InteractionAboveValue, models.InteractionTestVAH,
				models.InteractionTestPOC, models.InteractionInsideValue:
				return models.BiasFavorsShort
			}
		}
		return models.BiasNeutralWait
	}

	// BALANCED and TRANSITIONAL fade the edges of value.
	switch row.Interaction {
	case models.InteractionTestVAL, models.InteractionBelowValue:
		return models.BiasFavorsLong
	case models.InteractionTestVAH, models.InteractionAboveValue:
		return models.BiasFavorsShort
	}
	return models.BiasNeutralWait
}
