package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	"github.com/123jlee/market-workflow-app/internal/services/features"
)

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func TestClassifyRegimeBoundaries(t *testing.T) {
	th := Defaults()

	cases := []struct {
		name    string
		overlap *float64
		want    models.Regime
	}{
		{"missing", nil, models.RegimeTransitional},
		{"high overlap", fptr(0.85), models.RegimeBalanced},
		{"balanced boundary inclusive", fptr(0.70), models.RegimeBalanced},
		{"just under balanced", fptr(0.699), models.RegimeTransitional},
		{"trending boundary inclusive", fptr(0.30), models.RegimeTrending},
		{"just over trending", fptr(0.301), models.RegimeTransitional},
		{"low overlap", fptr(0.05), models.RegimeTrending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyRegime(tc.overlap, th))
		})
	}
}

func TestClassifyDirection(t *testing.T) {
	row := models.ContextRow{POC: 105, VAH: 110, VAL: 100}

	// no prior coverage
	assert.Equal(t, models.DirectionNeutral, ClassifyDirection(row))

	// both deltas up
	row.PriorPOC, row.PriorVAH, row.PriorVAL = fptr(100), fptr(105), fptr(95)
	assert.Equal(t, models.DirectionUp, ClassifyDirection(row))

	// both deltas down
	row.PriorPOC, row.PriorVAH, row.PriorVAL = fptr(110), fptr(120), fptr(110)
	assert.Equal(t, models.DirectionDown, ClassifyDirection(row))

	// POC up, midpoint down: disagreement
	row.PriorPOC, row.PriorVAH, row.PriorVAL = fptr(100), fptr(125), fptr(105)
	assert.Equal(t, models.DirectionNeutral, ClassifyDirection(row))

	// zero POC delta
	row.PriorPOC, row.PriorVAH, row.PriorVAL = fptr(105), fptr(105), fptr(95)
	assert.Equal(t, models.DirectionNeutral, ClassifyDirection(row))
}

func TestClassifyInteractionPriority(t *testing.T) {
	th := Defaults()
	// Levels close enough that the POC test shadows the VAH test.
	assert.Equal(t, models.InteractionTestPOC, ClassifyInteraction(100.1, 100, 90, 100.15, th))

	assert.Equal(t, models.InteractionTestVAL, ClassifyInteraction(90.1, 100, 90, 110, th))
	assert.Equal(t, models.InteractionTestVAH, ClassifyInteraction(110.2, 100, 90, 110, th))
	assert.Equal(t, models.InteractionInsideValue, ClassifyInteraction(95, 100, 90, 110, th))
	assert.Equal(t, models.InteractionBelowValue, ClassifyInteraction(80, 100, 90, 110, th))
	assert.Equal(t, models.InteractionAboveValue, ClassifyInteraction(120, 100, 90, 110, th))
}

func TestClassifyWarningsPinnedIsConjunction(t *testing.T) {
	th := Defaults()

	// Near POC but wide value area: not pinned.
	wide := models.ContextRow{PctToPOC: fptr(0.1), VAWidthPct: fptr(0.05)}
	assert.NotContains(t, ClassifyWarnings(wide, th), models.WarningPinned)

	// Narrow value area but far from POC: not pinned (compressed though, 0.01 < 0.015).
	far := models.ContextRow{PctToPOC: fptr(1.5), VAWidthPct: fptr(0.01)}
	ws := ClassifyWarnings(far, th)
	assert.NotContains(t, ws, models.WarningPinned)
	assert.Contains(t, ws, models.WarningCompressed)

	// Both conditions: pinned.
	pinned := models.ContextRow{PctToPOC: fptr(0.1), VAWidthPct: fptr(0.018)}
	assert.Contains(t, ClassifyWarnings(pinned, th), models.WarningPinned)
}

func TestClassifyWarningsExtendedSetSemantics(t *testing.T) {
	th := Defaults()

	// Both extension conditions true: tag still appears once.
	row := models.ContextRow{PctToVAL: fptr(-3.0), PctToVAH: fptr(2.5)}
	ws := ClassifyWarnings(row, th)
	count := 0
	for _, w := range ws {
		if w == models.WarningExtended {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestClassifyWarningsLowConfidence(t *testing.T) {
	th := Defaults()
	assert.Contains(t,
		ClassifyWarnings(models.ContextRow{Coverage: sptr("partial")}, th),
		models.WarningLowConfidence)
	assert.Empty(t, ClassifyWarnings(models.ContextRow{Coverage: sptr("FULL")}, th))
	assert.Empty(t, ClassifyWarnings(models.ContextRow{Coverage: sptr("")}, th))
	assert.Empty(t, ClassifyWarnings(models.ContextRow{}, th))
}

func TestClassifyBiasOverride(t *testing.T) {
	row := models.ContextRow{
		Regime:      models.RegimeTrending,
		Direction:   models.DirectionUp,
		Interaction: models.InteractionTestPOC,
		Warnings:    []models.Warning{models.WarningCompressed},
	}
	assert.Equal(t, models.BiasNeutralWait, ClassifyBias(row))
}

func TestClassifyBiasTrending(t *testing.T) {
	row := models.ContextRow{Regime: models.RegimeTrending, Direction: models.DirectionUp}

	row.Interaction = models.InteractionBelowValue
	assert.Equal(t, models.BiasFavorsLong, ClassifyBias(row))

	// Extended above value is excluded for an UP bias.
	row.Interaction = models.InteractionAboveValue
	assert.Equal(t, models.BiasNeutralWait, ClassifyBias(row))

	row.Direction = models.DirectionDown
	assert.Equal(t, models.BiasFavorsShort, ClassifyBias(row))

	row.Direction = models.DirectionNeutral
	assert.Equal(t, models.BiasNeutralWait, ClassifyBias(row))
}

func TestClassifyBiasBalancedFadesEdges(t *testing.T) {
	row := models.ContextRow{Regime: models.RegimeBalanced}

	row.Interaction = models.InteractionTestVAL
	assert.Equal(t, models.BiasFavorsLong, ClassifyBias(row))

	row.Interaction = models.InteractionAboveValue
	assert.Equal(t, models.BiasFavorsShort, ClassifyBias(row))

	row.Interaction = models.InteractionInsideValue
	assert.Equal(t, models.BiasNeutralWait, ClassifyBias(row))
}

// End-to-end scenario: price 5% above VAH in an up-trending market is already
// extended, so no long bias and the EXTENDED warning is present.
func TestClassifyExtendedTrendingScenario(t *testing.T) {
	th := Defaults()
	r := models.LevelRow{
		POC: 100, VAH: 110, VAL: 90,
		PriorPOC: fptr(90), PriorVAH: fptr(100), PriorVAL: fptr(80),
		VAWidthPct:      fptr(0.18),
		ValueOverlapPct: fptr(0.10),
	}
	row := Classify("ETHUSDT", r, 115.5, th)

	assert.Equal(t, models.RegimeTrending, row.Regime)
	assert.Equal(t, models.DirectionUp, row.Direction)
	assert.Equal(t, models.InteractionAboveValue, row.Interaction)
	assert.Contains(t, row.Warnings, models.WarningExtended)
	assert.Equal(t, models.BiasNeutralWait, row.Bias)
}

func TestClassifyDistancesMatchHelper(t *testing.T) {
	th := Defaults()
	r := models.LevelRow{POC: 100, VAH: 110, VAL: 90, ValueOverlapPct: fptr(0.5), VAWidthPct: fptr(0.2)}
	row := Classify("BTCUSDT", r, 95, th)

	poc := 100.0
	assert.Equal(t, *features.PercentDistance(95, &poc), *row.PctToPOC)
}
