package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

func TestBandCompressionWinsOverTestTag(t *testing.T) {
	row := models.ContextRow{
		Regime:      models.RegimeTrending,
		Interaction: models.InteractionTestPOC,
		Warnings:    []models.Warning{models.WarningCompressed},
	}
	assert.Equal(t, models.BandIgnore, ClassifyBand(row))
}

func TestBandPinnedBalanced(t *testing.T) {
	row := models.ContextRow{
		Regime:      models.RegimeBalanced,
		Interaction: models.InteractionTestVAL,
		Warnings:    []models.Warning{models.WarningPinned},
	}
	assert.Equal(t, models.BandIgnore, ClassifyBand(row))

	// Pinned in a trending profile does not demote; the test tag wins.
	row.Regime = models.RegimeTrending
	assert.Equal(t, models.BandTradeReady, ClassifyBand(row))
}

func TestBandTestTagBeatsBalancedInside(t *testing.T) {
	row := models.ContextRow{
		Regime:      models.RegimeBalanced,
		Interaction: models.InteractionTestPOC,
	}
	assert.Equal(t, models.BandTradeReady, ClassifyBand(row))
}

func TestBandTiers(t *testing.T) {
	cases := []struct {
		regime models.Regime
		inter  models.Interaction
		want   models.Band
	}{
		{models.RegimeTrending, models.InteractionAboveValue, models.BandTradeReady},
		{models.RegimeTransitional, models.InteractionInsideValue, models.BandTradeReady},
		{models.RegimeBalanced, models.InteractionInsideValue, models.BandWatch},
		{models.RegimeBalanced, models.InteractionAboveValue, models.BandIgnore},
	}
	for _, tc := range cases {
		got := ClassifyBand(models.ContextRow{Regime: tc.regime, Interaction: tc.inter})
		assert.Equal(t, tc.want, got, "regime=%s inter=%s", tc.regime, tc.inter)
	}
}

func TestBandAllEmptyPassthrough(t *testing.T) {
	assert.Empty(t, BandAll(nil))
}

// End-to-end scenario: high overlap, price exactly on POC, sane width.
// The POC test fires before the balanced/inside check: highest tier.
func TestBandTestPOCScenario(t *testing.T) {
	th := Defaults()
	r := models.LevelRow{
		POC: 50000, VAH: 52000, VAL: 48000,
		VAWidthPct:      fptr(0.08),
		ValueOverlapPct: fptr(0.85),
	}
	row := Classify("BTCUSDT", r, 50000, th)
	row.Band = ClassifyBand(row)

	assert.Equal(t, models.RegimeBalanced, row.Regime)
	assert.Equal(t, models.InteractionTestPOC, row.Interaction)
	assert.NotContains(t, row.Warnings, models.WarningPinned)
	assert.NotContains(t, row.Warnings, models.WarningCompressed)
	assert.Equal(t, models.BandTradeReady, row.Band)
}

// End-to-end scenario: a compressed value area is ignored no matter how
// interesting the interaction looks.
func TestBandCompressedScenario(t *testing.T) {
	th := Defaults()
	r := models.LevelRow{
		POC: 100, VAH: 100.5, VAL: 99.5,
		VAWidthPct:      fptr(0.01),
		ValueOverlapPct: fptr(0.20),
	}
	row := Classify("DOGEUSDT", r, 99.52, th)
	row.Band = ClassifyBand(row)

	assert.Contains(t, row.Warnings, models.WarningCompressed)
	assert.Equal(t, models.BandIgnore, row.Band)
}
