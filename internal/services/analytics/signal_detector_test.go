package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

// series builds n candles with constant volume and a fixed taker-buy fraction.
func series(n int, volume, takerFraction float64) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Open: 100, High: 101, Low: 99, Close: 100,
			Volume:       volume,
			TakerBuyBase: volume * takerFraction,
		}
	}
	return out
}

func TestDetectSignalsShortSeries(t *testing.T) {
	row := models.ContextRow{Regime: models.RegimeTrending, Interaction: models.InteractionTestPOC}
	assert.Empty(t, DetectSignals("BTCUSDT", series(24, 100, 0.9), row, Defaults()))
	assert.Empty(t, DetectSignals("BTCUSDT", nil, row, Defaults()))
}

func TestCVDMomentumBelowLongWindow(t *testing.T) {
	m, delta := CVDMomentum(series(20, 100, 0.9), 11, 21)
	assert.Equal(t, models.MomentumNeutral, m)
	assert.Nil(t, delta)
}

func TestCVDMomentumExactLongWindowBoundary(t *testing.T) {
	// Exactly 21 candles: the long average must use the full window, no
	// off-by-one truncation, and the raw delta must be returned.
	m, delta := CVDMomentum(series(21, 1000, 0.55), 11, 21)
	assert.Equal(t, models.MomentumBullish, m)
	require.NotNil(t, delta)
	assert.Greater(t, *delta, 0.0)
}

func TestCVDMomentumBearish(t *testing.T) {
	m, delta := CVDMomentum(series(30, 1000, 0.45), 11, 21)
	assert.Equal(t, models.MomentumBearish, m)
	require.NotNil(t, delta)
	assert.Less(t, *delta, 0.0)
}

func TestCVDMomentumBalancedFlow(t *testing.T) {
	m, delta := CVDMomentum(series(30, 1000, 0.5), 11, 21)
	assert.Equal(t, models.MomentumNeutral, m)
	require.NotNil(t, delta)
}

// End-to-end scenario: 30 bars with taker-buy share persistently above 0.55
// produce a monotonically rising CVD curve and a BULLISH verdict.
func TestCVDMomentumBullishScenario(t *testing.T) {
	m, _ := CVDMomentum(series(30, 1000, 0.56), 11, 21)
	assert.Equal(t, models.MomentumBullish, m)
}

func TestDetectVolumeSpikeAtLevel(t *testing.T) {
	candles := series(30, 100, 0.5)
	candles[len(candles)-1].Volume = 1000
	candles[len(candles)-1].TakerBuyBase = 500
	row := models.ContextRow{
		Regime:      models.RegimeBalanced,
		Interaction: models.InteractionTestPOC,
		Price:       101.25,
	}

	out := DetectSignals("BTCUSDT", candles, row, Defaults())
	require.Len(t, out, 1)
	s := out[0]
	assert.Equal(t, models.TriggerVolZScore, s.Trigger)
	require.NotNil(t, s.ZScore)
	assert.GreaterOrEqual(t, *s.ZScore, 2.5)
	assert.Equal(t, models.InteractionTestPOC, s.PriceLoc)
	assert.Equal(t, models.RegimeBalanced, s.State)
	assert.Equal(t, 101.25, s.Price)
}

func TestDetectVolumeSpikeInsideValueSuppressed(t *testing.T) {
	candles := series(30, 100, 0.5)
	candles[len(candles)-1].Volume = 1000
	row := models.ContextRow{Regime: models.RegimeBalanced, Interaction: models.InteractionInsideValue}

	assert.Empty(t, DetectSignals("BTCUSDT", candles, row, Defaults()))
}

func TestDetectBullishAlignment(t *testing.T) {
	// Flat volume keeps the z-score undefined; only the CVD trigger can fire.
	candles := series(30, 1000, 0.56)
	row := models.ContextRow{Regime: models.RegimeTrending, Interaction: models.InteractionBelowValue}

	out := DetectSignals("ETHUSDT", candles, row, Defaults())
	require.Len(t, out, 1)
	assert.Equal(t, models.TriggerCVDBullish, out[0].Trigger)
	assert.Nil(t, out[0].ZScore)
	assert.Equal(t, models.MomentumBullish, out[0].CVDMomentum)
}

func TestDetectBearishAlignmentRequiresTrending(t *testing.T) {
	candles := series(30, 1000, 0.44)
	row := models.ContextRow{Regime: models.RegimeBalanced, Interaction: models.InteractionAboveValue}
	assert.Empty(t, DetectSignals("ETHUSDT", candles, row, Defaults()))

	row.Regime = models.RegimeTrending
	out := DetectSignals("ETHUSDT", candles, row, Defaults())
	require.Len(t, out, 1)
	assert.Equal(t, models.TriggerCVDBearish, out[0].Trigger)
}

func TestDetectMultipleTriggersSameScan(t *testing.T) {
	// Spike volume on the last candle of a bullish series at the POC of a
	// trending market: conditions are independent, two signals fire.
	candles := series(30, 1000, 0.56)
	candles[len(candles)-1].Volume = 10000
	candles[len(candles)-1].TakerBuyBase = 5600
	row := models.ContextRow{Regime: models.RegimeTrending, Interaction: models.InteractionTestPOC}

	out := DetectSignals("SOLUSDT", candles, row, Defaults())
	require.Len(t, out, 2)
	assert.Equal(t, models.TriggerVolZScore, out[0].Trigger)
	assert.Equal(t, models.TriggerCVDBullish, out[1].Trigger)
}

func TestFormatTicket(t *testing.T) {
	z := 3.14
	s := models.Signal{
		Symbol:      "BTCUSDT",
		Trigger:     models.TriggerVolZScore,
		ZScore:      &z,
		CVDMomentum: models.MomentumBullish,
		PriceLoc:    models.InteractionTestPOC,
		State:       models.RegimeTrending,
		Price:       50123.456,
	}
	assert.Equal(t,
		"BTCUSDT | VOL_ZSCORE | Z:3.14 | CVD:BULLISH | Loc:TEST_POC | State:TRENDING | @50123.46",
		FormatTicket(s))

	s.ZScore = nil
	s.Trigger = models.TriggerCVDBullish
	assert.Equal(t,
		"BTCUSDT | CVD_BULLISH_ALIGN | Z:N/A | CVD:BULLISH | Loc:TEST_POC | State:TRENDING | @50123.46",
		FormatTicket(s))
}
