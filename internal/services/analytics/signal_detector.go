package analytics

import (
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	"github.com/123jlee/market-workflow-app/internal/services/features"
)

// CVDMomentum classifies the order-flow pressure of a candle series by
// comparing short and long moving averages of the CVD curve. Fewer candles
// than the long window gives NEUTRAL with a nil delta; otherwise the raw
// short-long delta is always returned.
func CVDMomentum(candles []models.Candle, short, long int) (models.Momentum, *float64) {
	if len(candles) < long {
		return models.MomentumNeutral, nil
	}
	cvd := features.CVDCurve(candles)
	s := features.LatestSMA(cvd, short)
	l := features.LatestSMA(cvd, long)
	if s == nil || l == nil {
		return models.MomentumNeutral, nil
	}
	delta := *s - *l
	switch {
	case *s > *l*1.01:
		return models.MomentumBullish, &delta
	case *s < *l*0.99:
		return models.MomentumBearish, &delta
	default:
		return models.MomentumNeutral, &delta
	}
}

// atKeyLevel is the "near or outside a key level, not comfortably inside" set.
func atKeyLevel(loc models.Interaction) bool {
	switch loc {
	case models.InteractionTestPOC, models.InteractionAboveValue, models.InteractionBelowValue:
		return true
	}
	return false
}

// DetectSignals scans one symbol's candle series against its classified
// context row and returns zero or more signals. Conditions are independent;
// a single scan may fire several triggers. A series shorter than MinCandles
// yields no signals, never an error. The function is pure: accumulation and
// clearing belong to the caller.
func DetectSignals(symbol string, candles []models.Candle, row models.ContextRow, th Thresholds) []models.Signal {
	if len(candles) < th.MinCandles {
		return nil
	}

	zscore := features.LatestZScore(features.Volumes(candles), th.ZScoreWindow)
	momentum, _ := CVDMomentum(candles, th.CVDShort, th.CVDLong)
	now := time.Now().UTC()

	var rounded *float64
	if zscore != nil {
		z := features.Round2(*zscore)
		rounded = &z
	}

	base := models.Signal{
		Symbol:      symbol,
		ZScore:      rounded,
		CVDMomentum: momentum,
		PriceLoc:    row.Interaction,
		State:       row.Regime,
		Price:       row.Price,
		DetectedAt:  now,
	}

	var out []models.Signal

	// A: volume spike at structure.
	if zscore != nil && *zscore >= th.ZScoreThreshold && atKeyLevel(row.Interaction) {
		s := base
		s.Trigger = models.TriggerVolZScore
		out = append(out, s)
	}

	// B/C: CVD momentum aligned with a trending auction.
	if momentum == models.MomentumBullish && row.Regime == models.RegimeTrending &&
		(row.Interaction == models.InteractionBelowValue || row.Interaction == models.InteractionTestPOC) {
		s := base
		s.Trigger = models.TriggerCVDBullish
		out = append(out, s)
	}
	if momentum == models.MomentumBearish && row.Regime == models.RegimeTrending &&
		(row.Interaction == models.InteractionAboveValue || row.Interaction == models.InteractionTestPOC) {
		s := base
		s.Trigger = models.TriggerCVDBearish
		out = append(out, s)
	}

	return out
}
