package features

import (
	"math"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

// LatestZScore computes the rolling z-score of the last value in xs over the
// given window: (x_last - mean(window)) / stddev(window), where the window
// includes the last value. Sample standard deviation (n-1 denominator).
// Returns nil when fewer than window values exist or the deviation is zero.
func LatestZScore(xs []float64, window int) *float64 {
	if window < 2 || len(xs) < window {
		return nil
	}
	tail := xs[len(xs)-window:]
	sum, sum2 := 0.0, 0.0
	for _, v := range tail {
		sum += v
		sum2 += v * v
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance <= 0 {
		return nil
	}
	z := (tail[len(tail)-1] - mean) / math.Sqrt(variance)
	return &z
}

// Volumes extracts the volume column of a candle series.
func Volumes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// CVDCurve builds the cumulative volume delta curve: running sum of
// 2*takerBuyBase - volume per candle (net buy-minus-sell base volume).
func CVDCurve(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	cum := 0.0
	for i, c := range candles {
		cum += 2*c.TakerBuyBase - c.Volume
		out[i] = cum
	}
	return out
}

// LatestSMA returns the mean of the last window values, or nil when the
// series is shorter than the window.
func LatestSMA(xs []float64, window int) *float64 {
	if window <= 0 || len(xs) < window {
		return nil
	}
	sum := 0.0
	for _, v := range xs[len(xs)-window:] {
		sum += v
	}
	m := sum / float64(window)
	return &m
}
