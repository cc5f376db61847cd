package features

import (
	"math"
	"testing"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

func TestLatestZScoreInsufficientWindow(t *testing.T) {
	xs := []float64{1, 2, 3}
	if z := LatestZScore(xs, 20); z != nil {
		t.Fatalf("expected nil on short series, got %v", *z)
	}
}

func TestLatestZScoreSpike(t *testing.T) {
	xs := make([]float64, 20)
	for i := range xs {
		xs[i] = 100
	}
	xs[19] = 1000
	z := LatestZScore(xs, 20)
	if z == nil {
		t.Fatalf("expected z-score")
	}
	if *z <= 2.5 {
		t.Fatalf("expected spike z > 2.5, got %v", *z)
	}
}

func TestLatestZScoreFlatSeries(t *testing.T) {
	xs := make([]float64, 20)
	for i := range xs {
		xs[i] = 42
	}
	if z := LatestZScore(xs, 20); z != nil {
		t.Fatalf("expected nil for zero deviation, got %v", *z)
	}
}

func TestCVDCurveCumulates(t *testing.T) {
	candles := []models.Candle{
		{Volume: 100, TakerBuyBase: 70}, // delta +40
		{Volume: 100, TakerBuyBase: 30}, // delta -40
		{Volume: 50, TakerBuyBase: 40},  // delta +30
	}
	cvd := CVDCurve(candles)
	want := []float64{40, 0, 30}
	for i := range want {
		if math.Abs(cvd[i]-want[i]) > 1e-9 {
			t.Fatalf("cvd[%d] = %v, want %v", i, cvd[i], want[i])
		}
	}
}

func TestLatestSMABoundary(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	if m := LatestSMA(xs, 6); m != nil {
		t.Fatalf("expected nil below window, got %v", *m)
	}
	m := LatestSMA(xs, 5)
	if m == nil || *m != 3 {
		t.Fatalf("expected full-window mean 3, got %v", m)
	}
}
