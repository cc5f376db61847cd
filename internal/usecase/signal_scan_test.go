package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	"github.com/123jlee/market-workflow-app/internal/services/analytics"
)

type capturePublisher struct {
	published []*models.Signal
}

func (p *capturePublisher) Publish(ctx context.Context, s *models.Signal) error {
	p.published = append(p.published, s)
	return nil
}

func (p *capturePublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	p.published = append(p.published, signals...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// spikeSeries builds candles with steady volume and a final-candle volume spike.
func spikeSeries(n int, base, spike float64) []models.Candle {
	open := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		vol := base + float64(i%5)
		if i == n-1 {
			vol = spike
		}
		out = append(out, models.Candle{
			OpenTime:     open.Add(time.Duration(i) * 15 * time.Minute),
			Open:         100, High: 101, Low: 99, Close: 100,
			Volume:       vol,
			TakerBuyBase: vol * 0.5,
		})
	}
	return out
}

func TestScanDetectsAndPublishes(t *testing.T) {
	levels := &fakeLevelStore{rows: []models.LevelRow{
		levelRow("BTCUSDT", 0.85), // TEST_POC at price 100
		levelRow("ETHUSDT", 0.85), // inside value at 105, WATCH
	}}
	market := &fakeMarketData{
		prices: map[string]float64{"BTCUSDT": 100, "ETHUSDT": 105},
		candles: map[string][]models.Candle{
			"BTCUSDT": spikeSeries(40, 100, 600),
		},
	}
	pub := &capturePublisher{}

	snap := NewSnapshotUseCase(levels, market, nil, nopMetrics{}, analytics.Defaults(), 21, time.Minute)
	uc := NewScanUseCase(snap, market, pub, nopMetrics{}, analytics.Defaults(), 2, 100, 100)

	res, err := uc.Scan(context.Background(), "15m", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// only the TRADE_READY symbol is scanned
	if res.Scanned != 1 {
		t.Fatalf("expected 1 scanned, got %d", res.Scanned)
	}
	if len(res.Signals) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(res.Signals))
	}
	s := res.Signals[0]
	if s.Trigger != models.TriggerVolZScore {
		t.Fatalf("expected VOL_ZSCORE, got %s", s.Trigger)
	}
	if s.Symbol != "BTCUSDT" {
		t.Fatalf("unexpected symbol %s", s.Symbol)
	}
	if len(res.Tickets) != 1 {
		t.Fatalf("expected 1 ticket, got %d", len(res.Tickets))
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published signal, got %d", len(pub.published))
	}
}

func TestScanSkipsSymbolsBelowMinCandles(t *testing.T) {
	levels := &fakeLevelStore{rows: []models.LevelRow{levelRow("BTCUSDT", 0.85)}}
	market := &fakeMarketData{
		prices:  map[string]float64{"BTCUSDT": 100},
		candles: map[string][]models.Candle{"BTCUSDT": spikeSeries(10, 100, 600)},
	}
	pub := &capturePublisher{}

	snap := NewSnapshotUseCase(levels, market, nil, nopMetrics{}, analytics.Defaults(), 21, time.Minute)
	uc := NewScanUseCase(snap, market, pub, nopMetrics{}, analytics.Defaults(), 2, 100, 100)

	res, err := uc.Scan(context.Background(), "15m", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Scanned != 1 {
		t.Fatalf("expected 1 scanned, got %d", res.Scanned)
	}
	if len(res.Signals) != 0 {
		t.Fatalf("expected no signals on short history, got %d", len(res.Signals))
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected nothing published, got %d", len(pub.published))
	}
}
