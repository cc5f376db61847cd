package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	"github.com/123jlee/market-workflow-app/internal/services/analytics"
)

type fakeLevelStore struct {
	rows []models.LevelRow
	err  error
}

func (f *fakeLevelStore) RecentLevels(ctx context.Context, lookbackDays int) ([]models.LevelRow, error) {
	return f.rows, f.err
}

func (f *fakeLevelStore) Health(ctx context.Context) error { return nil }

type fakeMarketData struct {
	prices  map[string]float64
	candles map[string][]models.Candle
	calls   int
}

func (f *fakeMarketData) CurrentPrices(ctx context.Context) (map[string]float64, error) {
	f.calls++
	return f.prices, nil
}

func (f *fakeMarketData) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	return f.candles[symbol], nil
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(source, kind string)              {}
func (nopMetrics) RecordError(kind string)                      {}
func (nopMetrics) RecordLastPrice(symbol string, price float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)     {}
func (nopMetrics) RecordSignal(trigger, symbol string)          {}

func fptr(v float64) *float64 { return &v }

func levelRow(symbol string, overlap float64) models.LevelRow {
	return models.LevelRow{
		Symbol:          symbol,
		Timeframe:       "1w",
		PeriodStart:     time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		POC:             100,
		VAH:             110,
		VAL:             90,
		VAWidthPct:      fptr(0.2),
		ValueOverlapPct: fptr(overlap),
	}
}

func TestSnapshotBuildsAndBands(t *testing.T) {
	levels := &fakeLevelStore{rows: []models.LevelRow{
		levelRow("BTCUSDT", 0.85),
		levelRow("ETHUSDT", 0.10),
	}}
	market := &fakeMarketData{prices: map[string]float64{
		"BTCUSDT": 100, // at POC
		"ETHUSDT": 115, // above value, trending
	}}

	uc := NewSnapshotUseCase(levels, market, nil, nopMetrics{}, analytics.Defaults(), 21, time.Minute)

	rows, err := uc.Snapshot(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Band != models.BandTradeReady {
			t.Fatalf("%s: expected TRADE_READY, got %s", r.Symbol, r.Band)
		}
	}
}

func TestSnapshotLiveTickOverridesRESTPrice(t *testing.T) {
	levels := &fakeLevelStore{rows: []models.LevelRow{levelRow("BTCUSDT", 0.85)}}
	market := &fakeMarketData{prices: map[string]float64{"BTCUSDT": 95}}

	uc := NewSnapshotUseCase(levels, market, nil, nopMetrics{}, analytics.Defaults(), 21, time.Minute)

	if err := uc.Apply(context.Background(), &models.PriceTick{
		Symbol: "BTCUSDT", Timestamp: time.Now().Unix(), Price: 100, Volume: 1,
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	rows, err := uc.Snapshot(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Price != 100 {
		t.Fatalf("expected live price 100, got %v", rows[0].Price)
	}
	if rows[0].Interaction != models.InteractionTestPOC {
		t.Fatalf("expected TEST_POC at live price, got %s", rows[0].Interaction)
	}
}

func TestSnapshotRowLookupNormalizesContractSuffix(t *testing.T) {
	levels := &fakeLevelStore{rows: []models.LevelRow{levelRow("BTCUSDT", 0.85)}}
	market := &fakeMarketData{prices: map[string]float64{"BTCUSDT": 100}}

	uc := NewSnapshotUseCase(levels, market, nil, nopMetrics{}, analytics.Defaults(), 21, time.Minute)

	row, err := uc.Row(context.Background(), "BTCUSDT.P")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row == nil || row.Symbol != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT row, got %+v", row)
	}

	missing, err := uc.Row(context.Background(), "DOGEUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown symbol")
	}
}
