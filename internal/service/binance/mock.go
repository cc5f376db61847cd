package binance

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	drepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	"github.com/123jlee/market-workflow-app/pkg/util"
)

// Mock implements MarketData with deterministic-ish random walks, for local
// development without upstream access. Prices drift per symbol between calls.
type Mock struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64
}

var mockBasePrices = map[string]float64{
	"BTCUSDT": 65000,
	"ETHUSDT": 3400,
	"SOLUSDT": 160,
	"BNBUSDT": 580,
	"XRPUSDT": 0.62,
}

// NewMock creates a mock market data source.
func NewMock(seed int64) drepo.MarketData {
	m := &Mock{
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64, len(mockBasePrices)),
	}
	for sym, p := range mockBasePrices {
		m.prices[sym] = p
	}
	return m
}

func (m *Mock) CurrentPrices(ctx context.Context) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]float64, len(m.prices))
	for sym, p := range m.prices {
		// walk +-0.3% per refresh
		p *= 1 + (m.rng.Float64()-0.5)*0.006
		m.prices[sym] = p
		out[sym] = p
	}
	return out, nil
}

func (m *Mock) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	base, ok := m.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("mock: unknown symbol %s", symbol)
	}

	step := util.IntervalDuration(interval)
	openTime := time.Now().UTC().Truncate(step).Add(-step * time.Duration(limit))

	candles := make([]models.Candle, 0, limit)
	price := base * 0.99
	for i := 0; i < limit; i++ {
		move := (m.rng.Float64() - 0.5) * 0.004
		open := price
		closePrice := price * (1 + move)
		high := math.Max(open, closePrice) * (1 + m.rng.Float64()*0.001)
		low := math.Min(open, closePrice) * (1 - m.rng.Float64()*0.001)
		volume := 800 + m.rng.Float64()*400
		takerFraction := 0.45 + m.rng.Float64()*0.1

		candles = append(candles, models.Candle{
			OpenTime:     openTime,
			Open:         open,
			High:         high,
			Low:          low,
			Close:        closePrice,
			Volume:       volume,
			TakerBuyBase: volume * takerFraction,
			QuoteVolume:  volume * closePrice,
			Trades:       int64(500 + m.rng.Intn(500)),
		})

		price = closePrice
		openTime = openTime.Add(step)
	}
	return candles, nil
}
