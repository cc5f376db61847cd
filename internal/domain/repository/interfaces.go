package repository

import (
	"context"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

// LevelStore reads structural value-area rows out of the warehouse.
type LevelStore interface {
	RecentLevels(ctx context.Context, lookbackDays int) ([]models.LevelRow, error)
	Health(ctx context.Context) error
}

// MarketData delivers point-in-time price snapshots and candle series.
// Implementations may be live or simulated; callers cannot tell the difference.
type MarketData interface {
	CurrentPrices(ctx context.Context) (map[string]float64, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)
}

// PriceStream pushes live price ticks between refresh cycles.
type PriceStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SignalPublisher fans detected signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	PublishBatch(ctx context.Context, signals []*models.Signal) error
	Close() error
}

// SignalHistory is the append-only record of emitted signals.
type SignalHistory interface {
	Append(ctx context.Context, s *models.Signal, ticket string) error
	Recent(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.Signal, error)
	Health(ctx context.Context) error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordFetch(source, kind string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordSignal(trigger, symbol string)
}
