package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	domrepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	"github.com/123jlee/market-workflow-app/internal/services/analytics"
	"github.com/123jlee/market-workflow-app/pkg/cache"
	applogger "github.com/123jlee/market-workflow-app/pkg/logger"
)

var snapshotCacheKey = cache.Key("snapshot", "context")

// SnapshotUseCase builds the banded market context snapshot: latest anchor
// levels joined with current prices, classified and tiered.
//
// It also implements middleware.TickSink so the live price stream keeps the
// in-memory price book fresher than the REST snapshot between refreshes.
type SnapshotUseCase struct {
	levels  domrepo.LevelStore
	market  domrepo.MarketData
	cache   cache.Service
	metrics domrepo.Metrics
	l       *applogger.Logger

	th           analytics.Thresholds
	lookbackDays int
	ttl          time.Duration

	mu   sync.RWMutex
	book map[string]float64
}

func NewSnapshotUseCase(
	levels domrepo.LevelStore,
	market domrepo.MarketData,
	cacheSvc cache.Service,
	metrics domrepo.Metrics,
	th analytics.Thresholds,
	lookbackDays int,
	ttl time.Duration,
) *SnapshotUseCase {
	return &SnapshotUseCase{
		levels:       levels,
		market:       market,
		cache:        cacheSvc,
		metrics:      metrics,
		th:           th,
		lookbackDays: lookbackDays,
		ttl:          ttl,
		book:         make(map[string]float64),
	}
}

// SetLogger injects a structured logger.
func (uc *SnapshotUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// Apply ingests one live tick into the price book.
func (uc *SnapshotUseCase) Apply(ctx context.Context, t *models.PriceTick) error {
	uc.mu.Lock()
	uc.book[t.Symbol] = t.Price
	uc.mu.Unlock()
	if uc.metrics != nil {
		uc.metrics.RecordLastPrice(t.Symbol, t.Price)
	}
	return nil
}

// Snapshot returns the banded context rows, serving from cache unless refresh
// is set or the cached copy expired.
func (uc *SnapshotUseCase) Snapshot(ctx context.Context, refresh bool) ([]models.ContextRow, error) {
	if !refresh && uc.cache != nil {
		var cached []models.ContextRow
		err := uc.cache.Get(ctx, snapshotCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) && uc.l != nil {
			uc.l.Warn("snapshot cache get failed", applogger.Error(err))
		}
	}

	rows, err := uc.build(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, snapshotCacheKey, rows, uc.ttl); err != nil && uc.l != nil {
			uc.l.Warn("snapshot cache set failed", applogger.Error(err))
		}
	}
	return rows, nil
}

// Row returns the context row for one symbol, or nil if the symbol has no
// anchor levels or no current price.
func (uc *SnapshotUseCase) Row(ctx context.Context, symbol string) (*models.ContextRow, error) {
	rows, err := uc.Snapshot(ctx, false)
	if err != nil {
		return nil, err
	}
	want := analytics.NormalizeSymbol(symbol)
	for i := range rows {
		if rows[i].Symbol == want {
			return &rows[i], nil
		}
	}
	return nil, nil
}

func (uc *SnapshotUseCase) build(ctx context.Context) ([]models.ContextRow, error) {
	start := time.Now()

	levels, err := uc.levels.RecentLevels(ctx, uc.lookbackDays)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("snapshot_levels")
		}
		return nil, fmt.Errorf("snapshot levels: %w", err)
	}

	prices, err := uc.market.CurrentPrices(ctx)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("snapshot_prices")
		}
		return nil, fmt.Errorf("snapshot prices: %w", err)
	}

	// live ticks override the REST snapshot
	uc.mu.RLock()
	for sym, p := range uc.book {
		if p > 0 {
			prices[sym] = p
		}
	}
	uc.mu.RUnlock()

	rows := analytics.BuildContext(levels, prices, uc.th)
	rows = analytics.BandAll(rows)

	if uc.l != nil {
		uc.l.Info("context snapshot built",
			applogger.Int("levels", len(levels)),
			applogger.Int("prices", len(prices)),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	if uc.metrics != nil {
		uc.metrics.RecordLatency("snapshot_build", time.Since(start).Seconds())
	}
	return rows, nil
}
