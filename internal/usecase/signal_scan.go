package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	domrepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	"github.com/123jlee/market-workflow-app/internal/service/ratelimit"
	"github.com/123jlee/market-workflow-app/internal/services/analytics"
	applogger "github.com/123jlee/market-workflow-app/pkg/logger"
)

// ScanUseCase fans a signal scan out over the trade-ready slice of the
// snapshot, fetching candles per symbol through a shared rate limit.
type ScanUseCase struct {
	snapshot  *SnapshotUseCase
	market    domrepo.MarketData
	publisher domrepo.SignalPublisher
	metrics   domrepo.Metrics
	limiter   *ratelimit.Limiter
	l         *applogger.Logger

	th       analytics.Thresholds
	workers  int
	capacity float64
	refill   float64
	timeout  time.Duration
}

func NewScanUseCase(
	snapshot *SnapshotUseCase,
	market domrepo.MarketData,
	publisher domrepo.SignalPublisher,
	metrics domrepo.Metrics,
	th analytics.Thresholds,
	workers int,
	klineCapacity, klineRefillPerSec float64,
) *ScanUseCase {
	if workers <= 0 {
		workers = 4
	}
	return &ScanUseCase{
		snapshot:  snapshot,
		market:    market,
		publisher: publisher,
		metrics:   metrics,
		limiter:   ratelimit.New(),
		th:        th,
		workers:   workers,
		capacity:  klineCapacity,
		refill:    klineRefillPerSec,
		timeout:   60 * time.Second,
	}
}

// SetLogger injects a structured logger.
func (uc *ScanUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// ScanResult is the outcome of one full scan pass.
type ScanResult struct {
	Scanned   int               `json:"scanned"`
	Signals   []models.Signal   `json:"signals"`
	Tickets   []string          `json:"tickets"`
	Errors    map[string]string `json:"errors,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	Elapsed   string            `json:"elapsed"`
}

// Scan runs the detector over every TRADE_READY symbol in the snapshot.
func (uc *ScanUseCase) Scan(ctx context.Context, interval string, limit int) (*ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	rows, err := uc.snapshot.Snapshot(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}

	ready := make([]models.ContextRow, 0, len(rows))
	for _, r := range rows {
		if r.Band == models.BandTradeReady {
			ready = append(ready, r)
		}
	}

	res := &ScanResult{
		Scanned:   len(ready),
		StartedAt: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	type item struct {
		symbol  string
		signals []models.Signal
		err     error
	}
	jobs := make(chan models.ContextRow)
	out := make(chan item, len(ready))
	var wg sync.WaitGroup

	for i := 0; i < uc.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range jobs {
				signals, err := uc.scanOne(ctx, row, interval, limit)
				out <- item{symbol: row.Symbol, signals: signals, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, r := range ready {
			select {
			case jobs <- r:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() { wg.Wait(); close(out) }()

	all := make([]models.Signal, 0)
	for it := range out {
		if it.err != nil {
			res.Errors[it.symbol] = it.err.Error()
			continue
		}
		all = append(all, it.signals...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Symbol != all[j].Symbol {
			return all[i].Symbol < all[j].Symbol
		}
		return all[i].Trigger < all[j].Trigger
	})

	res.Signals = all
	res.Tickets = make([]string, 0, len(all))
	for _, s := range all {
		res.Tickets = append(res.Tickets, analytics.FormatTicket(s))
	}
	res.Elapsed = time.Since(res.StartedAt).Round(time.Millisecond).String()
	if len(res.Errors) == 0 {
		res.Errors = nil
	}

	if uc.l != nil {
		uc.l.Info("signal scan complete",
			applogger.Int("scanned", res.Scanned),
			applogger.Int("signals", len(res.Signals)),
			applogger.Int("errors", len(res.Errors)),
			applogger.String("interval", interval),
		)
	}
	return res, nil
}

func (uc *ScanUseCase) scanOne(ctx context.Context, row models.ContextRow, interval string, limit int) ([]models.Signal, error) {
	if err := uc.limiter.Wait(ctx, "klines", uc.capacity, uc.refill); err != nil {
		return nil, err
	}

	candles, err := uc.market.Klines(ctx, row.Symbol, interval, limit)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.RecordError("scan_klines")
		}
		return nil, fmt.Errorf("klines: %w", err)
	}

	signals := analytics.DetectSignals(row.Symbol, candles, row, uc.th)
	for _, s := range signals {
		if uc.metrics != nil {
			uc.metrics.RecordSignal(string(s.Trigger), s.Symbol)
		}
	}

	if uc.publisher != nil && len(signals) > 0 {
		batch := make([]*models.Signal, 0, len(signals))
		for i := range signals {
			batch = append(batch, &signals[i])
		}
		if err := uc.publisher.PublishBatch(ctx, batch); err != nil {
			// detection stands even when publish fails
			if uc.l != nil {
				uc.l.Error("signal publish failed",
					applogger.String("symbol", row.Symbol),
					applogger.Error(err),
				)
			}
		}
	}
	return signals, nil
}
