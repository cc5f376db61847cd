package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

type captureSink struct {
	mu    sync.Mutex
	ticks []*models.PriceTick
	err   error
}

func (s *captureSink) Apply(ctx context.Context, t *models.PriceTick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.ticks = append(s.ticks, t)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks)
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(source, kind string)              {}
func (nopMetrics) RecordError(kind string)                      {}
func (nopMetrics) RecordLastPrice(symbol string, price float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)     {}
func (nopMetrics) RecordSignal(trigger, symbol string)          {}

func tick(symbol string, price float64) *models.PriceTick {
	return &models.PriceTick{Symbol: symbol, Timestamp: time.Now().Unix(), Price: price, Volume: 10}
}

func TestPipelineForwardsValidTick(t *testing.T) {
	sink := &captureSink{}
	p := NewTickerPipeline(sink, nopMetrics{})

	if err := p.Process(context.Background(), tick("BTCUSDT", 50000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 tick, got %d", sink.count())
	}
}

func TestPipelineRejectsInvalidTick(t *testing.T) {
	sink := &captureSink{}
	p := NewTickerPipeline(sink, nopMetrics{})

	cases := []*models.PriceTick{
		nil,
		{Symbol: "", Timestamp: 1, Price: 1, Volume: 1},
		{Symbol: "BTCUSDT", Timestamp: 0, Price: 1, Volume: 1},
		{Symbol: "BTCUSDT", Timestamp: 1, Price: 0, Volume: 1},
	}
	for i, c := range cases {
		if err := p.Process(context.Background(), c); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if sink.count() != 0 {
		t.Fatalf("expected no ticks, got %d", sink.count())
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	sink := &captureSink{}
	p := NewTickerPipeline(sink, nopMetrics{}, WithMaxRPS(1))

	_ = p.Process(context.Background(), tick("BTCUSDT", 50000))
	_ = p.Process(context.Background(), tick("BTCUSDT", 50001))
	_ = p.Process(context.Background(), tick("ETHUSDT", 3400))

	if sink.count() != 2 {
		t.Fatalf("expected 2 ticks after throttle, got %d", sink.count())
	}
}

func TestPipelineBuffersOnSinkError(t *testing.T) {
	sink := &captureSink{err: errors.New("down")}
	p := NewTickerPipeline(sink, nopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), tick("BTCUSDT", 50000)); err == nil {
		t.Fatalf("expected sink error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("expected 1 buffered tick, got %d", len(p.bufCh))
	}

	// sink recovers; background flush drains the buffer
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for sink.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("buffered tick never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
