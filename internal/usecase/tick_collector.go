package usecase

import (
	"context"

	drepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	mid "github.com/123jlee/market-workflow-app/internal/middleware"
)

// TickCollector drains the live price stream through the ticker pipeline into
// the snapshot price book. Reconnects with fresh channels on stream errors.
type TickCollector struct {
	stream  drepo.PriceStream
	metrics drepo.Metrics
	pipe    *mid.TickerPipeline
}

func NewTickCollector(stream drepo.PriceStream, metrics drepo.Metrics, pipe *mid.TickerPipeline) *TickCollector {
	return &TickCollector{stream: stream, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	go c.consume(ctx)
	return nil
}

func (c *TickCollector) consume(ctx context.Context) {
	for {
		tickCh, errCh := c.stream.Read(ctx)
	readLoop:
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errCh:
				if !ok || err != nil {
					if err != nil {
						c.metrics.RecordError("stream")
					}
					break readLoop
				}
			case t, ok := <-tickCh:
				if !ok {
					break readLoop
				}
				if t == nil {
					continue
				}
				_ = c.pipe.Process(ctx, t)
			}
		}
		if ctx.Err() != nil {
			return
		}
		// Read channels are dead after a stream error; reconnect delay
		// throttles the retry loop.
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	return c.stream.Close()
}

var _ mid.TickSink = (*SnapshotUseCase)(nil)
