package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	drepo "github.com/123jlee/market-workflow-app/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements PriceStream backed by the futures !miniTicker@arr
// WebSocket feed. One connection covers the whole market.
type Stream struct {
	websocketURL   string
	quoteAsset     string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a new Binance market-wide price stream.
func NewStream(websocketURL, quoteAsset string, reconnectDelay, pingInterval time.Duration) drepo.PriceStream {
	return &Stream{
		websocketURL:   websocketURL,
		quoteAsset:     quoteAsset,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	log.Printf("binance stream: connected")
	return nil
}

type miniTicker struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
	Volume string `json:"v"`
	Time   int64  `json:"E"` // ms
}

// Read streams PriceTick events and errors.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	ticks := make(chan *models.PriceTick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("binance stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("binance stream read: %w", err)
					return
				}
				var batch []miniTicker
				if err := json.Unmarshal(b, &batch); err != nil {
					// ignore non-ticker frames
					continue
				}
				for _, t := range batch {
					if !strings.HasSuffix(t.Symbol, s.quoteAsset) {
						continue
					}
					price, err := strconv.ParseFloat(t.Close, 64)
					if err != nil || price <= 0 {
						continue
					}
					volume, _ := strconv.ParseFloat(t.Volume, 64)
					tick := &models.PriceTick{
						Symbol:    t.Symbol,
						Timestamp: t.Time / 1000,
						Price:     price,
						Volume:    volume,
					}
					select {
					case ticks <- tick:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	time.Sleep(s.reconnectDelay)
	return s.Connect(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected }
