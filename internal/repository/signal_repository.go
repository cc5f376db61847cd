package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	pkgch "github.com/123jlee/market-workflow-app/pkg/clickhouse"
	pkgkafka "github.com/123jlee/market-workflow-app/pkg/kafka"
	applogger "github.com/123jlee/market-workflow-app/pkg/logger"
)

// KafkaSignalPublisher implements SignalPublisher over a Kafka topic.
// Messages are keyed by symbol so one symbol's signals stay ordered.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaSignalPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s *models.Signal) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s); err != nil {
		if p.l != nil {
			p.l.Error("kafka publish signal error",
				applogger.String("topic", p.topic),
				applogger.String("symbol", s.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish signal: %w", err)
	}
	return nil
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(signals))
	for _, s := range signals {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(s.Symbol), Value: s})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		if p.l != nil {
			p.l.Error("kafka publish signal batch error",
				applogger.String("topic", p.topic),
				applogger.Int("count", len(signals)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("publish signal batch: %w", err)
	}
	return nil
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

// CHSignalHistory implements SignalHistory backed by ClickHouse.
type CHSignalHistory struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSignalHistory(ch *pkgch.Client, table string) *CHSignalHistory {
	return &CHSignalHistory{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (h *CHSignalHistory) SetLogger(l *applogger.Logger) { h.l = l }

// SignalHistorySchema returns the DDL for the signal history table.
func SignalHistorySchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            symbol        LowCardinality(String),
            trigger       LowCardinality(String),
            zscore        Nullable(Float64),
            cvd_momentum  LowCardinality(String),
            price_loc     LowCardinality(String),
            auction_state LowCardinality(String),
            price         Float64,
            ticket        String,
            detected_at   DateTime64(3, 'UTC')
        )
        ENGINE = MergeTree
        ORDER BY (symbol, detected_at)
        TTL toDateTime(detected_at) + INTERVAL 90 DAY
    `, table)}
}

func (h *CHSignalHistory) Append(ctx context.Context, s *models.Signal, ticket string) error {
	start := time.Now()
	const qtpl = `
        INSERT INTO %s
            (symbol, trigger, zscore, cvd_momentum, price_loc, auction_state, price, ticket, detected_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	q := fmt.Sprintf(qtpl, h.table)

	var z sql.NullFloat64
	if s.ZScore != nil {
		z = sql.NullFloat64{Float64: *s.ZScore, Valid: true}
	}

	if _, err := h.db.ExecContext(ctx, q,
		s.Symbol, string(s.Trigger), z, string(s.CVDMomentum),
		string(s.PriceLoc), string(s.State), s.Price, ticket, s.DetectedAt,
	); err != nil {
		if h.l != nil {
			h.l.Error("clickhouse append signal error",
				applogger.String("table", h.table),
				applogger.String("symbol", s.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append signal: %w", err)
	}

	if h.l != nil {
		h.l.Debug("clickhouse append signal ok",
			applogger.String("symbol", s.Symbol),
			applogger.String("trigger", string(s.Trigger)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Recent returns signals newest first. symbol is optional; empty matches all.
func (h *CHSignalHistory) Recent(ctx context.Context, symbol string, since time.Time, limit int) ([]*models.Signal, error) {
	const qtpl = `
        SELECT symbol, trigger, zscore, cvd_momentum, price_loc, auction_state, price, detected_at
        FROM %s
        WHERE detected_at >= ? AND (? = '' OR symbol = ?)
        ORDER BY detected_at DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, h.table)
	rows, err := h.db.QueryContext(ctx, q, since, symbol, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("recent signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Signal, 0, limit)
	for rows.Next() {
		var (
			s models.Signal
			z sql.NullFloat64
		)
		if err := rows.Scan(&s.Symbol, &s.Trigger, &z, &s.CVDMomentum,
			&s.PriceLoc, &s.State, &s.Price, &s.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if z.Valid {
			s.ZScore = &z.Float64
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// Health performs a connectivity check.
func (h *CHSignalHistory) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
