package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	domrepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	"github.com/123jlee/market-workflow-app/internal/services/analytics"
	pkgkafka "github.com/123jlee/market-workflow-app/pkg/kafka"
	applogger "github.com/123jlee/market-workflow-app/pkg/logger"
)

// KafkaSignalsHandler consumes detected signals from Kafka, renders the alert
// ticket, and appends both to the signal history.
type KafkaSignalsHandler struct {
	topic   string
	history domrepo.SignalHistory
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewKafkaSignalsHandler(topic string, history domrepo.SignalHistory, metrics domrepo.Metrics) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, history: history, metrics: metrics}
}

// SetLogger injects a structured logger.
func (h *KafkaSignalsHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var s models.Signal
	if err := json.Unmarshal(b, &s); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	ticket := analytics.FormatTicket(s)

	start := time.Now()
	if err := h.history.Append(ctx, &s, ticket); err != nil {
		h.metrics.RecordError("consumer_history")
		return err
	}
	h.metrics.RecordLatency("signal_history_append", time.Since(start).Seconds())

	if h.l != nil {
		h.l.Info("signal alert", applogger.String("ticket", ticket))
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
