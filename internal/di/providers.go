package di

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/123jlee/market-workflow-app/internal/domain/repository"
	"github.com/123jlee/market-workflow-app/internal/handler/api"
	mid "github.com/123jlee/market-workflow-app/internal/middleware"
	internalrepo "github.com/123jlee/market-workflow-app/internal/repository"
	"github.com/123jlee/market-workflow-app/internal/service/binance"
	"github.com/123jlee/market-workflow-app/internal/services/analytics"
	"github.com/123jlee/market-workflow-app/internal/usecase"
	"github.com/123jlee/market-workflow-app/pkg/cache"
	pkgch "github.com/123jlee/market-workflow-app/pkg/clickhouse"
	"github.com/123jlee/market-workflow-app/pkg/config"
	xhttp "github.com/123jlee/market-workflow-app/pkg/http"
	pkgkafka "github.com/123jlee/market-workflow-app/pkg/kafka"
	applogger "github.com/123jlee/market-workflow-app/pkg/logger"
	"github.com/123jlee/market-workflow-app/pkg/metrics"
	"github.com/123jlee/market-workflow-app/pkg/server"
)

// ProvideLogger creates the application logger with an in-memory error
// collector backing the debug log endpoint.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   5 * time.Minute,
		CountThreshold: 200,
	})
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideThresholds maps config tunables onto the classifier thresholds.
func ProvideThresholds(cfg *config.Config) analytics.Thresholds {
	th := analytics.Defaults()
	s := cfg.Scanner
	th.OverlapBalanced = s.OverlapBalanced
	th.OverlapTrending = s.OverlapTrending
	th.TolerancePct = s.TolerancePct
	th.CompressionWidth = s.CompressionWidth
	th.PinnedDistance = s.PinnedDistance
	th.PinnedWidth = s.PinnedWidth
	th.ExtendedPct = s.ExtendedPct
	th.ZScoreWindow = s.ZScoreWindow
	th.ZScoreThreshold = s.ZScoreThreshold
	th.CVDShort = s.CVDShort
	th.CVDLong = s.CVDLong
	th.MinCandles = s.MinCandles
	return th
}

// ProvideClickHouseClient creates a ClickHouse client, or nil in mock mode.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Binance.UseMockData {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.SignalsTable
	if err := client.InitSchema(ctx, internalrepo.SignalHistorySchema(table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideLevelStore wires the warehouse level reader, mock-backed in mock mode.
func ProvideLevelStore(cfg *config.Config, chClient *pkgch.Client, l *applogger.Logger) repository.LevelStore {
	if chClient == nil {
		return internalrepo.NewMockLevelStore()
	}
	store := internalrepo.NewCHLevelStore(chClient, cfg.ClickHouse.Database+"."+cfg.ClickHouse.LevelsTable)
	store.SetLogger(l)
	return store
}

// ProvideMarketData wires the Binance REST client, or the mock source.
func ProvideMarketData(cfg *config.Config, m repository.Metrics) repository.MarketData {
	if cfg.Binance.UseMockData {
		return binance.NewMock(time.Now().UnixNano())
	}
	return binance.New(cfg.Binance.BaseURL, cfg.Binance.ProxyURL, cfg.Binance.QuoteAsset, cfg.Binance.Timeout, m)
}

// ProvidePriceStream wires the market-wide WebSocket tick stream.
func ProvidePriceStream(cfg *config.Config) repository.PriceStream {
	if cfg.Binance.UseMockData {
		return nil
	}
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.QuoteAsset,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideCache wires the snapshot cache: layered memory+Redis when Redis is
// enabled, memory-only otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher wraps the producer into the domain publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
	pub.SetLogger(l)
	return pub
}

// ProvideSignalHistory wires the ClickHouse signal history, nil in mock mode.
func ProvideSignalHistory(cfg *config.Config, chClient *pkgch.Client, l *applogger.Logger) repository.SignalHistory {
	if chClient == nil {
		return nil
	}
	h := internalrepo.NewCHSignalHistory(chClient, cfg.ClickHouse.Database+"."+cfg.ClickHouse.SignalsTable)
	h.SetLogger(l)
	return h
}

// ProvideKafkaConsumer creates the signal alerts consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, m repository.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetHook(pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			return pkgkafka.WithTraceID(ctx, pkgkafka.TraceIDFromHeaders(km)), km, data, nil
		},
		Err: func(_ context.Context, topic string, _ kafka.Message, _ []byte, err error) {
			m.RecordError("kafka_consume")
			l.Warn("kafka handle retry", applogger.String("topic", topic), applogger.Error(err))
		},
	})
	return consumer, nil
}

// ProvideKafkaSignalsHandler builds the alerts handler for the signal topic.
func ProvideKafkaSignalsHandler(cfg *config.Config, history repository.SignalHistory, m repository.Metrics, l *applogger.Logger) pkgkafka.MessageHandler {
	if history == nil {
		return nil
	}
	h := usecase.NewKafkaSignalsHandler(cfg.Kafka.SignalsTopic, history, m)
	h.SetLogger(l)
	return h
}

// ProvideSnapshotUseCase builds the context snapshot use case.
func ProvideSnapshotUseCase(
	cfg *config.Config,
	levels repository.LevelStore,
	market repository.MarketData,
	cacheSvc cache.Service,
	m repository.Metrics,
	th analytics.Thresholds,
	l *applogger.Logger,
) *usecase.SnapshotUseCase {
	uc := usecase.NewSnapshotUseCase(levels, market, cacheSvc, m, th, cfg.Scanner.LookbackDays, cfg.Cache.SnapshotTTL)
	uc.SetLogger(l)
	return uc
}

// ProvideScanUseCase builds the signal scan use case.
func ProvideScanUseCase(
	cfg *config.Config,
	snapshot *usecase.SnapshotUseCase,
	market repository.MarketData,
	publisher repository.SignalPublisher,
	m repository.Metrics,
	th analytics.Thresholds,
	l *applogger.Logger,
) *usecase.ScanUseCase {
	uc := usecase.NewScanUseCase(snapshot, market, publisher, m, th,
		cfg.Scanner.ScanWorkers, cfg.Binance.KlineBurst, cfg.Binance.KlineRPS)
	uc.SetLogger(l)
	return uc
}

// ProvideTickCollector builds the live price collector, nil without a stream.
func ProvideTickCollector(
	stream repository.PriceStream,
	snapshot *usecase.SnapshotUseCase,
	m repository.Metrics,
) server.Collector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewTickerPipeline(snapshot, m,
		mid.WithMaxRPS(4),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, m, pipe)
}

// ProvideHTTPHandler builds the Echo API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	snapshot *usecase.SnapshotUseCase,
	scan *usecase.ScanUseCase,
	market repository.MarketData,
	history repository.SignalHistory,
) xhttp.Handler {
	return api.NewScannerEchoHandler(l, snapshot, scan, market, history)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	collector server.Collector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	publisher repository.SignalPublisher,
) *server.App {
	var closer server.Closer
	if publisher != nil {
		closer = publisher
	}
	return server.New(cfg, l, handler, collector, consumer, kh, chClient, closer)
}
