package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		LevelsTable      string        `yaml:"levels_table"`
		SignalsTable     string        `yaml:"signals_table"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Binance struct {
		BaseURL        string        `yaml:"base_url"`
		ProxyURL       string        `yaml:"proxy_url"`
		WebSocketURL   string        `yaml:"websocket_url"`
		QuoteAsset     string        `yaml:"quote_asset"`
		UseMockData    bool          `yaml:"use_mock_data"`
		Timeout        time.Duration `yaml:"timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		KlineRPS       float64       `yaml:"kline_rps"`
		KlineBurst     float64       `yaml:"kline_burst"`
	} `yaml:"binance"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		SignalsTopic string   `yaml:"signals_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Cache struct {
		SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
		Redis       struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Scanner struct {
		LookbackDays     int     `yaml:"lookback_days"`
		OverlapBalanced  float64 `yaml:"overlap_balanced"`
		OverlapTrending  float64 `yaml:"overlap_trending"`
		TolerancePct     float64 `yaml:"tolerance_pct"`
		CompressionWidth float64 `yaml:"compression_width"`
		PinnedDistance   float64 `yaml:"pinned_distance"`
		PinnedWidth      float64 `yaml:"pinned_width"`
		ExtendedPct      float64 `yaml:"extended_pct"`
		ZScoreWindow     int     `yaml:"zscore_window"`
		ZScoreThreshold  float64 `yaml:"zscore_threshold"`
		CVDShort         int     `yaml:"cvd_short"`
		CVDLong          int     `yaml:"cvd_long"`
		MinCandles       int     `yaml:"min_candles"`
		ScanWorkers      int     `yaml:"scan_workers"`
	} `yaml:"scanner"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("BINANCE_PROXY_URL"); v != "" {
		c.Binance.ProxyURL = v
	}
	if v := os.Getenv("USE_MOCK_DATA"); v != "" {
		c.Binance.UseMockData = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_SIGNALS_TOPIC"); v != "" {
		c.Kafka.SignalsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, found := strings.Cut(v, ":")
		c.Cache.Redis.Host = host
		if found {
			if p, err := strconv.Atoi(port); err == nil {
				c.Cache.Redis.Port = p
			}
		}
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Scanner.ScanWorkers = n
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Binance.BaseURL == "" {
		c.Binance.BaseURL = "https://fapi.binance.com"
	}
	if c.Binance.WebSocketURL == "" {
		c.Binance.WebSocketURL = "wss://fstream.binance.com/ws/!miniTicker@arr"
	}
	if c.Binance.QuoteAsset == "" {
		c.Binance.QuoteAsset = "USDT"
	}
	if c.Binance.Timeout == 0 {
		c.Binance.Timeout = 10 * time.Second
	}
	if c.Binance.KlineRPS == 0 {
		c.Binance.KlineRPS = 5
	}
	if c.Binance.KlineBurst == 0 {
		c.Binance.KlineBurst = 10
	}
	if c.ClickHouse.LevelsTable == "" {
		c.ClickHouse.LevelsTable = "levels_final"
	}
	if c.ClickHouse.SignalsTable == "" {
		c.ClickHouse.SignalsTable = "signal_history"
	}
	if c.Scanner.LookbackDays == 0 {
		c.Scanner.LookbackDays = 21
	}
	if c.Scanner.OverlapBalanced == 0 {
		c.Scanner.OverlapBalanced = 0.70
	}
	if c.Scanner.OverlapTrending == 0 {
		c.Scanner.OverlapTrending = 0.30
	}
	if c.Scanner.TolerancePct == 0 {
		c.Scanner.TolerancePct = 0.20
	}
	if c.Scanner.CompressionWidth == 0 {
		c.Scanner.CompressionWidth = 0.015
	}
	if c.Scanner.PinnedDistance == 0 {
		c.Scanner.PinnedDistance = 0.2
	}
	if c.Scanner.PinnedWidth == 0 {
		c.Scanner.PinnedWidth = 0.02
	}
	if c.Scanner.ExtendedPct == 0 {
		c.Scanner.ExtendedPct = 2.0
	}
	if c.Scanner.ZScoreWindow == 0 {
		c.Scanner.ZScoreWindow = 20
	}
	if c.Scanner.ZScoreThreshold == 0 {
		c.Scanner.ZScoreThreshold = 2.5
	}
	if c.Scanner.CVDShort == 0 {
		c.Scanner.CVDShort = 11
	}
	if c.Scanner.CVDLong == 0 {
		c.Scanner.CVDLong = 21
	}
	if c.Scanner.MinCandles == 0 {
		c.Scanner.MinCandles = 25
	}
	if c.Scanner.ScanWorkers == 0 {
		c.Scanner.ScanWorkers = 8
	}
	if c.Cache.Redis.Port == 0 {
		c.Cache.Redis.Port = 6379
	}
	if c.Cache.SnapshotTTL == 0 {
		c.Cache.SnapshotTTL = 60 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if !c.Binance.UseMockData && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required outside mock mode")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Kafka.Enabled && c.Kafka.SignalsTopic == "" {
		return fmt.Errorf("kafka.signals_topic is required when kafka is enabled")
	}
	if c.Scanner.OverlapTrending >= c.Scanner.OverlapBalanced {
		return fmt.Errorf("scanner.overlap_trending must be below scanner.overlap_balanced")
	}
	if c.Scanner.CVDShort >= c.Scanner.CVDLong {
		return fmt.Errorf("scanner.cvd_short must be below scanner.cvd_long")
	}
	return nil
}
