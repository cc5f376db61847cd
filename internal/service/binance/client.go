package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	drepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	xhttp "github.com/123jlee/market-workflow-app/pkg/http"
)

// Client implements MarketData against the Binance USDT-margined futures REST API.
type Client struct {
	baseURL    string
	quoteAsset string
	http       *xhttp.Client
	metrics    drepo.Metrics
}

// New creates a new Binance futures market data client.
// proxyURL is optional; when set all requests are routed through it.
func New(baseURL, proxyURL, quoteAsset string, timeout time.Duration, metrics drepo.Metrics) drepo.MarketData {
	opts := []xhttp.ClientOption{xhttp.WithTimeout(timeout)}
	if proxyURL != "" {
		opts = append(opts, xhttp.WithProxy(proxyURL))
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		quoteAsset: quoteAsset,
		http:       xhttp.NewClient(opts...),
		metrics:    metrics,
	}
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// CurrentPrices returns last prices for all perpetual contracts quoted in the
// configured quote asset.
func (c *Client) CurrentPrices(ctx context.Context) (map[string]float64, error) {
	start := time.Now()

	var tickers []tickerPrice
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/fapi/v1/ticker/price",
	}, &tickers)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordError("binance_prices")
		}
		return nil, fmt.Errorf("binance prices: %w", err)
	}

	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, c.quoteAsset) {
			continue
		}
		p, err := strconv.ParseFloat(t.Price, 64)
		if err != nil || p <= 0 {
			continue
		}
		prices[t.Symbol] = p
	}

	if c.metrics != nil {
		c.metrics.RecordFetch("binance", "prices")
		c.metrics.RecordLatency("binance_prices", time.Since(start).Seconds())
	}
	return prices, nil
}

// Klines returns up to limit candles for symbol, oldest first.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	start := time.Now()

	var raw []json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/fapi/v1/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {interval},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordError("binance_klines")
		}
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
		}
		candles = append(candles, candle)
	}

	if c.metrics != nil {
		c.metrics.RecordFetch("binance", "klines")
		c.metrics.RecordLatency("binance_klines", time.Since(start).Seconds())
	}
	return candles, nil
}

// parseKline decodes one kline row. The API returns a 12-element array:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume,
//  trades, takerBuyBase, takerBuyQuote, ignore].
func parseKline(row json.RawMessage) (models.Candle, error) {
	var fields []json.RawMessage
	if err := json.Unmarshal(row, &fields); err != nil {
		return models.Candle{}, fmt.Errorf("kline row: %w", err)
	}
	if len(fields) < 11 {
		return models.Candle{}, fmt.Errorf("kline row: got %d fields", len(fields))
	}

	var openMS int64
	if err := json.Unmarshal(fields[0], &openMS); err != nil {
		return models.Candle{}, fmt.Errorf("kline open time: %w", err)
	}

	num := func(i int) (float64, error) {
		var s string
		if err := json.Unmarshal(fields[i], &s); err != nil {
			return 0, fmt.Errorf("kline field %d: %w", i, err)
		}
		return strconv.ParseFloat(s, 64)
	}

	open, err := num(1)
	if err != nil {
		return models.Candle{}, err
	}
	high, err := num(2)
	if err != nil {
		return models.Candle{}, err
	}
	low, err := num(3)
	if err != nil {
		return models.Candle{}, err
	}
	closePrice, err := num(4)
	if err != nil {
		return models.Candle{}, err
	}
	volume, err := num(5)
	if err != nil {
		return models.Candle{}, err
	}
	quoteVolume, err := num(7)
	if err != nil {
		return models.Candle{}, err
	}
	takerBuyBase, err := num(9)
	if err != nil {
		return models.Candle{}, err
	}

	var trades int64
	if err := json.Unmarshal(fields[8], &trades); err != nil {
		return models.Candle{}, fmt.Errorf("kline trades: %w", err)
	}

	return models.Candle{
		OpenTime:     time.UnixMilli(openMS).UTC(),
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closePrice,
		Volume:       volume,
		TakerBuyBase: takerBuyBase,
		QuoteVolume:  quoteVolume,
		Trades:       trades,
	}, nil
}
