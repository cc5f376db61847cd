package models

import "time"

// Candle is one OHLCV kline including the taker-buy base-asset volume that the
// order-flow math needs. Series are chronological, oldest first.
type Candle struct {
	OpenTime      time.Time
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        float64
	TakerBuyBase  float64
	QuoteVolume   float64
	Trades        int64
}
