package models

// PriceTick is one live price update from the market stream.
type PriceTick struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}
