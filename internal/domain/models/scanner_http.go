package models

// Requests for the scanner HTTP endpoints. Defined in domain for consistency and reuse.

type ContextRequest struct {
	Band    string `query:"band" json:"band" default:"" validate:"omitempty,oneof=TRADE_READY WATCH IGNORE"`
	Regime  string `query:"regime" json:"regime" default:"" validate:"omitempty,oneof=BALANCED TRENDING TRANSITIONAL"`
	Bias    string `query:"bias" json:"bias" default:"" validate:"omitempty,oneof=FAVORS_LONG FAVORS_SHORT NEUTRAL_WAIT"`
	Refresh bool   `query:"refresh" json:"refresh"`
}

type ScanRequest struct {
	Interval string `query:"interval" json:"interval" default:"15m" validate:"oneof=5m 15m 30m 4h"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=25,lte=1000"`
}

type KlinesRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	Interval string `query:"interval" json:"interval" default:"15m" validate:"oneof=5m 15m 30m 4h"`
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1500"`
}
