package analytics

// Thresholds are the tunables of the classification and detection pipeline.
// Zero values are never meaningful; construct with Defaults() and override
// from configuration.
type Thresholds struct {
	OverlapBalanced  float64 // value overlap at or above which the regime is BALANCED
	OverlapTrending  float64 // value overlap at or below which the regime is TRENDING
	TolerancePct     float64 // level-test tolerance, in percent of the level
	CompressionWidth float64 // value-area width fraction below which COMPRESSED fires
	PinnedDistance   float64 // abs pct distance to POC below which PINNED may fire
	PinnedWidth      float64 // width fraction PINNED additionally requires
	ExtendedPct      float64 // pct distance beyond VAL/VAH that marks EXTENDED
	ZScoreWindow     int     // rolling window for the volume z-score
	ZScoreThreshold  float64 // z-score at which the volume trigger fires
	CVDShort         int     // short SMA window over the CVD curve
	CVDLong          int     // long SMA window over the CVD curve
	MinCandles       int     // series shorter than this produces no signals
}

// Defaults returns the production thresholds.
func Defaults() Thresholds {
	return Thresholds{
		OverlapBalanced:  0.70,
		OverlapTrending:  0.30,
		TolerancePct:     0.20,
		CompressionWidth: 0.015,
		PinnedDistance:   0.2,
		PinnedWidth:      0.02,
		ExtendedPct:      2.0,
		ZScoreWindow:     20,
		ZScoreThreshold:  2.5,
		CVDShort:         11,
		CVDLong:          21,
		MinCandles:       25,
	}
}
