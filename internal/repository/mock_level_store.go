package repository

import (
	"context"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	"github.com/123jlee/market-workflow-app/pkg/util"
)

// MockLevelStore serves synthetic weekly levels for local development without
// a warehouse. Levels bracket each symbol's mock price so every classifier
// path is reachable.
type MockLevelStore struct{}

func NewMockLevelStore() *MockLevelStore { return &MockLevelStore{} }

type mockLevel struct {
	symbol  string
	poc     float64
	overlap float64
}

var mockLevels = []mockLevel{
	{"BTCUSDT", 65000, 0.82}, // balanced around the mock base price
	{"ETHUSDT", 3350, 0.55},  // transitional
	{"SOLUSDT", 150, 0.20},   // trending
	{"BNBUSDT", 580, 0.75},
	{"XRPUSDT", 0.60, 0.40},
}

func (s *MockLevelStore) RecentLevels(ctx context.Context, lookbackDays int) ([]models.LevelRow, error) {
	week := util.WeekStart(time.Now().UTC())
	prior := week.AddDate(0, 0, -7)

	rows := make([]models.LevelRow, 0, len(mockLevels)*2)
	for _, m := range mockLevels {
		vah := m.poc * 1.02
		val := m.poc * 0.98
		width := (vah - val) / m.poc
		priorPOC := m.poc * 0.99
		priorVAH := vah * 0.99
		priorVAL := val * 0.99
		overlap := m.overlap
		pocChange := 1.01
		coverage := "full"

		rows = append(rows, models.LevelRow{
			Symbol:          m.symbol,
			Timeframe:       "1w",
			PeriodStart:     week,
			POC:             m.poc,
			VAH:             vah,
			VAL:             val,
			PriorPOC:        &priorPOC,
			PriorVAH:        &priorVAH,
			PriorVAL:        &priorVAL,
			VAWidthPct:      &width,
			POCChangePct:    &pocChange,
			ValueOverlapPct: &overlap,
			CoverageFlag:    &coverage,
		})
		// a stale prior-week row; the builder must prefer the current week
		rows = append(rows, models.LevelRow{
			Symbol:      m.symbol,
			Timeframe:   "1w",
			PeriodStart: prior,
			POC:         priorPOC,
			VAH:         priorVAH,
			VAL:         priorVAL,
		})
	}
	return rows, nil
}

func (s *MockLevelStore) Health(ctx context.Context) error { return nil }
