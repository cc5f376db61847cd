package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func weeklyRow(symbol string, start time.Time, overlap float64) models.LevelRow {
	return models.LevelRow{
		Symbol:          symbol,
		Timeframe:       "Weekly",
		PeriodStart:     start,
		POC:             100,
		VAH:             110,
		VAL:             90,
		VAWidthPct:      fptr(0.18),
		ValueOverlapPct: fptr(overlap),
	}
}

func TestBuildContextEmptyInputs(t *testing.T) {
	assert.Empty(t, BuildContext(nil, map[string]float64{"BTCUSDT": 1}, Defaults()))
	assert.Empty(t, BuildContext([]models.LevelRow{weeklyRow("BTCUSDT", day(1), 0.5)}, nil, Defaults()))
}

func TestBuildContextStripsContractSuffix(t *testing.T) {
	rows := []models.LevelRow{weeklyRow("BTCUSDT.P", day(1), 0.5)}
	prices := map[string]float64{"BTCUSDT": 95}

	out := BuildContext(rows, prices, Defaults())
	require.Len(t, out, 1)
	assert.Equal(t, "BTCUSDT", out[0].Symbol)
	assert.Equal(t, 95.0, out[0].Price)
}

func TestBuildContextKeepsLatestPeriod(t *testing.T) {
	stale := weeklyRow("SOLUSDT", day(4), 0.9)
	fresh := weeklyRow("SOLUSDT", day(11), 0.1)
	rows := []models.LevelRow{stale, fresh}

	out := BuildContext(rows, map[string]float64{"SOLUSDT": 100}, Defaults())
	require.Len(t, out, 1)
	assert.Equal(t, day(11), out[0].PeriodStart)
	assert.Equal(t, models.RegimeTrending, out[0].Regime)
}

func TestBuildContextDropsSymbolsWithoutPrice(t *testing.T) {
	rows := []models.LevelRow{
		weeklyRow("BTCUSDT", day(1), 0.5),
		weeklyRow("XRPUSDT", day(1), 0.5),
	}
	out := BuildContext(rows, map[string]float64{"BTCUSDT": 95}, Defaults())
	require.Len(t, out, 1)
	assert.Equal(t, "BTCUSDT", out[0].Symbol)
}

func TestBuildContextFiltersAnchorTimeframe(t *testing.T) {
	daily := weeklyRow("BTCUSDT", day(10), 0.5)
	daily.Timeframe = "Daily"
	rows := []models.LevelRow{daily, weeklyRow("BTCUSDT", day(4), 0.5)}

	out := BuildContext(rows, map[string]float64{"BTCUSDT": 95}, Defaults())
	require.Len(t, out, 1)
	// The newer daily row must not shadow the weekly anchor row.
	assert.Equal(t, day(4), out[0].PeriodStart)
}

func TestBuildContextSortedBySymbol(t *testing.T) {
	rows := []models.LevelRow{
		weeklyRow("SOLUSDT", day(1), 0.5),
		weeklyRow("BTCUSDT", day(1), 0.5),
		weeklyRow("ETHUSDT", day(1), 0.5),
	}
	prices := map[string]float64{"BTCUSDT": 1, "ETHUSDT": 1, "SOLUSDT": 1}

	out := BuildContext(rows, prices, Defaults())
	require.Len(t, out, 3)
	assert.Equal(t, "BTCUSDT", out[0].Symbol)
	assert.Equal(t, "ETHUSDT", out[1].Symbol)
	assert.Equal(t, "SOLUSDT", out[2].Symbol)
}
