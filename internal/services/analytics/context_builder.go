package analytics

import (
	"sort"
	"strings"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	domrepo "github.com/123jlee/market-workflow-app/internal/domain/repository"
	"github.com/123jlee/market-workflow-app/internal/services/features"
)

// contractSuffix marks perpetual contracts on warehouse symbols ("BTCUSDT.P").
const contractSuffix = ".P"

// NormalizeSymbol strips the contract-suffix marker to obtain the join key.
func NormalizeSymbol(s string) string {
	return strings.TrimSuffix(s, contractSuffix)
}

// BuildContext joins raw structural rows with live prices into one classified
// ContextRow per symbol. Rows may mix timeframes and carry several periods per
// symbol; only the latest anchor-timeframe row per symbol survives. Symbols
// without both structural coverage and a live price are dropped. Empty input
// yields an empty result, not an error.
func BuildContext(rows []models.LevelRow, prices map[string]float64, th Thresholds) []models.ContextRow {
	if len(rows) == 0 || len(prices) == 0 {
		return nil
	}

	// Latest row per (symbol, timeframe), last-write-wins on period date.
	sorted := make([]models.LevelRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PeriodStart.After(sorted[j].PeriodStart)
	})

	type key struct {
		symbol string
		tf     domrepo.Timeframe
	}
	latest := make(map[key]models.LevelRow, len(sorted))
	order := make([]string, 0, len(sorted))
	anchor := domrepo.AnchorTimeframe()
	for _, r := range sorted {
		k := key{NormalizeSymbol(r.Symbol), domrepo.NormalizeTimeframe(r.Timeframe)}
		if _, seen := latest[k]; seen {
			continue
		}
		latest[k] = r
		if k.tf == anchor {
			order = append(order, k.symbol)
		}
	}

	out := make([]models.ContextRow, 0, len(order))
	for _, symbol := range order {
		r := latest[key{symbol, anchor}]
		price, ok := prices[symbol]
		if !ok || price <= 0 {
			continue
		}
		out = append(out, Classify(symbol, r, price, th))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Classify builds one fully classified ContextRow from the latest anchor row
// and the live price. Classifier order matters: distances feed warnings,
// warnings feed the bias verdict.
func Classify(symbol string, r models.LevelRow, price float64, th Thresholds) models.ContextRow {
	row := models.ContextRow{
		Symbol:      symbol,
		PeriodStart: r.PeriodStart,
		POC:         r.POC,
		VAH:         r.VAH,
		VAL:         r.VAL,
		PriorPOC:    r.PriorPOC,
		PriorVAH:    r.PriorVAH,
		PriorVAL:    r.PriorVAL,
		VAWidthPct:  r.VAWidthPct,
		OverlapPct:  r.ValueOverlapPct,
		Coverage:    r.CoverageFlag,
		Price:       price,
	}

	row.Regime = ClassifyRegime(row.OverlapPct, th)
	row.Direction = ClassifyDirection(row)
	row.Interaction = ClassifyInteraction(price, row.POC, row.VAL, row.VAH, th)
	row.PctToPOC = features.PercentDistance(price, &row.POC)
	row.PctToVAL = features.PercentDistance(price, &row.VAL)
	row.PctToVAH = features.PercentDistance(price, &row.VAH)
	row.Warnings = ClassifyWarnings(row, th)
	row.Bias = ClassifyBias(row)
	return row
}
