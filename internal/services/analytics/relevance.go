package analytics

import "github.com/123jlee/market-workflow-app/internal/domain/models"

// ClassifyBand maps a fully classified row to its relevance tier. The checks
// form a strict priority chain; the first match wins.
func ClassifyBand(row models.ContextRow) models.Band {
	// Compressed structure is dead money regardless of everything else.
	if row.HasWarning(models.WarningCompressed) {
		return models.BandIgnore
	}
	// Pinned inside a balanced profile: no movement expected.
	if row.HasWarning(models.WarningPinned) && row.Regime == models.RegimeBalanced {
		return models.BandIgnore
	}
	if row.Interaction.IsTest() {
		return models.BandTradeReady
	}
	if row.Regime == models.RegimeTrending || row.Regime == models.RegimeTransitional {
		return models.BandTradeReady
	}
	if row.Regime == models.RegimeBalanced && row.Interaction == models.InteractionInsideValue {
		return models.BandWatch
	}
	return models.BandIgnore
}

// BandAll attaches a band to every row in place and returns the slice.
func BandAll(rows []models.ContextRow) []models.ContextRow {
	for i := range rows {
		rows[i].Band = ClassifyBand(rows[i])
	}
	return rows
}
