package analytics

import (
	"fmt"
	"strconv"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
)

// FormatTicket renders a signal as the copy-paste ticket line.
func FormatTicket(s models.Signal) string {
	z := "N/A"
	if s.ZScore != nil {
		z = strconv.FormatFloat(*s.ZScore, 'f', -1, 64)
	}
	return fmt.Sprintf("%s | %s | Z:%s | CVD:%s | Loc:%s | State:%s | @%.2f",
		s.Symbol, s.Trigger, z, s.CVDMomentum, s.PriceLoc, s.State, s.Price)
}
