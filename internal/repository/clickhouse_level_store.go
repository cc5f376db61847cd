package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/123jlee/market-workflow-app/internal/domain/models"
	pkgch "github.com/123jlee/market-workflow-app/pkg/clickhouse"
	applogger "github.com/123jlee/market-workflow-app/pkg/logger"

	"github.com/shopspring/decimal"
)

// CHLevelStore implements LevelStore backed by ClickHouse. Level columns are
// stored as Decimal in the warehouse and converted to float64 on read.
type CHLevelStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHLevelStore(ch *pkgch.Client, table string) *CHLevelStore {
	return &CHLevelStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHLevelStore) SetLogger(l *applogger.Logger) { s.l = l }

// RecentLevels returns all level rows with period_start inside the lookback
// window, newest first.
func (s *CHLevelStore) RecentLevels(ctx context.Context, lookbackDays int) ([]models.LevelRow, error) {
	start := time.Now()
	const qtpl = `
        SELECT symbol, timeframe, period_start,
               poc, vah, val,
               prior_poc, prior_vah, prior_val,
               va_width_pct, poc_change_pct, value_overlap_pct,
               coverage_flag
        FROM %s
        WHERE period_start >= now() - INTERVAL ? DAY
        ORDER BY period_start DESC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, lookbackDays)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_levels query error",
				applogger.String("table", s.table),
				applogger.Int("lookback_days", lookbackDays),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent levels: %w", err)
	}
	defer rows.Close()

	out := make([]models.LevelRow, 0, 256)
	for rows.Next() {
		var (
			r                                models.LevelRow
			poc, vah, val                    decimal.Decimal
			priorPOC, priorVAH, priorVAL     decimal.NullDecimal
			vaWidth, pocChange, valueOverlap decimal.NullDecimal
			coverage                         sql.NullString
		)
		if err := rows.Scan(&r.Symbol, &r.Timeframe, &r.PeriodStart,
			&poc, &vah, &val,
			&priorPOC, &priorVAH, &priorVAL,
			&vaWidth, &pocChange, &valueOverlap,
			&coverage,
		); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse recent_levels scan error",
					applogger.String("table", s.table),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan level row: %w", err)
		}

		r.POC = poc.InexactFloat64()
		r.VAH = vah.InexactFloat64()
		r.VAL = val.InexactFloat64()
		r.PriorPOC = nullFloat(priorPOC)
		r.PriorVAH = nullFloat(priorVAH)
		r.PriorVAL = nullFloat(priorVAL)
		r.VAWidthPct = nullFloat(vaWidth)
		r.POCChangePct = nullFloat(pocChange)
		r.ValueOverlapPct = nullFloat(valueOverlap)
		if coverage.Valid {
			r.CoverageFlag = &coverage.String
		}

		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse recent_levels ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Health performs a connectivity check.
func (s *CHLevelStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
