package scoring

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

// Engine scores accounts against a reference range table and a set of
// vertical profiles. It holds only immutable configuration, so one Engine
// serves concurrent scoring requests without locking.
type Engine struct {
	table     *refrange.Table
	verticals *Registry
}

// NewEngine creates an Engine from a range table and vertical registry.
func NewEngine(table *refrange.Table, verticals *Registry) *Engine {
	return &Engine{table: table, verticals: verticals}
}

// Table exposes the engine's reference range table (catalog listing).
func (e *Engine) Table() *refrange.Table { return e.table }

// Verticals exposes the engine's vertical registry.
func (e *Engine) Verticals() *Registry { return e.verticals }

// ScoreAccount computes the full health score for one account from an
// in-memory snapshot of its measurements. The computation is pure and
// synchronous; the caller is responsible for handing it a consistent read
// set (one store query or transaction).
func (e *Engine) ScoreAccount(accountID, vertical string, measurements []model.Measurement) model.AccountHealthScore {
	profile := e.verticals.Get(vertical)

	agg := Aggregate(e.table, measurements)
	categories := agg.CategoryScores(profile)
	overall := Compose(categories, profile)

	result := model.AccountHealthScore{
		AccountID:      accountID,
		Vertical:       profile.Name,
		Categories:     categories,
		Overall:        overall,
		Classification: profile.Thresholds.Classify(overall),
		DroppedParse:   agg.DroppedParse,
		UnknownKPIs:    agg.UnknownKPIs,
		ComputedAt:     time.Now().UTC(),
	}

	if overall == nil {
		zap.L().Info("scoring: account has no scorable measurements",
			zap.String("account_id", accountID),
			zap.Int("measurements", len(measurements)),
			zap.Int("dropped_parse", agg.DroppedParse),
			zap.Strings("unknown_kpis", agg.UnknownKPIs),
		)
	}
	return result
}
