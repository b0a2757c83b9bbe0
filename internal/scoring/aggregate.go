package scoring

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

// CategoryStat accumulates normalized scores for one category.
type CategoryStat struct {
	Category string
	Sum      float64
	Count    int
}

// Average returns the arithmetic mean of the contributing scores.
func (c CategoryStat) Average() float64 {
	if c.Count == 0 {
		return 0
	}
	return c.Sum / float64(c.Count)
}

// Aggregation is the result of grouping an account's normalized measurements
// by category, with enough accounting to tell "low health" from "no data".
type Aggregation struct {
	Stats        map[string]CategoryStat
	DroppedParse int      // measurements whose raw value was not numeric
	UnknownKPIs  []string // KPI names with no configured reference range
}

// Aggregate normalizes each measurement against the table and groups scores
// by category. The category comes from the KPI definition; the measurement's
// ingest-time component label is only a fallback for definitions that carry
// none. Unparseable values and unknown KPIs are excluded and reported, never
// coerced to a score.
func Aggregate(table *refrange.Table, measurements []model.Measurement) Aggregation {
	agg := Aggregation{Stats: make(map[string]CategoryStat)}
	seenUnknown := make(map[string]bool)

	for _, m := range measurements {
		rr, ok := table.Lookup(m.KPI)
		if !ok {
			if !seenUnknown[m.KPI] {
				seenUnknown[m.KPI] = true
				agg.UnknownKPIs = append(agg.UnknownKPIs, m.KPI)
			}
			zap.L().Warn("scoring: no reference range for kpi, measurement excluded",
				zap.String("kpi", m.KPI),
				zap.String("account_id", m.AccountID),
			)
			continue
		}

		score, err := NormalizeRaw(rr, m.RawValue)
		if err != nil {
			agg.DroppedParse++
			zap.L().Debug("scoring: unparseable measurement excluded",
				zap.String("kpi", m.KPI),
				zap.String("raw_value", m.RawValue),
				zap.String("account_id", m.AccountID),
			)
			continue
		}

		category := rr.Category
		if category == "" {
			category = m.Component
		}
		stat := agg.Stats[category]
		stat.Category = category
		stat.Sum += score
		stat.Count++
		agg.Stats[category] = stat
	}

	sort.Strings(agg.UnknownKPIs)
	return agg
}

// CategoryScores renders the aggregation as result records covering every
// category the profile weights, including has_data=false entries for
// categories with no contributing measurements.
func (a Aggregation) CategoryScores(profile Profile) []model.CategoryScore {
	names := make([]string, 0, len(profile.Weights)+len(a.Stats))
	seen := make(map[string]bool)
	for cat := range profile.Weights {
		names = append(names, cat)
		seen[cat] = true
	}
	// Categories with data but no configured weight still appear in the
	// output; they just carry no weight in composition.
	for cat := range a.Stats {
		if !seen[cat] {
			names = append(names, cat)
		}
	}
	sort.Strings(names)

	scores := make([]model.CategoryScore, 0, len(names))
	for _, cat := range names {
		stat, ok := a.Stats[cat]
		if !ok || stat.Count == 0 {
			scores = append(scores, model.CategoryScore{Category: cat})
			continue
		}
		scores = append(scores, model.CategoryScore{
			Category:          cat,
			Average:           stat.Average(),
			ContributingCount: stat.Count,
			HasData:           true,
		})
	}
	return scores
}
