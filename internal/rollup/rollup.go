// Package rollup aggregates per-account health scores into a corporate
// (portfolio-level) view.
package rollup

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/health-engine/internal/model"
)

// Input is one account's contribution to a corporate rollup.
type Input struct {
	AccountID  string
	Score      model.AccountHealthScore
	SizeMetric *float64 // revenue / contract value for size-weighted mode
	OptOut     bool     // account asked to be excluded from portfolio views
}

// Options controls rollup behavior.
type Options struct {
	// SizeWeighted weights each account by its size metric instead of an
	// equal share. Accounts with a zero or missing metric get weight 1 so a
	// single zero-revenue account cannot zero out the aggregate.
	SizeWeighted bool
}

// Rollup combines account scores into a CorporateRollup. Accounts with an
// undefined overall score are excluded from the overall rollup and from
// every category average, and the exclusion is reported with its reason.
func Rollup(inputs []Input, opts Options) model.CorporateRollup {
	result := model.CorporateRollup{
		SizeWeighted: opts.SizeWeighted,
		ComputedAt:   time.Now().UTC(),
	}

	type catAcc struct {
		weighted  float64
		weightSum float64
		count     int
	}
	categories := make(map[string]*catAcc)

	var overallWeighted, overallWeightSum float64

	for _, in := range inputs {
		if in.OptOut {
			result.AccountsExcluded++
			result.Exclusions = append(result.Exclusions, model.Exclusion{
				AccountID: in.AccountID, Reason: model.ExcludedOptOut,
			})
			continue
		}
		if in.Score.Overall == nil {
			result.AccountsExcluded++
			result.Exclusions = append(result.Exclusions, model.Exclusion{
				AccountID: in.AccountID, Reason: model.ExcludedNoData,
			})
			continue
		}

		weight := 1.0
		if opts.SizeWeighted && in.SizeMetric != nil && *in.SizeMetric > 0 {
			weight = *in.SizeMetric
		}

		result.AccountsIncluded++
		overallWeighted += weight * *in.Score.Overall
		overallWeightSum += weight

		for _, cs := range in.Score.Categories {
			if !cs.HasData {
				continue
			}
			acc := categories[cs.Category]
			if acc == nil {
				acc = &catAcc{}
				categories[cs.Category] = acc
			}
			acc.weighted += weight * cs.Average
			acc.weightSum += weight
			acc.count++
		}
	}

	if overallWeightSum > 0 {
		overall := overallWeighted / overallWeightSum
		result.Overall = &overall
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		acc := categories[name]
		result.Categories = append(result.Categories, model.CategoryRollup{
			Category:     name,
			Average:      acc.weighted / acc.weightSum,
			AccountCount: acc.count,
			HasData:      true,
		})
	}

	zap.L().Debug("rollup: computed corporate rollup",
		zap.Int("included", result.AccountsIncluded),
		zap.Int("excluded", result.AccountsExcluded),
		zap.Bool("size_weighted", opts.SizeWeighted),
	)
	return result
}
