package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-engine/internal/model"
)

func scored(accountID string, overall float64, categories ...model.CategoryScore) Input {
	return Input{
		AccountID: accountID,
		Score: model.AccountHealthScore{
			AccountID:  accountID,
			Overall:    &overall,
			Categories: categories,
		},
	}
}

func unscored(accountID string) Input {
	return Input{
		AccountID: accountID,
		Score:     model.AccountHealthScore{AccountID: accountID},
	}
}

func size(v float64) *float64 { return &v }

func TestRollupUnweightedExcludesUndefined(t *testing.T) {
	got := Rollup([]Input{
		scored("a", 90),
		scored("b", 70),
		unscored("c"),
	}, Options{})

	require.NotNil(t, got.Overall)
	assert.InDelta(t, 80, *got.Overall, 0.001)
	assert.Equal(t, 2, got.AccountsIncluded)
	assert.Equal(t, 1, got.AccountsExcluded)
	require.Len(t, got.Exclusions, 1)
	assert.Equal(t, "c", got.Exclusions[0].AccountID)
	assert.Equal(t, model.ExcludedNoData, got.Exclusions[0].Reason)
}

func TestRollupSizeWeightedZeroSizeGetsUnitWeight(t *testing.T) {
	a := scored("a", 80)
	a.SizeMetric = size(100)
	b := scored("b", 60)
	b.SizeMetric = size(0)

	got := Rollup([]Input{a, b}, Options{SizeWeighted: true})

	require.NotNil(t, got.Overall)
	assert.InDelta(t, (100*80.0+1*60.0)/101.0, *got.Overall, 0.001)
	assert.Equal(t, 2, got.AccountsIncluded)
	assert.Zero(t, got.AccountsExcluded)
}

func TestRollupSizeWeightedMissingSizeGetsUnitWeight(t *testing.T) {
	a := scored("a", 100)
	a.SizeMetric = size(3)
	b := scored("b", 50) // no size metric

	got := Rollup([]Input{a, b}, Options{SizeWeighted: true})

	require.NotNil(t, got.Overall)
	assert.InDelta(t, (3*100.0+1*50.0)/4.0, *got.Overall, 0.001)
}

func TestRollupOptOut(t *testing.T) {
	a := scored("a", 90)
	b := scored("b", 50)
	b.OptOut = true

	got := Rollup([]Input{a, b}, Options{})

	require.NotNil(t, got.Overall)
	assert.InDelta(t, 90, *got.Overall, 0.001)
	require.Len(t, got.Exclusions, 1)
	assert.Equal(t, model.ExcludedOptOut, got.Exclusions[0].Reason)
}

func TestRollupCategoryAveragesSkipNoData(t *testing.T) {
	a := scored("a", 80,
		model.CategoryScore{Category: "Support", Average: 80, ContributingCount: 2, HasData: true},
		model.CategoryScore{Category: "Product Usage", Average: 70, ContributingCount: 1, HasData: true},
	)
	b := scored("b", 40,
		model.CategoryScore{Category: "Support", Average: 40, ContributingCount: 1, HasData: true},
		model.CategoryScore{Category: "Product Usage"}, // no data
	)

	got := Rollup([]Input{a, b}, Options{})

	require.Len(t, got.Categories, 2)
	// Sorted by category name.
	usage := got.Categories[0]
	assert.Equal(t, "Product Usage", usage.Category)
	assert.InDelta(t, 70, usage.Average, 0.001)
	assert.Equal(t, 1, usage.AccountCount)

	support := got.Categories[1]
	assert.Equal(t, "Support", support.Category)
	assert.InDelta(t, 60, support.Average, 0.001)
	assert.Equal(t, 2, support.AccountCount)
}

func TestRollupAllExcludedIsUndefined(t *testing.T) {
	got := Rollup([]Input{unscored("a"), unscored("b")}, Options{})

	assert.Nil(t, got.Overall)
	assert.Empty(t, got.Categories)
	assert.Zero(t, got.AccountsIncluded)
	assert.Equal(t, 2, got.AccountsExcluded)
}

func TestRollupEmptyInput(t *testing.T) {
	got := Rollup(nil, Options{SizeWeighted: true})
	assert.Nil(t, got.Overall)
	assert.Zero(t, got.AccountsIncluded)
}
