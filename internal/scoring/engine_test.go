package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

// End-to-end scenario: one pillar unparseable, weights
// renormalized over the pillars that have data.
func TestEngineScoreAccountEndToEnd(t *testing.T) {
	tbl, err := refrange.NewTable([]refrange.ReferenceRange{
		{
			KPI: "Product Usage", Category: "Product Usage", Unit: "%",
			HigherIsBetter: true,
			Low:            refrange.Band{Min: 0, Max: 40},
			Medium:         refrange.Band{Min: 40, Max: 70},
			High:           refrange.Band{Min: 70, Max: 100},
		},
		{
			KPI: "Support", Category: "Support", Unit: "tickets",
			HigherIsBetter: false,
			Low:            refrange.Band{Min: 0, Max: 5},
			Medium:         refrange.Band{Min: 5, Max: 15},
			High:           refrange.Band{Min: 15, Max: 50},
		},
		{
			KPI: "Customer Sentiment", Category: "Customer Sentiment", Unit: "/10",
			HigherIsBetter: true,
			Low:            refrange.Band{Min: 0, Max: 4},
			Medium:         refrange.Band{Min: 4, Max: 7},
			High:           refrange.Band{Min: 7, Max: 10},
		},
	})
	require.NoError(t, err)

	reg, err := NewRegistry([]Profile{{
		Name: DefaultVertical,
		Weights: map[string]float64{
			"Product Usage":      0.4,
			"Support":            0.3,
			"Customer Sentiment": 0.3,
		},
		Thresholds: Thresholds{Healthy: 70, AtRisk: 40},
	}})
	require.NoError(t, err)

	engine := NewEngine(tbl, reg)

	result := engine.ScoreAccount("acct-42", "", []model.Measurement{
		{AccountID: "acct-42", KPI: "Product Usage", RawValue: "85%"},
		{AccountID: "acct-42", KPI: "Support", RawValue: "N/A"},
		{AccountID: "acct-42", KPI: "Customer Sentiment", RawValue: "9"},
	})

	assert.Equal(t, "acct-42", result.AccountID)
	assert.Equal(t, 1, result.DroppedParse)
	assert.Empty(t, result.UnknownKPIs)

	usage, ok := result.CategoryFor("Product Usage")
	require.True(t, ok)
	assert.True(t, usage.HasData)
	assert.InDelta(t, 85, usage.Average, 0.001)

	support, ok := result.CategoryFor("Support")
	require.True(t, ok)
	assert.False(t, support.HasData)

	sentiment, ok := result.CategoryFor("Customer Sentiment")
	require.True(t, ok)
	assert.InDelta(t, 90, sentiment.Average, 0.001) // 9 interpolated in high band 7-10

	// Support lacks data: weights renormalize to {0.4/0.7, 0.3/0.7}.
	require.NotNil(t, result.Overall)
	want := (0.4*85 + 0.3*90) / 0.7
	assert.InDelta(t, want, *result.Overall, 0.001)
	assert.Equal(t, model.ClassHealthy, result.Classification)
}

func TestEngineScoreAccountNoMeasurements(t *testing.T) {
	engine := NewEngine(refrange.DefaultTable(), defaultRegistry(t))

	result := engine.ScoreAccount("acct-empty", "default", nil)

	assert.Nil(t, result.Overall)
	assert.Equal(t, model.ClassUnscored, result.Classification)
	for _, cs := range result.Categories {
		assert.False(t, cs.HasData)
	}
}

func TestEngineScoreAccountAllUnparseable(t *testing.T) {
	engine := NewEngine(refrange.DefaultTable(), defaultRegistry(t))

	result := engine.ScoreAccount("acct-bad", "default", []model.Measurement{
		{KPI: "CSAT", RawValue: "N/A"},
		{KPI: "NPS", RawValue: "tbd"},
	})

	assert.Nil(t, result.Overall)
	assert.Equal(t, model.ClassUnscored, result.Classification)
	assert.Equal(t, 2, result.DroppedParse)
}

func TestEngineUsesVerticalProfile(t *testing.T) {
	engine := NewEngine(refrange.DefaultTable(), defaultRegistry(t))

	result := engine.ScoreAccount("acct-dc", "datacenter", []model.Measurement{
		{KPI: "CSAT", RawValue: "9"},
	})

	assert.Equal(t, "datacenter", result.Vertical)
	require.NotNil(t, result.Overall)
	// Only sentiment has data, so the overall equals its average.
	sentiment, ok := result.CategoryFor(refrange.CategorySentiment)
	require.True(t, ok)
	assert.InDelta(t, sentiment.Average, *result.Overall, 0.001)
}
