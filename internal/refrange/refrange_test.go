package refrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRange() ReferenceRange {
	return ReferenceRange{
		KPI: "License Utilization", Category: CategoryProductUsage, Unit: "%",
		HigherIsBetter: true,
		Low:            Band{Min: 0, Max: 40},
		Medium:         Band{Min: 40, Max: 70},
		High:           Band{Min: 70, Max: 100},
	}
}

func TestReferenceRangeValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ReferenceRange)
		wantErr string
	}{
		{"valid", func(r *ReferenceRange) {}, ""},
		{"missing kpi", func(r *ReferenceRange) { r.KPI = "" }, "kpi name is required"},
		{"inverted band", func(r *ReferenceRange) { r.Low = Band{Min: 50, Max: 10} }, "low band min"},
		{"low overlaps medium", func(r *ReferenceRange) { r.Low.Max = 45 }, "low band overlaps medium"},
		{"medium overlaps high", func(r *ReferenceRange) { r.Medium.Max = 80 }, "medium band overlaps high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRange()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestTableLookup(t *testing.T) {
	tbl, err := NewTable([]ReferenceRange{validRange()})
	require.NoError(t, err)

	t.Run("exact name", func(t *testing.T) {
		r, ok := tbl.Lookup("License Utilization")
		require.True(t, ok)
		assert.Equal(t, "%", r.Unit)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		_, ok := tbl.Lookup("  license utilization ")
		assert.True(t, ok)
	})

	t.Run("unknown kpi", func(t *testing.T) {
		_, ok := tbl.Lookup("Churn Rate")
		assert.False(t, ok)
	})
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]ReferenceRange{validRange(), validRange()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate range")
}

func TestCatalogDirectionOfGoodness(t *testing.T) {
	lower := ReferenceRange{
		KPI: "Open Tickets", Category: CategorySupport, Unit: "tickets",
		HigherIsBetter: false,
		Low:            Band{Min: 0, Max: 5},
		Medium:         Band{Min: 5, Max: 15},
		High:           Band{Min: 15, Max: 50},
	}
	tbl, err := NewTable([]ReferenceRange{validRange(), lower})
	require.NoError(t, err)

	cat := tbl.Catalog()
	require.Len(t, cat, 2)

	// Sorted by KPI name: License Utilization before Open Tickets.
	assert.Equal(t, "License Utilization", cat[0].KPI)
	assert.Contains(t, cat[0].HealthyBand, "70")

	// For lower-is-better, the low raw band is the healthy one.
	assert.Equal(t, "Open Tickets", cat[1].KPI)
	assert.Contains(t, cat[1].HealthyBand, "0")
	assert.Contains(t, cat[1].CriticalBand, "50")
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
ranges:
  - kpi: CSAT
    category: Customer Sentiment
    unit: /10
    higher_is_better: true
    low: {min: 0, max: 5}
    medium: {min: 5, max: 7.5}
    high: {min: 7.5, max: 10}
`)
	tbl, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	r, ok := tbl.Lookup("CSAT")
	require.True(t, ok)
	assert.True(t, r.HigherIsBetter)
	assert.InDelta(t, 7.5, r.High.Min, 0.001)
}

func TestParseYAMLInvalid(t *testing.T) {
	_, err := Parse([]byte("ranges: [not a range]"))
	assert.Error(t, err)
}

func TestDefaultTableIsValid(t *testing.T) {
	tbl := DefaultTable()
	assert.Greater(t, tbl.Len(), 5)

	// Every default category is one of the 5 pillars.
	pillars := map[string]bool{
		CategoryProductUsage: true, CategorySupport: true, CategorySentiment: true,
		CategoryOutcomes: true, CategoryRelationship: true,
	}
	for _, r := range tbl.Ranges() {
		assert.True(t, pillars[r.Category], "unexpected category %q for %s", r.Category, r.KPI)
	}
}
