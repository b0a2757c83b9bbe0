package refrange

// Category names for the default 5-pillar configuration.
const (
	CategoryProductUsage = "Product Usage"
	CategorySupport      = "Support"
	CategorySentiment    = "Customer Sentiment"
	CategoryOutcomes     = "Business Outcomes"
	CategoryRelationship = "Relationship Strength"
)

// Defaults returns the seed reference range table used when no range file is
// configured. Verticals override these out-of-band via the admin replace-all.
func Defaults() []ReferenceRange {
	return []ReferenceRange{
		{
			KPI: "License Utilization", Category: CategoryProductUsage, Unit: "%",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 40},
			Medium:         Band{Min: 40, Max: 70},
			High:           Band{Min: 70, Max: 100},
		},
		{
			KPI: "Monthly Active Users", Category: CategoryProductUsage, Unit: "%",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 30},
			Medium:         Band{Min: 30, Max: 60},
			High:           Band{Min: 60, Max: 100},
		},
		{
			KPI: "Feature Adoption", Category: CategoryProductUsage, Unit: "%",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 25},
			Medium:         Band{Min: 25, Max: 55},
			High:           Band{Min: 55, Max: 100},
		},
		{
			KPI: "Open Tickets", Category: CategorySupport, Unit: "tickets",
			HigherIsBetter: false,
			Low:            Band{Min: 0, Max: 5},
			Medium:         Band{Min: 5, Max: 15},
			High:           Band{Min: 15, Max: 50},
		},
		{
			KPI: "Avg Resolution Time", Category: CategorySupport, Unit: "hours",
			HigherIsBetter: false,
			Low:            Band{Min: 0, Max: 8},
			Medium:         Band{Min: 8, Max: 24},
			High:           Band{Min: 24, Max: 72},
		},
		{
			KPI: "Escalations", Category: CategorySupport, Unit: "per quarter",
			HigherIsBetter: false,
			Low:            Band{Min: 0, Max: 1},
			Medium:         Band{Min: 1, Max: 3},
			High:           Band{Min: 3, Max: 10},
		},
		{
			KPI: "NPS", Category: CategorySentiment, Unit: "",
			HigherIsBetter: true,
			Low:            Band{Min: -100, Max: 0},
			Medium:         Band{Min: 0, Max: 30},
			High:           Band{Min: 30, Max: 100},
		},
		{
			KPI: "CSAT", Category: CategorySentiment, Unit: "/10",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 5},
			Medium:         Band{Min: 5, Max: 7.5},
			High:           Band{Min: 7.5, Max: 10},
		},
		{
			KPI: "Realized ROI", Category: CategoryOutcomes, Unit: "%",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 50},
			Medium:         Band{Min: 50, Max: 120},
			High:           Band{Min: 120, Max: 400},
		},
		{
			KPI: "Cost Savings", Category: CategoryOutcomes, Unit: "$",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 25000},
			Medium:         Band{Min: 25000, Max: 100000},
			High:           Band{Min: 100000, Max: 1000000},
		},
		{
			KPI: "Exec Touchpoints", Category: CategoryRelationship, Unit: "per quarter",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 1},
			Medium:         Band{Min: 1, Max: 3},
			High:           Band{Min: 3, Max: 12},
		},
		{
			KPI: "Champion Count", Category: CategoryRelationship, Unit: "contacts",
			HigherIsBetter: true,
			Low:            Band{Min: 0, Max: 1},
			Medium:         Band{Min: 1, Max: 3},
			High:           Band{Min: 3, Max: 10},
		},
	}
}

// DefaultTable builds the seed table. Panics only if the defaults themselves
// are invalid, which is a programming error caught by tests.
func DefaultTable() *Table {
	t, err := NewTable(Defaults())
	if err != nil {
		panic(err)
	}
	return t
}
