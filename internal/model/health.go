package model

import "time"

// Classification labels an overall score against a vertical's thresholds.
type Classification string

const (
	ClassHealthy  Classification = "healthy"
	ClassAtRisk   Classification = "at_risk"
	ClassCritical Classification = "critical"
	ClassUnscored Classification = "unscored"
)

// CategoryScore is the averaged normalized score for one category (pillar).
// A category with no scorable measurements has HasData=false and Average 0;
// callers must branch on HasData, never on the zero value.
type CategoryScore struct {
	Category          string  `json:"category"`
	Average           float64 `json:"average_score"`
	ContributingCount int     `json:"contributing_count"`
	HasData           bool    `json:"has_data"`
}

// AccountHealthScore is the full scoring result for one account. Overall is
// nil when no category had data; it is never defaulted to 0 or 100.
type AccountHealthScore struct {
	AccountID      string          `json:"account_id"`
	Vertical       string          `json:"vertical"`
	Categories     []CategoryScore `json:"category_scores"`
	Overall        *float64        `json:"overall_score"`
	Classification Classification  `json:"classification"`
	DroppedParse   int             `json:"dropped_parse_errors"`
	UnknownKPIs    []string        `json:"unknown_kpis,omitempty"`
	ComputedAt     time.Time       `json:"computed_at"`
}

// CategoryFor returns the score entry for the named category.
func (s *AccountHealthScore) CategoryFor(name string) (CategoryScore, bool) {
	for _, cs := range s.Categories {
		if cs.Category == name {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// ExclusionReason explains why an account was left out of a rollup.
type ExclusionReason string

const (
	ExcludedNoData ExclusionReason = "no_data"
	ExcludedOptOut ExclusionReason = "opt_out"
)

// Exclusion records one account dropped from a corporate rollup.
type Exclusion struct {
	AccountID string          `json:"account_id"`
	Reason    ExclusionReason `json:"reason"`
}

// CategoryRollup is the portfolio-level aggregate for one category.
type CategoryRollup struct {
	Category     string  `json:"category"`
	Average      float64 `json:"average_score"`
	AccountCount int     `json:"account_count"`
	HasData      bool    `json:"has_data"`
}

// CorporateRollup aggregates per-account scores into a portfolio view.
type CorporateRollup struct {
	Categories        []CategoryRollup `json:"category_rollup"`
	Overall           *float64         `json:"overall_rollup"`
	SizeWeighted      bool             `json:"size_weighted"`
	AccountsIncluded  int              `json:"accounts_included"`
	AccountsExcluded  int              `json:"accounts_excluded"`
	Exclusions        []Exclusion      `json:"exclusion_reasons,omitempty"`
	ComputedAt        time.Time        `json:"computed_at"`
}

// TrendSnapshot persists one account's computed score for a given month.
// Exactly one row exists per (AccountID, Year, Month); re-recording replaces it.
type TrendSnapshot struct {
	ID         string             `json:"id"`
	AccountID  string             `json:"account_id"`
	Year       int                `json:"year"`
	Month      int                `json:"month"`
	Score      AccountHealthScore `json:"score"`
	RecordedAt time.Time          `json:"recorded_at"`
}
