package scoring

import "github.com/sells-group/health-engine/internal/model"

// Compose combines category averages into one overall score using the
// profile's weights. Only categories with data participate; their configured
// weights are proportionally renormalized to sum to 1, which keeps the
// result in [0,100] no matter how many categories are missing. Returns nil
// when no weighted category has data.
func Compose(categories []model.CategoryScore, profile Profile) *float64 {
	var weightSum, weighted float64
	for _, cs := range categories {
		if !cs.HasData {
			continue
		}
		w, ok := profile.Weights[cs.Category]
		if !ok || w == 0 {
			continue
		}
		weightSum += w
		weighted += w * cs.Average
	}
	if weightSum == 0 {
		return nil
	}
	overall := weighted / weightSum
	return &overall
}
