// Package scoring turns raw KPI measurements into normalized 0-100 health
// scores and composes them into per-account category and overall scores.
package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/health-engine/internal/refrange"
)

// ErrNotNumeric marks a raw value from which no numeric token could be
// extracted. The measurement is excluded from aggregation, never scored as 0.
var ErrNotNumeric = eris.New("scoring: value is not numeric")

// Per-band score ranges on the 0-100 scale. The three bands own disjoint,
// contiguous ranges so interpolation is continuous across band boundaries.
const (
	lowBandFloor   = 0.0
	lowBandCeil    = 40.0
	mediumBandCeil = 70.0
	highBandCeil   = 100.0
)

var numericToken = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseValue extracts a numeric value from a raw measurement string. Uploads
// decorate values freely ("87%", "$1,250", "9 / 10", full-width digits), so
// the input is NFKC-folded and stripped of units before parsing. Returns
// ErrNotNumeric when no numeric token survives.
func ParseValue(raw string) (float64, error) {
	s := norm.NFKC.String(raw)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrNotNumeric
	}

	// Accounting-style negatives: "(500)" means -500.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// Unicode minus variants fold to a plain hyphen.
	s = strings.NewReplacer("−", "-", "–", "-", ",", "", " ", " ").Replace(s)

	tok := numericToken.FindString(s)
	if tok == "" {
		return 0, ErrNotNumeric
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	if negative {
		v = -v
	}
	return v, nil
}

// Normalize maps a parsed numeric value onto the 0-100 scale using the KPI's
// reference range. Band bounds are inclusive; values outside the outer bands
// clamp to the scale's ends. When HigherIsBetter is false the bands keep
// their ascending raw order but their score ranges invert, so a low raw
// value yields a high score.
func Normalize(rr refrange.ReferenceRange, value float64) float64 {
	type scoredBand struct {
		band       refrange.Band
		scoreAtMin float64
		scoreAtMax float64
	}

	var bands [3]scoredBand
	if rr.HigherIsBetter {
		bands = [3]scoredBand{
			{rr.Low, lowBandFloor, lowBandCeil},
			{rr.Medium, lowBandCeil, mediumBandCeil},
			{rr.High, mediumBandCeil, highBandCeil},
		}
	} else {
		bands = [3]scoredBand{
			{rr.Low, highBandCeil, mediumBandCeil},
			{rr.Medium, mediumBandCeil, lowBandCeil},
			{rr.High, lowBandCeil, lowBandFloor},
		}
	}

	// Clamp outside the configured raw axis.
	if value < rr.Low.Min {
		return bands[0].scoreAtMin
	}
	if value > rr.High.Max {
		return bands[2].scoreAtMax
	}

	for _, sb := range bands {
		if !sb.band.Contains(value) {
			continue
		}
		width := sb.band.Width()
		if width == 0 {
			return (sb.scoreAtMin + sb.scoreAtMax) / 2
		}
		frac := (value - sb.band.Min) / width
		return sb.scoreAtMin + frac*(sb.scoreAtMax-sb.scoreAtMin)
	}

	// Value sits in a gap between non-contiguous bands; snap to the nearer
	// band edge so the result stays monotonic.
	switch {
	case value < rr.Medium.Min:
		if value-rr.Low.Max < rr.Medium.Min-value {
			return bands[0].scoreAtMax
		}
		return bands[1].scoreAtMin
	default:
		if value-rr.Medium.Max < rr.High.Min-value {
			return bands[1].scoreAtMax
		}
		return bands[2].scoreAtMin
	}
}

// NormalizeRaw parses and normalizes in one step.
func NormalizeRaw(rr refrange.ReferenceRange, raw string) (float64, error) {
	v, err := ParseValue(raw)
	if err != nil {
		return 0, err
	}
	return Normalize(rr, v), nil
}
