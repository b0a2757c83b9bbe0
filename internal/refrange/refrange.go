// Package refrange holds the per-KPI reference range configuration that maps
// raw measurement values onto critical/risk/healthy bands.
package refrange

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Band is one value band with inclusive bounds.
type Band struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v falls inside the band (inclusive on both ends).
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Width returns the band's raw-value span.
func (b Band) Width() float64 {
	return b.Max - b.Min
}

// ReferenceRange defines how one KPI's raw values map onto bands. Bands are
// always stored on the ascending raw-value axis; HigherIsBetter controls
// which end of the axis is healthy.
type ReferenceRange struct {
	KPI            string `yaml:"kpi" json:"kpi"`
	Category       string `yaml:"category" json:"category"`
	Unit           string `yaml:"unit" json:"unit"`
	HigherIsBetter bool   `yaml:"higher_is_better" json:"higher_is_better"`
	Low            Band   `yaml:"low" json:"low"`
	Medium         Band   `yaml:"medium" json:"medium"`
	High           Band   `yaml:"high" json:"high"`
}

// Validate checks band ordering and non-overlap on the ascending axis.
func (r ReferenceRange) Validate() error {
	var errs []string

	if r.KPI == "" {
		errs = append(errs, "kpi name is required")
	}
	for _, b := range []struct {
		name string
		band Band
	}{
		{"low", r.Low}, {"medium", r.Medium}, {"high", r.High},
	} {
		if b.band.Min > b.band.Max {
			errs = append(errs, fmt.Sprintf("%s band min %.4g > max %.4g", b.name, b.band.Min, b.band.Max))
		}
	}
	if r.Low.Max > r.Medium.Min {
		errs = append(errs, "low band overlaps medium band")
	}
	if r.Medium.Max > r.High.Min {
		errs = append(errs, "medium band overlaps high band")
	}

	if len(errs) > 0 {
		return eris.Errorf("refrange: invalid range for %q: %s", r.KPI, strings.Join(errs, "; "))
	}
	return nil
}

// Table is an immutable KPI-name-indexed lookup of reference ranges.
// Build one per scoring run; it is safe for concurrent readers.
type Table struct {
	byKPI map[string]ReferenceRange
}

// NewTable validates every range and builds a lookup table. Duplicate KPI
// names are rejected rather than last-write-wins.
func NewTable(ranges []ReferenceRange) (*Table, error) {
	byKPI := make(map[string]ReferenceRange, len(ranges))
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		key := normalizeKPI(r.KPI)
		if _, dup := byKPI[key]; dup {
			return nil, eris.Errorf("refrange: duplicate range for %q", r.KPI)
		}
		byKPI[key] = r
	}
	return &Table{byKPI: byKPI}, nil
}

// Lookup returns the range for a KPI name. Name matching is case-insensitive
// and whitespace-trimmed so upload-sourced names resolve reliably.
func (t *Table) Lookup(kpi string) (ReferenceRange, bool) {
	r, ok := t.byKPI[normalizeKPI(kpi)]
	return r, ok
}

// Len returns the number of configured ranges.
func (t *Table) Len() int { return len(t.byKPI) }

// Ranges returns all ranges sorted by KPI name.
func (t *Table) Ranges() []ReferenceRange {
	out := make([]ReferenceRange, 0, len(t.byKPI))
	for _, r := range t.byKPI {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KPI < out[j].KPI })
	return out
}

func normalizeKPI(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CatalogEntry is the read-only listing of one KPI range for UI display.
type CatalogEntry struct {
	KPI            string `json:"kpi"`
	Category       string `json:"category"`
	Unit           string `json:"unit"`
	HigherIsBetter bool   `json:"higher_is_better"`
	CriticalBand   string `json:"critical_band"`
	RiskBand       string `json:"risk_band"`
	HealthyBand    string `json:"healthy_band"`
}

// Catalog returns display entries sorted by KPI name. The critical/risk/
// healthy labels follow direction of goodness: for lower-is-better KPIs the
// low raw band is the healthy one.
func (t *Table) Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(t.byKPI))
	for _, r := range t.Ranges() {
		e := CatalogEntry{
			KPI:            r.KPI,
			Category:       r.Category,
			Unit:           r.Unit,
			HigherIsBetter: r.HigherIsBetter,
		}
		if r.HigherIsBetter {
			e.CriticalBand = bandString(r.Low, r.Unit)
			e.RiskBand = bandString(r.Medium, r.Unit)
			e.HealthyBand = bandString(r.High, r.Unit)
		} else {
			e.CriticalBand = bandString(r.High, r.Unit)
			e.RiskBand = bandString(r.Medium, r.Unit)
			e.HealthyBand = bandString(r.Low, r.Unit)
		}
		entries = append(entries, e)
	}
	return entries
}

func bandString(b Band, unit string) string {
	if unit != "" {
		return fmt.Sprintf("%.4g–%.4g %s", b.Min, b.Max, unit)
	}
	return fmt.Sprintf("%.4g–%.4g", b.Min, b.Max)
}

// rangeFile is the YAML layout for a reference range file.
type rangeFile struct {
	Ranges []ReferenceRange `yaml:"ranges"`
}

// Parse builds a table from YAML bytes.
func Parse(data []byte) (*Table, error) {
	var f rangeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "refrange: parse yaml")
	}
	return NewTable(f.Ranges)
}

// Load reads a reference range file from disk.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "refrange: read %s", path)
	}
	return Parse(data)
}
