package scoring

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/health-engine/internal/model"
	"github.com/sells-group/health-engine/internal/refrange"
)

// weightSumTolerance is how far a vertical's category weights may drift from
// 1.0 before the profile is rejected.
const weightSumTolerance = 0.01

// DefaultVertical is the profile used when an account's vertical is unknown
// or its profile fails validation.
const DefaultVertical = "default"

// Thresholds are the score cutoffs used for classification labels only;
// they never influence the numeric score.
type Thresholds struct {
	Healthy float64 `json:"healthy" yaml:"healthy" mapstructure:"healthy"`
	AtRisk  float64 `json:"at_risk" yaml:"at_risk" mapstructure:"at_risk"`
}

// Classify maps an overall score to a label. A nil score is unscored.
func (t Thresholds) Classify(overall *float64) model.Classification {
	if overall == nil {
		return model.ClassUnscored
	}
	switch {
	case *overall >= t.Healthy:
		return model.ClassHealthy
	case *overall >= t.AtRisk:
		return model.ClassAtRisk
	default:
		return model.ClassCritical
	}
}

// Profile is one vertical's category weighting scheme.
type Profile struct {
	Name       string             `json:"name" yaml:"name"`
	Weights    map[string]float64 `json:"weights" yaml:"weights"`
	Thresholds Thresholds         `json:"thresholds" yaml:"thresholds"`
}

// Validate checks that weights are in [0,1] and sum to 1.0 within tolerance.
func (p Profile) Validate() error {
	var errs []string

	if len(p.Weights) == 0 {
		errs = append(errs, "no category weights configured")
	}
	var sum float64
	for cat, w := range p.Weights {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("weight for %q must be in [0,1], got %.4g", cat, w))
		}
		sum += w
	}
	if len(p.Weights) > 0 && math.Abs(sum-1.0) > weightSumTolerance {
		errs = append(errs, fmt.Sprintf("weights must sum to 1.0, got %.4g", sum))
	}
	if p.Thresholds.AtRisk > p.Thresholds.Healthy {
		errs = append(errs, "at_risk threshold exceeds healthy threshold")
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: invalid profile %q: %s", p.Name, strings.Join(errs, "; "))
	}
	return nil
}

// Registry holds the configured vertical profiles. Lookup fails closed: an
// unknown vertical or a profile with broken weights resolves to the default
// profile, with the anomaly logged rather than failing the scoring call.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds a registry. The default profile must be present and
// valid; other profiles are validated lazily at lookup so one bad vertical
// cannot take down every scoring request.
func NewRegistry(profiles []Profile) (*Registry, error) {
	byName := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		byName[strings.ToLower(p.Name)] = p
	}

	def, ok := byName[DefaultVertical]
	if !ok {
		return nil, eris.New("scoring: registry requires a default profile")
	}
	if err := def.Validate(); err != nil {
		return nil, eris.Wrap(err, "scoring: default profile invalid")
	}

	return &Registry{profiles: byName}, nil
}

// Get resolves a vertical name to its profile, falling back to the default.
func (r *Registry) Get(vertical string) Profile {
	def := r.profiles[DefaultVertical]

	name := strings.ToLower(strings.TrimSpace(vertical))
	if name == "" {
		return def
	}
	p, ok := r.profiles[name]
	if !ok {
		zap.L().Warn("scoring: unknown vertical, using default profile",
			zap.String("vertical", vertical),
		)
		return def
	}
	if err := p.Validate(); err != nil {
		zap.L().Error("scoring: misconfigured vertical profile, using default",
			zap.String("vertical", vertical),
			zap.Error(err),
		)
		return def
	}
	return p
}

// Names returns the registered vertical names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for n := range r.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultProfiles returns the built-in verticals: the 5-pillar SaaS default
// and the data-center profile with its infrastructure-heavy split.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name: DefaultVertical,
			Weights: map[string]float64{
				refrange.CategoryProductUsage: 0.25,
				refrange.CategorySupport:      0.20,
				refrange.CategorySentiment:    0.20,
				refrange.CategoryOutcomes:     0.20,
				refrange.CategoryRelationship: 0.15,
			},
			Thresholds: Thresholds{Healthy: 70, AtRisk: 40},
		},
		{
			Name: "datacenter",
			Weights: map[string]float64{
				"Infrastructure Health":       0.30,
				"Service Delivery":            0.25,
				refrange.CategorySentiment:    0.15,
				refrange.CategoryOutcomes:     0.20,
				refrange.CategoryRelationship: 0.10,
			},
			Thresholds: Thresholds{Healthy: 75, AtRisk: 50},
		},
	}
}

// profileFile is the YAML layout for a verticals file.
type profileFile struct {
	Verticals []Profile `yaml:"verticals"`
}

// ParseProfiles builds a registry from YAML bytes.
func ParseProfiles(data []byte) (*Registry, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "scoring: parse verticals yaml")
	}
	return NewRegistry(f.Verticals)
}

// LoadProfiles reads a verticals file from disk.
func LoadProfiles(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: read %s", path)
	}
	return ParseProfiles(data)
}
