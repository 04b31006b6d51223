package filter

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solmere/tilescout/internal/world"
)

// Settings is the ordered filter configuration one search runs against.
// The engine borrows Settings for the duration of a job and never
// mutates it; a relaxed search operates on a Relax() clone.
type Settings struct {
	// Filters is the ordered criterion list.
	Filters []Filter

	// MaxResults caps the final ranked result list.
	MaxResults int

	// MaxCandidates bounds the aggregation stage's candidate list.
	// Zero or negative disables truncation.
	MaxCandidates int
}

// DefaultMaxResults is used when a settings file leaves max_results unset.
const DefaultMaxResults = 25

// DefaultMaxCandidates is used when a settings file leaves max_candidates
// unset.
const DefaultMaxCandidates = 1000

// Validate checks every filter and the limits.
func (s *Settings) Validate() error {
	if s.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", s.MaxResults)
	}
	for _, f := range s.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	c := &Settings{
		MaxResults:    s.MaxResults,
		MaxCandidates: s.MaxCandidates,
		Filters:       make([]Filter, len(s.Filters)),
	}
	for i, f := range s.Filters {
		c.Filters[i] = f.clone()
	}
	return c
}

// Relax returns a clone with all gates demoted to scoring criteria:
// MustHave becomes Priority, MustNotHave becomes a negated Priority (the
// tile is rewarded for not matching). The receiver is left untouched.
func (s *Settings) Relax() *Settings {
	c := s.Clone()
	for i := range c.Filters {
		switch c.Filters[i].Importance {
		case MustHave:
			c.Filters[i].Importance = Priority
		case MustNotHave:
			c.Filters[i].Importance = Priority
			c.Filters[i].Negate = !c.Filters[i].Negate
		}
	}
	return c
}

// Requirements returns the MustHave and MustNotHave filters, deep-copied.
// The relaxed-search fallback snapshots these before demoting anything.
func (s *Settings) Requirements() []Filter {
	var reqs []Filter
	for _, f := range s.Filters {
		if f.Importance == MustHave || f.Importance == MustNotHave {
			reqs = append(reqs, f.clone())
		}
	}
	return reqs
}

// settingsFile is the YAML form of Settings.
type settingsFile struct {
	MaxResults    int          `yaml:"max_results"`
	MaxCandidates int          `yaml:"max_candidates"`
	Filters       []filterFile `yaml:"filters"`
}

type filterFile struct {
	ID         string   `yaml:"id"`
	Kind       string   `yaml:"kind"`
	Importance string   `yaml:"importance"`
	Negate     bool     `yaml:"negate,omitempty"`
	Biomes     []string `yaml:"biomes,omitempty"`
	Min        float64  `yaml:"min,omitempty"`
	Max        float64  `yaml:"max,omitempty"`
	RiverMin   int      `yaml:"river_min,omitempty"`
	RoadMin    int      `yaml:"road_min,omitempty"`
	Feature    string   `yaml:"feature,omitempty"`
	Stones     []string `yaml:"stones,omitempty"`
}

// Load reads a settings file from YAML.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filter settings: %w", err)
	}
	return Parse(data)
}

// Parse decodes settings from YAML bytes.
func Parse(data []byte) (*Settings, error) {
	var sf settingsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse filter settings: %w", err)
	}

	s := &Settings{
		MaxResults:    sf.MaxResults,
		MaxCandidates: sf.MaxCandidates,
	}
	if s.MaxResults == 0 {
		s.MaxResults = DefaultMaxResults
	}
	if s.MaxCandidates == 0 {
		s.MaxCandidates = DefaultMaxCandidates
	}

	for i, ff := range sf.Filters {
		f, err := ff.toFilter()
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		s.Filters = append(s.Filters, f)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseKind converts a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k := Kind(0); k < kindCount; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown filter kind %q", s)
}

func (ff filterFile) toFilter() (Filter, error) {
	kind, err := ParseKind(ff.Kind)
	if err != nil {
		return Filter{}, err
	}
	imp, err := ParseImportance(ff.Importance)
	if err != nil {
		return Filter{}, err
	}

	f := Filter{
		ID:         ff.ID,
		Kind:       kind,
		Importance: imp,
		Negate:     ff.Negate,
		Span:       Range{Min: ff.Min, Max: ff.Max},
		RiverMin:   world.RiverSize(ff.RiverMin),
		RoadMin:    world.RoadType(ff.RoadMin),
	}

	for _, name := range ff.Biomes {
		b, ok := world.ParseBiome(name)
		if !ok {
			return Filter{}, fmt.Errorf("unknown biome %q", name)
		}
		f.Biomes = append(f.Biomes, b)
	}

	if kind == KindHilliness {
		f.HillinessMin = world.Hilliness(ff.Min)
		f.HillinessMax = world.Hilliness(ff.Max)
	}

	switch ff.Feature {
	case "":
		f.Feature = world.FeatureNone
	case "cave":
		f.Feature = world.FeatureCave
	case "hot_spring":
		f.Feature = world.FeatureHotSpring
	case "crater":
		f.Feature = world.FeatureCrater
	case "ruins":
		f.Feature = world.FeatureRuins
	default:
		return Filter{}, fmt.Errorf("unknown feature %q", ff.Feature)
	}

	for _, name := range ff.Stones {
		var stone world.Stone
		found := false
		for s := world.StoneSandstone; s <= world.StoneMarble; s++ {
			if s.String() == name {
				stone, found = s, true
				break
			}
		}
		if !found {
			return Filter{}, fmt.Errorf("unknown stone %q", name)
		}
		f.Stones = append(f.Stones, stone)
	}

	return f, nil
}
