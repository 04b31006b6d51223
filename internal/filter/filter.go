// Package filter models the user's search criteria as immutable filter
// values and compiles them into predicates the engine can evaluate per
// tile. Filter kinds form a closed set of tagged variants; dispatch is an
// exhaustive switch so a new kind fails to compile until every consumer
// handles it.
package filter

import (
	"fmt"

	"github.com/solmere/tilescout/internal/world"
)

// Importance classifies how a filter influences the search.
type Importance uint8

const (
	// MustHave gates candidacy: tiles failing the filter are penalized by
	// the adaptive threshold and the gate ratio.
	MustHave Importance = iota
	// MustNotHave excludes matching tiles unconditionally.
	MustNotHave
	// Priority contributes to the score at double weight.
	Priority
	// Preferred contributes to the score at single weight.
	Preferred
)

// String returns the importance name.
func (i Importance) String() string {
	switch i {
	case MustHave:
		return "must_have"
	case MustNotHave:
		return "must_not_have"
	case Priority:
		return "priority"
	case Preferred:
		return "preferred"
	default:
		return "unknown"
	}
}

// ParseImportance converts an importance name to an Importance.
func ParseImportance(s string) (Importance, error) {
	switch s {
	case "must_have":
		return MustHave, nil
	case "must_not_have":
		return MustNotHave, nil
	case "priority":
		return Priority, nil
	case "preferred":
		return Preferred, nil
	default:
		return 0, fmt.Errorf("unknown importance %q", s)
	}
}

// Cost classifies how expensive a filter is to evaluate.
type Cost uint8

const (
	// Cheap filters read raw tile attributes and are evaluated in bulk
	// across the whole universe.
	Cheap Cost = iota
	// Heavy filters need derived or adjacency data and are evaluated
	// lazily, only for aggregation survivors.
	Heavy
)

// Kind identifies the attribute a filter tests. The set is closed; every
// switch over Kind must cover all values.
type Kind uint8

const (
	KindBiome Kind = iota
	KindHilliness
	KindTemperature
	KindRainfall
	KindElevation
	KindSwampiness
	KindRiver
	KindRoad
	KindMapFeature
	KindCoastal
	KindStoneTypes
	KindMineralStockpile
	KindNeighborBiome
	KindGrowingSeason

	kindCount // sentinel, keep last
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBiome:
		return "biome"
	case KindHilliness:
		return "hilliness"
	case KindTemperature:
		return "temperature"
	case KindRainfall:
		return "rainfall"
	case KindElevation:
		return "elevation"
	case KindSwampiness:
		return "swampiness"
	case KindRiver:
		return "river"
	case KindRoad:
		return "road"
	case KindMapFeature:
		return "map_feature"
	case KindCoastal:
		return "coastal"
	case KindStoneTypes:
		return "stone_types"
	case KindMineralStockpile:
		return "mineral_stockpile"
	case KindNeighborBiome:
		return "neighbor_biome"
	case KindGrowingSeason:
		return "growing_season"
	default:
		return "unknown"
	}
}

// Cost returns the declared evaluation cost of this kind. Kinds that only
// read raw tile attributes are cheap; kinds needing derived or adjacency
// data are heavy.
func (k Kind) Cost() Cost {
	switch k {
	case KindCoastal, KindStoneTypes, KindMineralStockpile, KindNeighborBiome, KindGrowingSeason:
		return Heavy
	default:
		return Cheap
	}
}

// Range is a numeric interval. Min > Max is invalid; equal bounds match a
// single value.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies within the range, inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Filter is one user criterion: a kind with its typed payload, tagged
// with an importance class. Filters are immutable value objects; the
// engine borrows them for the duration of one job and never mutates them.
//
// Exactly one payload field is meaningful for any given Kind; which one
// is documented per field.
type Filter struct {
	// ID identifies the filter within one Settings, used as the breakdown
	// key. Unique across the filter list.
	ID string

	// Kind selects the tested attribute.
	Kind Kind

	// Importance classifies the filter's role in the search.
	Importance Importance

	// Negate inverts the match. Settable in the YAML format; also set by
	// Settings.Relax when demoting MustNotHave filters to scoring.
	Negate bool

	// Biomes is the allowed biome set (KindBiome, KindNeighborBiome).
	Biomes []world.Biome

	// HillinessMin and HillinessMax bound terrain relief (KindHilliness).
	HillinessMin world.Hilliness
	HillinessMax world.Hilliness

	// Span bounds a numeric attribute (KindTemperature, KindRainfall,
	// KindElevation, KindSwampiness, KindGrowingSeason).
	Span Range

	// RiverMin is the smallest acceptable river (KindRiver).
	RiverMin world.RiverSize

	// RoadMin is the smallest acceptable road (KindRoad).
	RoadMin world.RoadType

	// Feature is the required map feature (KindMapFeature).
	Feature world.Feature

	// Stones is the required stone set, all of which must be present
	// (KindStoneTypes).
	Stones []world.Stone
}

// Validate checks the payload for the filter's kind.
func (f Filter) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("filter has empty id")
	}
	switch f.Kind {
	case KindBiome, KindNeighborBiome:
		if len(f.Biomes) == 0 {
			return fmt.Errorf("filter %s: no biomes listed", f.ID)
		}
	case KindHilliness:
		if f.HillinessMin > f.HillinessMax {
			return fmt.Errorf("filter %s: hilliness range inverted", f.ID)
		}
	case KindTemperature, KindRainfall, KindElevation, KindSwampiness, KindGrowingSeason:
		if f.Span.Min > f.Span.Max {
			return fmt.Errorf("filter %s: range inverted (%v > %v)", f.ID, f.Span.Min, f.Span.Max)
		}
	case KindRiver, KindRoad, KindMapFeature, KindCoastal, KindMineralStockpile:
		// No payload beyond the kind itself.
	case KindStoneTypes:
		if len(f.Stones) == 0 {
			return fmt.Errorf("filter %s: no stones listed", f.ID)
		}
	default:
		return fmt.Errorf("filter %s: unknown kind %d", f.ID, f.Kind)
	}
	return nil
}

// clone returns a deep copy of the filter.
func (f Filter) clone() Filter {
	c := f
	if f.Biomes != nil {
		c.Biomes = append([]world.Biome(nil), f.Biomes...)
	}
	if f.Stones != nil {
		c.Stones = append([]world.Stone(nil), f.Stones...)
	}
	return c
}
