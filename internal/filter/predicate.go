package filter

import (
	"fmt"

	"github.com/solmere/tilescout/internal/world"
)

// Predicate is a compiled filter: a pure function from tile id to match,
// tagged with its importance class and declared evaluation cost.
type Predicate struct {
	ID         string
	Kind       Kind
	Importance Importance
	Cost       Cost

	match func(tile int) bool
}

// Matches evaluates the predicate for one tile.
func (p Predicate) Matches(tile int) bool {
	return p.match(tile)
}

// Compile binds each filter to a match closure over the world. Filters
// are validated first; any invalid payload fails the whole compilation.
func Compile(filters []Filter, w *world.CachedProvider) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(filters))
	seen := make(map[string]struct{}, len(filters))
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("duplicate filter id %q", f.ID)
		}
		seen[f.ID] = struct{}{}

		f := f
		match := func(tile int) bool {
			return Matches(f, w, tile)
		}
		preds = append(preds, Predicate{
			ID:         f.ID,
			Kind:       f.Kind,
			Importance: f.Importance,
			Cost:       f.Kind.Cost(),
			match:      match,
		})
	}
	return preds, nil
}

// Matches evaluates one filter against one tile's raw and derived
// attributes. It is the single dispatch point over filter kinds, shared
// by compiled predicates and by the relaxed-search violation report.
func Matches(f Filter, w *world.CachedProvider, tile int) bool {
	m := matchesKind(f, w, tile)
	if f.Negate {
		return !m
	}
	return m
}

func matchesKind(f Filter, w *world.CachedProvider, tile int) bool {
	switch f.Kind {
	case KindBiome:
		b := w.Biome(tile)
		for _, want := range f.Biomes {
			if b == want {
				return true
			}
		}
		return false

	case KindHilliness:
		h := w.Hilliness(tile)
		return h >= f.HillinessMin && h <= f.HillinessMax

	case KindTemperature:
		return f.Span.Contains(w.Temperature(tile))

	case KindRainfall:
		return f.Span.Contains(w.Rainfall(tile))

	case KindElevation:
		return f.Span.Contains(w.Elevation(tile))

	case KindSwampiness:
		return f.Span.Contains(w.Swampiness(tile))

	case KindRiver:
		min := f.RiverMin
		if min == world.RiverNone {
			min = world.RiverCreek
		}
		return w.River(tile) >= min

	case KindRoad:
		min := f.RoadMin
		if min == world.RoadNone {
			min = world.RoadDirtPath
		}
		return w.Road(tile) >= min

	case KindMapFeature:
		return w.Feature(tile) == f.Feature

	case KindCoastal:
		return w.Derived(tile).Coastal

	case KindStoneTypes:
		have := w.Stones(tile)
		for _, want := range f.Stones {
			found := false
			for _, s := range have {
				if s == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true

	case KindMineralStockpile:
		return w.MineralStockpile(tile)

	case KindNeighborBiome:
		nb := w.Derived(tile).NeighborBiomes
		for _, want := range f.Biomes {
			if nb[want] > 0 {
				return true
			}
		}
		return false

	case KindGrowingSeason:
		return f.Span.Contains(float64(w.Derived(tile).GrowingDays))

	default:
		return false
	}
}
