package world

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDerivedCacheSize is the default number of tiles whose derived
// attributes are kept in memory. Derived lookups cluster around the
// candidate set of the active search, so a fraction of the tile universe
// is enough.
const DefaultDerivedCacheSize = 4096

// Derived bundles the attributes computed from raw tile data and its
// neighborhood rather than stored directly. Heavy predicates consume
// these.
type Derived struct {
	// Coastal is true when any adjacent tile is ocean.
	Coastal bool

	// NeighborBiomes counts adjacent tiles per biome.
	NeighborBiomes map[Biome]int

	// GrowingDays estimates the number of plant-growth days per year
	// from temperature and rainfall.
	GrowingDays int
}

// CachedProvider wraps a Provider with an LRU cache over derived
// attributes. Raw attribute accessors delegate unchanged.
type CachedProvider struct {
	Provider
	cache *lru.Cache[int, Derived]
}

// NewCachedProvider creates a caching layer over the given provider.
// Cache size determines the number of tiles with resident derived data.
func NewCachedProvider(p Provider, cacheSize int) *CachedProvider {
	if cacheSize <= 0 {
		cacheSize = DefaultDerivedCacheSize
	}
	cache, _ := lru.New[int, Derived](cacheSize)
	return &CachedProvider{Provider: p, cache: cache}
}

// Derived returns the derived attributes of a tile, computing and caching
// them on first access.
func (c *CachedProvider) Derived(tile int) Derived {
	if d, ok := c.cache.Get(tile); ok {
		return d
	}
	d := computeDerived(c.Provider, tile)
	c.cache.Add(tile, d)
	return d
}

// Purge drops all cached derived attributes. Called when a world is
// reloaded under the same provider instance.
func (c *CachedProvider) Purge() {
	c.cache.Purge()
}

func computeDerived(p Provider, tile int) Derived {
	d := Derived{NeighborBiomes: make(map[Biome]int, 4)}

	var buf [8]int
	for _, n := range p.Neighbors(tile, buf[:0]) {
		b := p.Biome(n)
		d.NeighborBiomes[b]++
		if b == BiomeOcean || b == BiomeSeaIce {
			d.Coastal = true
		}
	}

	d.GrowingDays = growingDays(p.Temperature(tile), p.Rainfall(tile))
	return d
}

// growingDays estimates yearly plant-growth days. Growth needs the daily
// temperature above roughly 6°C; the seasonal swing is approximated as a
// ±18°C sine around the annual mean, and arid tiles are penalized.
func growingDays(meanTemp, rainfall float64) int {
	const (
		growThreshold = 6.0
		seasonalSwing = 18.0
	)
	// Fraction of the year the sinusoid sits above the threshold.
	x := (growThreshold - meanTemp) / seasonalSwing
	var frac float64
	switch {
	case x <= -1:
		frac = 1
	case x >= 1:
		frac = 0
	default:
		frac = math.Acos(x) / math.Pi
	}

	days := frac * 365
	if rainfall < 300 {
		days *= rainfall / 300
	}
	return int(math.Round(days))
}
