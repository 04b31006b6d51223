// Package world exposes planet tile data to the search engine.
// A Provider hands out raw per-tile attributes; CachedProvider layers
// lazily computed derived attributes (coastal flags, adjacency summaries,
// growing-season estimates) on top with an LRU cache.
package world

// Biome identifies the biome covering a tile.
type Biome uint8

const (
	BiomeOcean Biome = iota
	BiomeLake
	BiomeIceSheet
	BiomeSeaIce
	BiomeTundra
	BiomeColdBog
	BiomeBorealForest
	BiomeTemperateForest
	BiomeTemperateSwamp
	BiomeGrassland
	BiomeAridShrubland
	BiomeDesert
	BiomeExtremeDesert
	BiomeTropicalRainforest
	BiomeTropicalSwamp
)

// String returns the biome name.
func (b Biome) String() string {
	switch b {
	case BiomeOcean:
		return "ocean"
	case BiomeLake:
		return "lake"
	case BiomeIceSheet:
		return "ice_sheet"
	case BiomeSeaIce:
		return "sea_ice"
	case BiomeTundra:
		return "tundra"
	case BiomeColdBog:
		return "cold_bog"
	case BiomeBorealForest:
		return "boreal_forest"
	case BiomeTemperateForest:
		return "temperate_forest"
	case BiomeTemperateSwamp:
		return "temperate_swamp"
	case BiomeGrassland:
		return "grassland"
	case BiomeAridShrubland:
		return "arid_shrubland"
	case BiomeDesert:
		return "desert"
	case BiomeExtremeDesert:
		return "extreme_desert"
	case BiomeTropicalRainforest:
		return "tropical_rainforest"
	case BiomeTropicalSwamp:
		return "tropical_swamp"
	default:
		return "unknown"
	}
}

// Passable reports whether settlements can be placed on this biome at all.
// Ocean, lake, and permanent ice tiles are never settleable.
func (b Biome) Passable() bool {
	switch b {
	case BiomeOcean, BiomeLake, BiomeIceSheet, BiomeSeaIce:
		return false
	default:
		return true
	}
}

// ParseBiome converts a biome name (as used in snapshot files) to a Biome.
// Returns false if the name is unknown.
func ParseBiome(s string) (Biome, bool) {
	for b := BiomeOcean; b <= BiomeTropicalSwamp; b++ {
		if b.String() == s {
			return b, true
		}
	}
	return 0, false
}

// Hilliness describes tile terrain relief.
type Hilliness uint8

const (
	HillinessFlat Hilliness = iota
	HillinessSmallHills
	HillinessLargeHills
	HillinessMountainous
	HillinessImpassable
)

// String returns the hilliness name.
func (h Hilliness) String() string {
	switch h {
	case HillinessFlat:
		return "flat"
	case HillinessSmallHills:
		return "small_hills"
	case HillinessLargeHills:
		return "large_hills"
	case HillinessMountainous:
		return "mountainous"
	case HillinessImpassable:
		return "impassable"
	default:
		return "unknown"
	}
}

// Stone identifies a stone type present under a tile.
type Stone uint8

const (
	StoneSandstone Stone = iota
	StoneGranite
	StoneLimestone
	StoneSlate
	StoneMarble
)

// String returns the stone name.
func (s Stone) String() string {
	switch s {
	case StoneSandstone:
		return "sandstone"
	case StoneGranite:
		return "granite"
	case StoneLimestone:
		return "limestone"
	case StoneSlate:
		return "slate"
	case StoneMarble:
		return "marble"
	default:
		return "unknown"
	}
}

// RiverSize describes the largest river touching a tile.
type RiverSize uint8

const (
	RiverNone RiverSize = iota
	RiverCreek
	RiverRiver
	RiverLargeRiver
	RiverHugeRiver
)

// RoadType describes the best road crossing a tile.
type RoadType uint8

const (
	RoadNone RoadType = iota
	RoadDirtPath
	RoadDirtRoad
	RoadStoneRoad
	RoadAncientHighway
)

// Feature identifies a special map feature on a tile.
type Feature uint8

const (
	FeatureNone Feature = iota
	FeatureCave
	FeatureHotSpring
	FeatureCrater
	FeatureRuins
)

// Provider exposes raw per-tile world data.
//
// Tile ids are dense integers in [0, TileCount()) and remain stable for
// the lifetime of one world. Implementations must be safe for concurrent
// readers; the search engine evaluates predicates from multiple goroutines
// during its bulk pass.
type Provider interface {
	// TileCount returns the size of the tile universe.
	TileCount() int

	// Seed returns the world's identity string, used for cache invalidation.
	Seed() string

	// IsSettleable reports whether a settlement can be placed on the tile.
	// False for impassable biomes and impassable terrain.
	IsSettleable(tile int) bool

	// Biome returns the tile's biome.
	Biome(tile int) Biome

	// Hilliness returns the tile's terrain relief.
	Hilliness(tile int) Hilliness

	// Temperature returns the tile's average temperature in °C.
	Temperature(tile int) float64

	// Rainfall returns the tile's annual rainfall in mm.
	Rainfall(tile int) float64

	// Elevation returns the tile's elevation in meters.
	Elevation(tile int) float64

	// Swampiness returns the tile's swampiness fraction in [0,1].
	Swampiness(tile int) float64

	// River returns the largest river touching the tile.
	River(tile int) RiverSize

	// Road returns the best road crossing the tile.
	Road(tile int) RoadType

	// Stones returns the stone types under the tile, surface-first.
	// The returned slice must not be mutated by callers.
	Stones(tile int) []Stone

	// Feature returns the tile's special map feature, if any.
	Feature(tile int) Feature

	// MineralStockpile reports whether the tile has a mineral stockpile.
	MineralStockpile(tile int) bool

	// Neighbors appends the ids of tiles adjacent to tile and returns the
	// slice. Passing a reusable buffer avoids allocation in bulk passes.
	Neighbors(tile int, buf []int) []int
}
