package world

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// Grid is an in-memory Provider backed by dense per-attribute arrays.
// Tiles form a width×height lattice that wraps east-west (a cylinder
// approximation of the planet) and clamps at the poles.
type Grid struct {
	width  int
	height int
	seed   string

	biomes     []Biome
	hilliness  []Hilliness
	temps      []float64
	rainfall   []float64
	elevation  []float64
	swampiness []float64
	rivers     []RiverSize
	roads      []RoadType
	stones     [][]Stone
	features   []Feature
	minerals   []bool
}

// Ensure Grid implements Provider.
var _ Provider = (*Grid)(nil)

// NewGrid allocates an empty grid of the given dimensions.
// All tiles start as flat ocean; callers fill attributes in.
func NewGrid(seed string, width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d", width, height)
	}
	n := width * height
	return &Grid{
		width:      width,
		height:     height,
		seed:       seed,
		biomes:     make([]Biome, n),
		hilliness:  make([]Hilliness, n),
		temps:      make([]float64, n),
		rainfall:   make([]float64, n),
		elevation:  make([]float64, n),
		swampiness: make([]float64, n),
		rivers:     make([]RiverSize, n),
		roads:      make([]RoadType, n),
		stones:     make([][]Stone, n),
		features:   make([]Feature, n),
		minerals:   make([]bool, n),
	}, nil
}

// TileCount implements Provider.
func (g *Grid) TileCount() int { return g.width * g.height }

// Seed implements Provider.
func (g *Grid) Seed() string { return g.seed }

// Width returns the grid width in tiles.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in tiles.
func (g *Grid) Height() int { return g.height }

// IsSettleable implements Provider.
func (g *Grid) IsSettleable(tile int) bool {
	if tile < 0 || tile >= len(g.biomes) {
		return false
	}
	return g.biomes[tile].Passable() && g.hilliness[tile] != HillinessImpassable
}

// Biome implements Provider.
func (g *Grid) Biome(tile int) Biome { return g.biomes[tile] }

// Hilliness implements Provider.
func (g *Grid) Hilliness(tile int) Hilliness { return g.hilliness[tile] }

// Temperature implements Provider.
func (g *Grid) Temperature(tile int) float64 { return g.temps[tile] }

// Rainfall implements Provider.
func (g *Grid) Rainfall(tile int) float64 { return g.rainfall[tile] }

// Elevation implements Provider.
func (g *Grid) Elevation(tile int) float64 { return g.elevation[tile] }

// Swampiness implements Provider.
func (g *Grid) Swampiness(tile int) float64 { return g.swampiness[tile] }

// River implements Provider.
func (g *Grid) River(tile int) RiverSize { return g.rivers[tile] }

// Road implements Provider.
func (g *Grid) Road(tile int) RoadType { return g.roads[tile] }

// Stones implements Provider.
func (g *Grid) Stones(tile int) []Stone { return g.stones[tile] }

// Feature implements Provider.
func (g *Grid) Feature(tile int) Feature { return g.features[tile] }

// MineralStockpile implements Provider.
func (g *Grid) MineralStockpile(tile int) bool { return g.minerals[tile] }

// Neighbors implements Provider. The lattice wraps east-west and clamps
// at the poles, so interior tiles have 4 neighbors and polar tiles 3.
func (g *Grid) Neighbors(tile int, buf []int) []int {
	buf = buf[:0]
	if tile < 0 || tile >= g.TileCount() {
		return buf
	}
	x, y := tile%g.width, tile/g.width

	west := (x - 1 + g.width) % g.width
	east := (x + 1) % g.width
	buf = append(buf, y*g.width+west, y*g.width+east)
	if y > 0 {
		buf = append(buf, (y-1)*g.width+x)
	}
	if y < g.height-1 {
		buf = append(buf, (y+1)*g.width+x)
	}
	return buf
}

// SetTile fills in all raw attributes of one tile. Used by the snapshot
// loader and tests.
func (g *Grid) SetTile(tile int, t TileData) error {
	if tile < 0 || tile >= g.TileCount() {
		return fmt.Errorf("tile %d out of range [0,%d)", tile, g.TileCount())
	}
	g.biomes[tile] = t.Biome
	g.hilliness[tile] = t.Hilliness
	g.temps[tile] = t.Temperature
	g.rainfall[tile] = t.Rainfall
	g.elevation[tile] = t.Elevation
	g.swampiness[tile] = t.Swampiness
	g.rivers[tile] = t.River
	g.roads[tile] = t.Road
	g.stones[tile] = t.Stones
	g.features[tile] = t.Feature
	g.minerals[tile] = t.MineralStockpile
	return nil
}

// TileData bundles all raw attributes of a single tile.
type TileData struct {
	Biome            Biome
	Hilliness        Hilliness
	Temperature      float64
	Rainfall         float64
	Elevation        float64
	Swampiness       float64
	River            RiverSize
	Road             RoadType
	Stones           []Stone
	Feature          Feature
	MineralStockpile bool
}

// Generate builds a deterministic synthetic world from a seed string.
// Latitude drives temperature, seeded noise drives everything else. The
// output is plausible enough for demos and benchmarks; it makes no claim
// to geological realism.
func Generate(seed string, width, height int) (*Grid, error) {
	g, err := NewGrid(seed, width, height)
	if err != nil {
		return nil, err
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	allStones := []Stone{StoneSandstone, StoneGranite, StoneLimestone, StoneSlate, StoneMarble}

	for y := 0; y < height; y++ {
		// latitude in [-1, 1], 0 at the equator
		lat := 2*float64(y)/float64(height-1) - 1
		if height == 1 {
			lat = 0
		}
		for x := 0; x < width; x++ {
			tile := y*width + x
			elev := rng.Float64()*4000 - 800
			temp := 32 - 55*math.Abs(lat) - math.Max(elev, 0)*0.006 + rng.Float64()*8 - 4
			rain := math.Max(0, 2200*(1-math.Abs(lat))*rng.Float64())

			td := TileData{
				Temperature: temp,
				Rainfall:    rain,
				Elevation:   elev,
				Swampiness:  rng.Float64() * rng.Float64(),
			}

			switch {
			case elev < 0:
				if temp < -12 {
					td.Biome = BiomeSeaIce
				} else {
					td.Biome = BiomeOcean
				}
			case temp < -15:
				td.Biome = BiomeIceSheet
			case temp < -2:
				if td.Swampiness > 0.5 {
					td.Biome = BiomeColdBog
				} else {
					td.Biome = BiomeTundra
				}
			case temp < 8:
				td.Biome = BiomeBorealForest
			case temp < 18:
				if rain < 400 {
					td.Biome = BiomeAridShrubland
				} else if td.Swampiness > 0.6 {
					td.Biome = BiomeTemperateSwamp
				} else if rain < 900 {
					td.Biome = BiomeGrassland
				} else {
					td.Biome = BiomeTemperateForest
				}
			default:
				switch {
				case rain < 250:
					td.Biome = BiomeExtremeDesert
				case rain < 600:
					td.Biome = BiomeDesert
				case td.Swampiness > 0.6:
					td.Biome = BiomeTropicalSwamp
				default:
					td.Biome = BiomeTropicalRainforest
				}
			}

			if td.Biome.Passable() {
				td.Hilliness = Hilliness(rng.Intn(5))
				if td.Hilliness != HillinessImpassable {
					nStones := 2 + rng.Intn(2)
					perm := rng.Perm(len(allStones))
					for i := 0; i < nStones; i++ {
						td.Stones = append(td.Stones, allStones[perm[i]])
					}
					if rng.Float64() < 0.12 {
						td.River = RiverSize(1 + rng.Intn(4))
					}
					if rng.Float64() < 0.08 {
						td.Road = RoadType(1 + rng.Intn(4))
					}
					if rng.Float64() < 0.06 {
						td.Feature = Feature(1 + rng.Intn(4))
					}
					td.MineralStockpile = rng.Float64() < 0.05
				}
			}

			if err := g.SetTile(tile, td); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}
