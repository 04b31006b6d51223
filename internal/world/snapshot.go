package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot is the YAML representation of a world, used by the CLI and
// test fixtures. Tiles are listed row-major; omitted trailing tiles
// default to ocean.
type Snapshot struct {
	Seed   string         `yaml:"seed"`
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Tiles  []SnapshotTile `yaml:"tiles"`
}

// SnapshotTile is one tile's attributes in a snapshot file.
type SnapshotTile struct {
	Biome       string   `yaml:"biome"`
	Hilliness   string   `yaml:"hilliness,omitempty"`
	Temperature float64  `yaml:"temperature,omitempty"`
	Rainfall    float64  `yaml:"rainfall,omitempty"`
	Elevation   float64  `yaml:"elevation,omitempty"`
	Swampiness  float64  `yaml:"swampiness,omitempty"`
	River       int      `yaml:"river,omitempty"`
	Road        int      `yaml:"road,omitempty"`
	Stones      []string `yaml:"stones,omitempty"`
	Feature     string   `yaml:"feature,omitempty"`
	Minerals    bool     `yaml:"minerals,omitempty"`
}

// LoadSnapshot reads a world snapshot from a YAML file.
func LoadSnapshot(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse world snapshot: %w", err)
	}
	return FromSnapshot(&snap)
}

// FromSnapshot builds a Grid from a parsed snapshot.
func FromSnapshot(snap *Snapshot) (*Grid, error) {
	g, err := NewGrid(snap.Seed, snap.Width, snap.Height)
	if err != nil {
		return nil, err
	}
	if len(snap.Tiles) > g.TileCount() {
		return nil, fmt.Errorf("snapshot has %d tiles, grid holds %d", len(snap.Tiles), g.TileCount())
	}
	for i, st := range snap.Tiles {
		td, err := st.toTileData()
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		if err := g.SetTile(i, td); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (st SnapshotTile) toTileData() (TileData, error) {
	var td TileData

	biome, ok := ParseBiome(st.Biome)
	if !ok {
		return td, fmt.Errorf("unknown biome %q", st.Biome)
	}
	td.Biome = biome

	switch st.Hilliness {
	case "", "flat":
		td.Hilliness = HillinessFlat
	case "small_hills":
		td.Hilliness = HillinessSmallHills
	case "large_hills":
		td.Hilliness = HillinessLargeHills
	case "mountainous":
		td.Hilliness = HillinessMountainous
	case "impassable":
		td.Hilliness = HillinessImpassable
	default:
		return td, fmt.Errorf("unknown hilliness %q", st.Hilliness)
	}

	td.Temperature = st.Temperature
	td.Rainfall = st.Rainfall
	td.Elevation = st.Elevation
	td.Swampiness = st.Swampiness

	if st.River < 0 || st.River > int(RiverHugeRiver) {
		return td, fmt.Errorf("river size %d out of range", st.River)
	}
	td.River = RiverSize(st.River)

	if st.Road < 0 || st.Road > int(RoadAncientHighway) {
		return td, fmt.Errorf("road type %d out of range", st.Road)
	}
	td.Road = RoadType(st.Road)

	for _, name := range st.Stones {
		stone, err := parseStone(name)
		if err != nil {
			return td, err
		}
		td.Stones = append(td.Stones, stone)
	}

	switch st.Feature {
	case "", "none":
		td.Feature = FeatureNone
	case "cave":
		td.Feature = FeatureCave
	case "hot_spring":
		td.Feature = FeatureHotSpring
	case "crater":
		td.Feature = FeatureCrater
	case "ruins":
		td.Feature = FeatureRuins
	default:
		return td, fmt.Errorf("unknown feature %q", st.Feature)
	}

	td.MineralStockpile = st.Minerals
	return td, nil
}

func parseStone(name string) (Stone, error) {
	for s := StoneSandstone; s <= StoneMarble; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stone %q", name)
}
