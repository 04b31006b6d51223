package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotYAML = `seed: "test"
width: 2
height: 2
tiles:
  - biome: ocean
  - biome: temperate_forest
    hilliness: small_hills
    temperature: 12
    rainfall: 900
    elevation: 40
    river: 2
    stones: [granite, slate]
    feature: cave
    minerals: true
`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSnapshot(t *testing.T) {
	g, err := LoadSnapshot(writeSnapshot(t, snapshotYAML))
	require.NoError(t, err)

	assert.Equal(t, "test", g.Seed())
	assert.Equal(t, 4, g.TileCount())

	assert.Equal(t, BiomeOcean, g.Biome(0))

	assert.Equal(t, BiomeTemperateForest, g.Biome(1))
	assert.Equal(t, HillinessSmallHills, g.Hilliness(1))
	assert.Equal(t, 12.0, g.Temperature(1))
	assert.Equal(t, RiverSize(2), g.River(1))
	assert.Equal(t, []Stone{StoneGranite, StoneSlate}, g.Stones(1))
	assert.Equal(t, FeatureCave, g.Feature(1))
	assert.True(t, g.MineralStockpile(1))

	// Omitted trailing tiles default to ocean.
	assert.Equal(t, BiomeOcean, g.Biome(2))
	assert.Equal(t, BiomeOcean, g.Biome(3))
}

func TestLoadSnapshot_Missing(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSnapshot_BadYAML(t *testing.T) {
	_, err := LoadSnapshot(writeSnapshot(t, "{{not yaml"))
	assert.Error(t, err)
}

func TestFromSnapshot_Errors(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "too many tiles",
			snap: Snapshot{Seed: "s", Width: 1, Height: 1, Tiles: []SnapshotTile{
				{Biome: "ocean"}, {Biome: "ocean"},
			}},
		},
		{
			name: "unknown biome",
			snap: Snapshot{Seed: "s", Width: 1, Height: 1, Tiles: []SnapshotTile{
				{Biome: "lava"},
			}},
		},
		{
			name: "unknown hilliness",
			snap: Snapshot{Seed: "s", Width: 1, Height: 1, Tiles: []SnapshotTile{
				{Biome: "grassland", Hilliness: "vertical"},
			}},
		},
		{
			name: "unknown stone",
			snap: Snapshot{Seed: "s", Width: 1, Height: 1, Tiles: []SnapshotTile{
				{Biome: "grassland", Stones: []string{"obsidian"}},
			}},
		},
		{
			name: "unknown feature",
			snap: Snapshot{Seed: "s", Width: 1, Height: 1, Tiles: []SnapshotTile{
				{Biome: "grassland", Feature: "volcano"},
			}},
		},
		{
			name: "invalid dimensions",
			snap: Snapshot{Seed: "s", Width: 0, Height: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSnapshot(&tt.snap)
			assert.Error(t, err)
		})
	}
}
