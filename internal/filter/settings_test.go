package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmere/tilescout/internal/world"
)

const settingsYAML = `max_results: 10
max_candidates: 500
filters:
  - id: temperate-biome
    kind: biome
    importance: must_have
    biomes: [temperate_forest]
  - id: not-swampy
    kind: swampiness
    importance: must_not_have
    min: 0.5
    max: 1.0
  - id: river
    kind: river
    importance: priority
    river_min: 2
  - id: granite
    kind: stone_types
    importance: preferred
    stones: [granite]
  - id: no-road
    kind: road
    importance: preferred
    negate: true
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(settingsYAML))
	require.NoError(t, err)

	assert.Equal(t, 10, s.MaxResults)
	assert.Equal(t, 500, s.MaxCandidates)
	require.Len(t, s.Filters, 5)

	assert.Equal(t, KindBiome, s.Filters[0].Kind)
	assert.Equal(t, MustHave, s.Filters[0].Importance)
	assert.Equal(t, []world.Biome{world.BiomeTemperateForest}, s.Filters[0].Biomes)

	assert.Equal(t, MustNotHave, s.Filters[1].Importance)
	assert.Equal(t, Range{Min: 0.5, Max: 1.0}, s.Filters[1].Span)

	assert.Equal(t, world.RiverRiver, s.Filters[2].RiverMin)
	assert.Equal(t, []world.Stone{world.StoneGranite}, s.Filters[3].Stones)
	assert.True(t, s.Filters[4].Negate)
}

func TestParse_Defaults(t *testing.T) {
	s, err := Parse([]byte("filters: []"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxResults, s.MaxResults)
	assert.Equal(t, DefaultMaxCandidates, s.MaxCandidates)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "{{"},
		{"unknown kind", "filters: [{id: x, kind: altitude, importance: preferred}]"},
		{"unknown importance", "filters: [{id: x, kind: coastal, importance: vital}]"},
		{"unknown biome", "filters: [{id: x, kind: biome, importance: preferred, biomes: [lava]}]"},
		{"unknown stone", "filters: [{id: x, kind: stone_types, importance: preferred, stones: [obsidian]}]"},
		{"unknown feature", "filters: [{id: x, kind: map_feature, importance: preferred, feature: volcano}]"},
		{"invalid payload", "filters: [{id: x, kind: biome, importance: preferred}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSettings_CloneIsolation(t *testing.T) {
	s := &Settings{
		MaxResults: 5,
		Filters: []Filter{
			{ID: "b", Kind: KindBiome, Importance: MustHave, Biomes: []world.Biome{world.BiomeGrassland}},
		},
	}
	c := s.Clone()
	c.Filters[0].Importance = Preferred
	c.Filters[0].Biomes[0] = world.BiomeDesert

	assert.Equal(t, MustHave, s.Filters[0].Importance)
	assert.Equal(t, world.BiomeGrassland, s.Filters[0].Biomes[0])
}

func TestSettings_Relax(t *testing.T) {
	s := &Settings{
		MaxResults: 5,
		Filters: []Filter{
			{ID: "gate", Kind: KindCoastal, Importance: MustHave},
			{ID: "exclude", Kind: KindSwampiness, Importance: MustNotHave, Span: Range{Max: 1}},
			{ID: "pri", Kind: KindRiver, Importance: Priority},
			{ID: "pref", Kind: KindMineralStockpile, Importance: Preferred},
		},
	}
	r := s.Relax()

	assert.Equal(t, Priority, r.Filters[0].Importance, "must_have demotes to priority")
	assert.False(t, r.Filters[0].Negate)

	assert.Equal(t, Priority, r.Filters[1].Importance, "must_not_have demotes to negated priority")
	assert.True(t, r.Filters[1].Negate)

	assert.Equal(t, Priority, r.Filters[2].Importance)
	assert.Equal(t, Preferred, r.Filters[3].Importance)

	// The original is untouched.
	assert.Equal(t, MustHave, s.Filters[0].Importance)
	assert.Equal(t, MustNotHave, s.Filters[1].Importance)
}

func TestSettings_Requirements(t *testing.T) {
	s := &Settings{
		MaxResults: 5,
		Filters: []Filter{
			{ID: "gate", Kind: KindCoastal, Importance: MustHave},
			{ID: "exclude", Kind: KindMineralStockpile, Importance: MustNotHave},
			{ID: "pri", Kind: KindRiver, Importance: Priority},
		},
	}
	reqs := s.Requirements()
	require.Len(t, reqs, 2)
	assert.Equal(t, "gate", reqs[0].ID)
	assert.Equal(t, "exclude", reqs[1].ID)
}

func TestSettings_Validate(t *testing.T) {
	s := &Settings{MaxResults: 0}
	assert.Error(t, s.Validate())

	s = &Settings{MaxResults: 5, Filters: []Filter{{ID: "b", Kind: KindBiome}}}
	assert.Error(t, s.Validate(), "invalid filter fails settings validation")
}
