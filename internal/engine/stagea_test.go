package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmere/tilescout/internal/filter"
	"github.com/solmere/tilescout/internal/world"
)

// rowWorld builds a 1-row grid from explicit tile data.
func rowWorld(t *testing.T, tiles []world.TileData) *world.CachedProvider {
	t.Helper()
	g, err := world.NewGrid("test", len(tiles), 1)
	require.NoError(t, err)
	for i, td := range tiles {
		require.NoError(t, g.SetTile(i, td))
	}
	return world.NewCachedProvider(g, 64)
}

// grass returns a settleable baseline tile.
func grass() world.TileData {
	return world.TileData{Biome: world.BiomeGrassland, Temperature: 50, Rainfall: 800}
}

// fiveTileWorld realizes the canonical scenario: one cheap MustHave
// matching tiles {0,2,4} and one cheap Preferred matching {2,4}.
func fiveTileWorld(t *testing.T) *world.CachedProvider {
	t.Helper()
	tiles := make([]world.TileData, 5)
	for i := range tiles {
		tiles[i] = grass()
	}
	for _, i := range []int{0, 2, 4} {
		tiles[i].Temperature = 10
	}
	for _, i := range []int{2, 4} {
		tiles[i].Elevation = 150
	}
	return rowWorld(t, tiles)
}

func fiveTileFilters() []filter.Filter {
	return []filter.Filter{
		{ID: "cool", Kind: filter.KindTemperature, Importance: filter.MustHave, Span: filter.Range{Min: 0, Max: 20}},
		{ID: "high", Kind: filter.KindElevation, Importance: filter.Preferred, Span: filter.Range{Min: 100, Max: 200}},
	}
}

func mustAggregate(t *testing.T, w *world.CachedProvider, filters []filter.Filter, cfg aggregatorConfig) *aggregation {
	t.Helper()
	preds, err := filter.Compile(filters, w)
	require.NoError(t, err)
	agg, err := aggregate(context.Background(), w, partitionPredicates(preds), cfg, DefaultPreset(), slog.Default())
	require.NoError(t, err)
	return agg
}

func candidateTiles(agg *aggregation) []int {
	ids := make([]int, len(agg.candidates))
	for i, c := range agg.candidates {
		ids[i] = c.TileID
	}
	return ids
}

func TestAggregate_FiveTileScenario(t *testing.T) {
	w := fiveTileWorld(t)
	agg := mustAggregate(t, w, fiveTileFilters(), aggregatorConfig{minCandidates: 1})

	assert.Equal(t, 1, agg.threshold)
	assert.False(t, agg.relaxed)

	// Tiles 2 and 4 carry the preferred bonus and sort first; the tie
	// resolves to the lower id.
	assert.Equal(t, []int{2, 4, 0}, candidateTiles(agg))
	assert.Greater(t, agg.candidates[0].UpperBound, agg.candidates[2].UpperBound)
}

func TestAggregate_SkipsUnsettleable(t *testing.T) {
	tiles := []world.TileData{
		grass(),
		{Biome: world.BiomeOcean},
		{Biome: world.BiomeGrassland, Hilliness: world.HillinessImpassable},
		grass(),
	}
	w := rowWorld(t, tiles)
	agg := mustAggregate(t, w, nil, aggregatorConfig{minCandidates: 1})

	assert.ElementsMatch(t, []int{0, 3}, candidateTiles(agg))
}

func TestAggregate_CheapExclusion(t *testing.T) {
	tiles := make([]world.TileData, 4)
	for i := range tiles {
		tiles[i] = grass()
	}
	tiles[3].Swampiness = 0.9

	w := rowWorld(t, tiles)
	filters := []filter.Filter{
		{ID: "dry", Kind: filter.KindSwampiness, Importance: filter.MustNotHave, Span: filter.Range{Min: 0.5, Max: 1}},
	}
	agg := mustAggregate(t, w, filters, aggregatorConfig{minCandidates: 1})

	assert.NotContains(t, candidateTiles(agg), 3)
	assert.Len(t, agg.candidates, 3)
}

func TestAggregate_AdaptiveThreshold(t *testing.T) {
	// MustHave A matches tiles 0-5, MustHave B matches tile 0 only. With
	// minCandidates 2 the full requirement (k=2) leaves one survivor, so
	// the threshold backs off to k=1.
	tiles := make([]world.TileData, 10)
	for i := range tiles {
		tiles[i] = grass()
	}
	for i := 0; i <= 5; i++ {
		tiles[i].Temperature = 10
	}
	tiles[0].Elevation = 150

	w := rowWorld(t, tiles)
	filters := []filter.Filter{
		{ID: "a", Kind: filter.KindTemperature, Importance: filter.MustHave, Span: filter.Range{Min: 0, Max: 20}},
		{ID: "b", Kind: filter.KindElevation, Importance: filter.MustHave, Span: filter.Range{Min: 100, Max: 200}},
	}
	agg := mustAggregate(t, w, filters, aggregatorConfig{minCandidates: 2})

	assert.Equal(t, 1, agg.threshold)
	assert.False(t, agg.relaxed)
	assert.Len(t, agg.candidates, 6)

	// Tile 0 satisfies both gates and must sort first.
	assert.Equal(t, 0, agg.candidates[0].TileID)
	assert.Equal(t, 2, agg.candidates[0].MustHaveCheapMatches)
}

func TestAggregate_KeepsFullRequirementWhenViable(t *testing.T) {
	tiles := make([]world.TileData, 6)
	for i := range tiles {
		tiles[i] = grass()
		tiles[i].Temperature = 10
		tiles[i].Elevation = 150
	}
	w := rowWorld(t, tiles)
	filters := []filter.Filter{
		{ID: "a", Kind: filter.KindTemperature, Importance: filter.MustHave, Span: filter.Range{Min: 0, Max: 20}},
		{ID: "b", Kind: filter.KindElevation, Importance: filter.MustHave, Span: filter.Range{Min: 100, Max: 200}},
	}
	agg := mustAggregate(t, w, filters, aggregatorConfig{minCandidates: 2})

	assert.Equal(t, 2, agg.threshold, "all gates viable, no relaxation needed")
	assert.Len(t, agg.candidates, 6)
}

func TestAggregate_ThresholdFallsBackToZero(t *testing.T) {
	tiles := make([]world.TileData, 5)
	for i := range tiles {
		tiles[i] = grass() // nothing is cold
	}
	w := rowWorld(t, tiles)
	filters := []filter.Filter{
		{ID: "cold", Kind: filter.KindTemperature, Importance: filter.MustHave, Span: filter.Range{Min: -50, Max: -40}},
	}
	agg := mustAggregate(t, w, filters, aggregatorConfig{minCandidates: 1})

	assert.Equal(t, 0, agg.threshold)
	assert.True(t, agg.relaxed)
	assert.Len(t, agg.candidates, 5, "k=0 accepts every eligible tile")
}

func TestAggregate_Truncation(t *testing.T) {
	tiles := make([]world.TileData, 20)
	for i := range tiles {
		tiles[i] = grass()
	}
	// Give a few tiles a preferred bonus so truncation has an order to
	// respect.
	for _, i := range []int{3, 7, 11} {
		tiles[i].Elevation = 150
	}
	w := rowWorld(t, tiles)
	filters := []filter.Filter{
		{ID: "high", Kind: filter.KindElevation, Importance: filter.Preferred, Span: filter.Range{Min: 100, Max: 200}},
	}
	agg := mustAggregate(t, w, filters, aggregatorConfig{minCandidates: 1, maxCandidates: 5})

	require.Len(t, agg.candidates, 5)
	assert.Equal(t, []int{3, 7, 11}, candidateTiles(agg)[:3], "bonus tiles survive truncation, ties ascending")
}

func TestAggregate_ZeroMustHaveGateRatioIsOne(t *testing.T) {
	w := fiveTileWorld(t)
	filters := []filter.Filter{
		{ID: "high", Kind: filter.KindElevation, Importance: filter.Preferred, Span: filter.Range{Min: 100, Max: 200}},
	}
	agg := mustAggregate(t, w, filters, aggregatorConfig{minCandidates: 1})

	require.Len(t, agg.candidates, 5)
	// With no gates the blend reduces to (kappa + scoring) / (kappa + 1):
	// a full scoring match reaches 1, a miss gets the gate share only.
	assert.Equal(t, 2, agg.candidates[0].TileID)
	assert.InDelta(t, 1.0, agg.candidates[0].UpperBound, 1e-9)
	assert.InDelta(t, agg.kappa/(agg.kappa+1), agg.candidates[4].UpperBound, 1e-9)
}

func TestAggregate_CancelledContext(t *testing.T) {
	w := fiveTileWorld(t)
	preds, err := filter.Compile(fiveTileFilters(), w)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = aggregate(ctx, w, partitionPredicates(preds), aggregatorConfig{minCandidates: 1}, DefaultPreset(), slog.Default())
	assert.Error(t, err)
}
