package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scouterr "github.com/solmere/tilescout/internal/errors"
)

// writeFixture drops YAML content into a temp file and returns its path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testConfigPath returns a config whose candidate floor fits tiny
// fixture worlds.
func testConfigPath(t *testing.T) string {
	t.Helper()
	return writeFixture(t, "config.yaml", `
engine:
  min_candidates: 1
`)
}

const searchWorldYAML = `
seed: "cmdtest"
width: 2
height: 2
tiles:
  - biome: grassland
    temperature: 10
    rainfall: 800
    elevation: 150
  - biome: grassland
    temperature: 10
    rainfall: 800
    elevation: 50
  - biome: ocean
  - biome: grassland
    temperature: 40
    rainfall: 800
    elevation: 150
`

const searchFiltersYAML = `
filters:
  - id: cool
    kind: temperature
    importance: must_have
    min: 0
    max: 20
  - id: high
    kind: elevation
    importance: preferred
    min: 100
    max: 200
`

// jsonResults parses the result array out of the command output,
// skipping the plain progress lines printed before it.
func jsonResults(t *testing.T, output string) []map[string]any {
	t.Helper()
	start := strings.Index(output, "[")
	require.GreaterOrEqual(t, start, 0, "output should contain a JSON array:\n%s", output)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(output[start:]), &results))
	return results
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	worldPath := writeFixture(t, "world.yaml", searchWorldYAML)
	filtersPath := writeFixture(t, "filters.yaml", searchFiltersYAML)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--world", worldPath,
		"--filters", filtersPath,
		"--config", testConfigPath(t),
		"--format", "json",
	})

	err := cmd.Execute()

	require.NoError(t, err)
	results := jsonResults(t, buf.String())
	require.Len(t, results, 2, "only the two cool tiles should pass the gate")

	// Tile 0 satisfies the preferred elevation band, tile 1 does not.
	assert.Equal(t, float64(0), results[0]["tile_id"])
	assert.Equal(t, float64(1), results[1]["tile_id"])
	assert.Greater(t, results[0]["score"], results[1]["score"])
}

func TestSearchCmd_TextOutput(t *testing.T) {
	worldPath := writeFixture(t, "world.yaml", searchWorldYAML)
	filtersPath := writeFixture(t, "filters.yaml", searchFiltersYAML)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--world", worldPath,
		"--filters", filtersPath,
		"--config", testConfigPath(t),
		"--no-color",
	})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "2 matching tiles")
	assert.NotContains(t, output, "[relaxed]")
}

func TestSearchCmd_ExplainBreakdown(t *testing.T) {
	worldPath := writeFixture(t, "world.yaml", searchWorldYAML)
	filtersPath := writeFixture(t, "filters.yaml", searchFiltersYAML)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--world", worldPath,
		"--filters", filtersPath,
		"--config", testConfigPath(t),
		"--no-color",
		"--explain", "0",
	})

	err := cmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "cool")
	assert.Contains(t, output, "high")
	assert.Contains(t, output, "must-have")
	assert.Contains(t, output, "preferred")
}

func TestSearchCmd_RelaxedFallback(t *testing.T) {
	worldPath := writeFixture(t, "world.yaml", searchWorldYAML)
	// Every tile's swampiness (0 by default) falls in the banned band,
	// so the strict search excludes the whole world.
	filtersPath := writeFixture(t, "filters.yaml", `
filters:
  - id: not-dry
    kind: swampiness
    importance: must_not_have
    min: 0
    max: 1
`)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--world", worldPath,
		"--filters", filtersPath,
		"--config", testConfigPath(t),
		"--format", "json",
	})

	err := cmd.Execute()

	require.NoError(t, err)
	results := jsonResults(t, buf.String())
	require.NotEmpty(t, results, "relaxed fallback should surface near misses")
	violated, ok := results[0]["violated"].([]any)
	require.True(t, ok, "relaxed results should carry violations")
	assert.Contains(t, violated, "not-dry")
}

func TestSearchCmd_RelaxDisabled(t *testing.T) {
	worldPath := writeFixture(t, "world.yaml", searchWorldYAML)
	filtersPath := writeFixture(t, "filters.yaml", `
filters:
  - id: not-dry
    kind: swampiness
    importance: must_not_have
    min: 0
    max: 1
`)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--world", worldPath,
		"--filters", filtersPath,
		"--config", testConfigPath(t),
		"--format", "json",
		"--relax=false",
	})

	err := cmd.Execute()

	require.NoError(t, err)
	results := jsonResults(t, buf.String())
	assert.Empty(t, results)
}

func TestSearchCmd_GeneratedWorld(t *testing.T) {
	filtersPath := writeFixture(t, "filters.yaml", `
filters:
  - id: anywhere
    kind: temperature
    importance: must_have
    min: -100
    max: 100
`)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--generate", "81259751",
		"--width", "20",
		"--height", "10",
		"--filters", filtersPath,
		"--config", testConfigPath(t),
		"--format", "json",
		"--limit", "5",
	})

	err := cmd.Execute()

	require.NoError(t, err)
	results := jsonResults(t, buf.String())
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 5)
}

func TestSearchCmd_RequiresWorldOrGenerate(t *testing.T) {
	filtersPath := writeFixture(t, "filters.yaml", searchFiltersYAML)

	cmd := newSearchCmd()
	cmd.SetOut(&bytes.Buffer{})
	errBuf := &bytes.Buffer{}
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"--filters", filtersPath})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, errBuf.String(), "--world")
}

func TestSearchCmd_CorruptWorldSnapshot(t *testing.T) {
	worldPath := writeFixture(t, "world.yaml", "tiles: [not, a, snapshot")
	filtersPath := writeFixture(t, "filters.yaml", searchFiltersYAML)

	cmd := newSearchCmd()
	cmd.SetOut(&bytes.Buffer{})
	errBuf := &bytes.Buffer{}
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"--world", worldPath, "--filters", filtersPath})

	err := cmd.Execute()

	require.Error(t, err)
	assert.True(t, scouterr.IsFatal(err), "a corrupt snapshot is unrecoverable")
	assert.Contains(t, errBuf.String(), "cannot load world snapshot")
	assert.Contains(t, errBuf.String(), scouterr.ErrCodeSnapshotCorrupt)
}

func TestSearchCmd_BadFiltersFile(t *testing.T) {
	filtersPath := writeFixture(t, "filters.yaml", "filters: {nope")

	cmd := newSearchCmd()
	cmd.SetOut(&bytes.Buffer{})
	errBuf := &bytes.Buffer{}
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"--generate", "1", "--filters", filtersPath})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Equal(t, scouterr.ErrCodeInvalidFilter, scouterr.GetCode(err))
	assert.Contains(t, errBuf.String(), "cannot load filter settings")
}

func TestCLIError_DebugShowsCause(t *testing.T) {
	debugMode = true
	defer func() { debugMode = false }()

	cmd := newSearchCmd()
	errBuf := &bytes.Buffer{}
	cmd.SetErr(errBuf)

	serr := scouterr.WorldError("bad snapshot", errors.New("boom")).
		WithSuggestion("regenerate the snapshot")
	err := cliError(cmd, serr)

	assert.Equal(t, serr, err)
	output := errBuf.String()
	assert.Contains(t, output, "bad snapshot")
	assert.Contains(t, output, "Cause: boom")
	assert.Contains(t, output, "Suggestion: regenerate the snapshot")
}

func TestSearchCmd_UnknownPreset(t *testing.T) {
	worldPath := writeFixture(t, "world.yaml", searchWorldYAML)
	filtersPath := writeFixture(t, "filters.yaml", searchFiltersYAML)

	cmd := newSearchCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--world", worldPath,
		"--filters", filtersPath,
		"--preset", "nope",
	})

	err := cmd.Execute()

	assert.Error(t, err)
}

func TestSearchCmd_MissingFiltersFlag(t *testing.T) {
	cmd := newSearchCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--generate", "1"})

	err := cmd.Execute()

	assert.Error(t, err)
}
