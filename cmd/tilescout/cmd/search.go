package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/solmere/tilescout/internal/config"
	"github.com/solmere/tilescout/internal/engine"
	scouterr "github.com/solmere/tilescout/internal/errors"
	"github.com/solmere/tilescout/internal/filter"
	"github.com/solmere/tilescout/internal/ui"
	"github.com/solmere/tilescout/internal/world"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	worldPath   string
	filtersPath string
	configPath  string
	watchConfig bool

	generate string // seed for a synthetic world
	width    int
	height   int

	preset  string
	limit   int
	relax   bool
	explain int // tile id for a score breakdown, -1 when unset

	format  string // "text", "json"
	plain   bool
	noColor bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a world for the best settlement tiles",
		Long: `Search a world for the tiles that best satisfy a filter set.

The filter file assigns each filter an importance (must-have,
must-not-have, priority, preferred). Must-haves gate candidates,
priorities and preferreds shape the score. When no tile satisfies
every must-have, the search retries with requirements relaxed to
priorities unless --relax=false.

Examples:
  tilescout search --world planet.yaml --filters coastal-temperate.yaml
  tilescout search --generate 81259751 --width 200 --height 100 --filters f.yaml
  tilescout search --world planet.yaml --filters f.yaml --preset strict --limit 10
  tilescout search --world planet.yaml --filters f.yaml --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.worldPath, "world", "w", "", "World snapshot file (YAML)")
	cmd.Flags().StringVarP(&opts.filtersPath, "filters", "f", "", "Filter settings file (YAML)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Config file (defaults to built-in settings)")
	cmd.Flags().BoolVar(&opts.watchConfig, "watch-config", false, "Reload the config file when it changes")
	cmd.Flags().StringVar(&opts.generate, "generate", "", "Generate a synthetic world from a seed instead of loading a snapshot")
	cmd.Flags().IntVar(&opts.width, "width", 200, "Generated world width in tiles")
	cmd.Flags().IntVar(&opts.height, "height", 100, "Generated world height in tiles")
	cmd.Flags().StringVarP(&opts.preset, "preset", "p", "", "Scoring preset (overrides config)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (overrides filter file)")
	cmd.Flags().BoolVar(&opts.relax, "relax", true, "Retry with relaxed requirements when nothing matches")
	cmd.Flags().IntVar(&opts.explain, "explain", -1, "Show the score breakdown for a tile id from the results")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Disable the interactive progress view")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable color output")

	_ = cmd.MarkFlagRequired("filters")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, opts searchOptions) error {
	cfg, store, err := loadConfig(opts)
	if err != nil {
		return cliError(cmd, err)
	}
	if store != nil {
		defer store.Stop()
	}

	settings, err := filter.Load(opts.filtersPath)
	if err != nil {
		return cliError(cmd, scouterr.ValidationError("cannot load filter settings", err).
			WithDetail("path", opts.filtersPath))
	}
	if opts.limit > 0 {
		settings.MaxResults = opts.limit
	} else if settings.MaxResults == 0 {
		settings.MaxResults = cfg.Engine.MaxResults
	}
	if settings.MaxCandidates == 0 {
		settings.MaxCandidates = cfg.Engine.MaxCandidates
	}

	grid, err := loadWorld(opts)
	if err != nil {
		return cliError(cmd, err)
	}
	slog.Info("world_loaded",
		slog.String("seed", grid.Seed()),
		slog.Int("tiles", grid.TileCount()))

	provider := world.NewCachedProvider(grid, world.DefaultDerivedCacheSize)

	presetFunc := store.ActivePreset
	if opts.preset != "" {
		preset, ok := cfg.Preset(opts.preset)
		if !ok {
			return cliError(cmd, scouterr.New(
				scouterr.ErrCodePresetUnknown,
				fmt.Sprintf("unknown preset %q", opts.preset), nil))
		}
		presetFunc = func() engine.Preset { return preset }
	}

	orch := engine.NewOrchestrator(provider, settings,
		engine.WithLogger(slog.Default()),
		engine.WithPresetFunc(presetFunc),
		engine.WithMinCandidates(cfg.Engine.MinCandidates))

	uiCfg := ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.plain),
		ui.WithNoColor(opts.noColor),
		ui.WithStepIterations(cfg.Engine.StepIterations))

	if err := orch.RequestEvaluation("cli", false); err != nil {
		return cliError(cmd, err)
	}
	if err := drive(ctx, orch, uiCfg); err != nil {
		return cliError(cmd, err)
	}

	// Relaxed fallback: when the strict search comes back empty, rerun
	// with must-haves downgraded to priorities so the user still gets
	// near-miss tiles with their violations called out.
	if orch.LastSearchWasEmpty() && opts.relax {
		slog.Info("search_relaxing", slog.String("reason", "no strict matches"))
		if err := orch.RequestRelaxedSearch(false); err != nil {
			return cliError(cmd, err)
		}
		if err := drive(ctx, orch, uiCfg); err != nil {
			return cliError(cmd, err)
		}
	}

	slog.Info("search_complete",
		slog.Int("results", len(orch.LatestResults())),
		slog.Bool("relaxed", orch.LastSearchWasRelaxed()),
		slog.Int64("elapsed_ms", orch.LastElapsedMs()))

	if opts.format == "json" {
		return writeJSON(cmd, orch)
	}

	styles := ui.DefaultStyles()
	if opts.noColor || ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()) {
		styles = ui.NoColorStyles()
	}
	ui.RenderResults(cmd.OutOrStdout(), styles, orch, grid.Width())

	if opts.explain >= 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		ui.RenderBreakdown(cmd.OutOrStdout(), styles, orch.BreakdownFor(opts.explain))
	}
	return nil
}

// drive steps one requested search to completion, interactively on a
// TTY and with plain progress lines otherwise.
func drive(ctx context.Context, orch *engine.Orchestrator, cfg ui.Config) error {
	if !cfg.ForcePlain && ui.IsTTY(cfg.Output) {
		return ui.RunSearch(orch, cfg)
	}
	return ui.RunHeadless(ctx, orch, cfg)
}

// loadConfig loads the engine config and wraps it in a Store so the
// orchestrator always reads the live preset. With --watch-config the
// store follows edits to the file.
func loadConfig(opts searchOptions) (config.Config, *config.Store, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return cfg, nil, err
		}
		cfg = loaded
	}

	store := config.NewStore(cfg, slog.Default())
	if opts.watchConfig && opts.configPath != "" {
		if err := store.Watch(opts.configPath); err != nil {
			return cfg, nil, err
		}
	}
	return cfg, store, nil
}

// loadWorld loads the world snapshot, or generates a synthetic world
// when --generate is set.
func loadWorld(opts searchOptions) (*world.Grid, error) {
	if opts.generate != "" {
		return world.Generate(opts.generate, opts.width, opts.height)
	}
	if opts.worldPath == "" {
		return nil, scouterr.New(
			scouterr.ErrCodeInvalidSettings,
			"either --world or --generate is required", nil)
	}
	g, err := world.LoadSnapshot(opts.worldPath)
	if err != nil {
		return nil, scouterr.WorldError("cannot load world snapshot", err).
			WithDetail("path", opts.worldPath).
			WithSuggestion("check that the file is a tilescout world snapshot")
	}
	return g, nil
}

// writeJSON emits the ranked results as JSON.
func writeJSON(cmd *cobra.Command, orch *engine.Orchestrator) error {
	type jsonResult struct {
		Rank     int      `json:"rank"`
		TileID   int      `json:"tile_id"`
		Score    float64  `json:"score"`
		Violated []string `json:"violated,omitempty"`
	}

	results := orch.LatestResults()
	out := make([]jsonResult, 0, len(results))
	for i, r := range results {
		jr := jsonResult{Rank: i + 1, TileID: r.TileID, Score: r.Score}
		if orch.LastSearchWasRelaxed() {
			if info := orch.GetRelaxedMatchInfo(r.TileID); info != nil {
				jr.Violated = info.Violated
			}
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// cliError renders a structured error for the terminal before passing
// it back up to cobra. With --debug the verbose form including the
// cause chain is shown instead.
func cliError(cmd *cobra.Command, err error) error {
	msg := scouterr.FormatForCLI(err)
	if debugMode {
		msg = scouterr.FormatForUser(err, true)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
	slog.Error("command_failed", scouterr.LogFields(err)...)
	return err
}
