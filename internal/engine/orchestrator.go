package engine

import (
	"context"
	"log/slog"

	scouterr "github.com/solmere/tilescout/internal/errors"
	"github.com/solmere/tilescout/internal/filter"
	"github.com/solmere/tilescout/internal/world"
)

// DefaultMinCandidates is the lower edge of the adaptive threshold's
// target range when no configuration overrides it.
const DefaultMinCandidates = 30

// RelaxedMatchInfo annotates one relaxed-search result tile with the
// original gating requirements it satisfies and violates. Purely
// explanatory; it never affects ranking.
type RelaxedMatchInfo struct {
	TileID    int
	Satisfied []string
	Violated  []string
}

// FocusFunc is called by the orchestrator when a completed search should
// focus its best result (camera jump, list selection).
type FocusFunc func(tileID int)

// Orchestrator owns the search lifecycle for one loaded world: at most
// one active evaluation job, the latest completed results, the
// tile-indexed breakdown and rank caches, and the relaxed-search
// fallback state. One instance per world; its lifetime is tied to world
// load/unload.
//
// All methods must be called from the single scheduling goroutine; the
// orchestrator carries no internal locking.
type Orchestrator struct {
	w        *world.CachedProvider
	settings *filter.Settings // borrowed from the host, never mutated
	logger   *slog.Logger

	minCandidates int
	presetFn      func() Preset
	focusFn       FocusFunc

	job          *Job
	jobRelaxed   bool
	pendingFocus bool

	latest        []TileScore
	breakdowns    []*Breakdown // tile-indexed arena
	ranks         []int        // tile-indexed arena, -1 when unranked
	lastEmpty     bool
	latestRelaxed bool
	lastElapsedMs int64

	originalReqs []filter.Filter
	relaxedInfo  []*RelaxedMatchInfo // tile-indexed arena, lazily filled

	focusCursor int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithFocusFunc sets the callback fired when a completed search should
// focus its best result.
func WithFocusFunc(f FocusFunc) Option {
	return func(o *Orchestrator) { o.focusFn = f }
}

// WithPresetFunc sets the scoring preset source, read at each job start.
// Hot-reloaded configuration plugs in here.
func WithPresetFunc(f func() Preset) Option {
	return func(o *Orchestrator) { o.presetFn = f }
}

// WithMinCandidates overrides the adaptive threshold's minimum candidate
// target.
func WithMinCandidates(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.minCandidates = n
		}
	}
}

// NewOrchestrator creates the search context for one world. Settings are
// borrowed: the orchestrator reads them at job start and never writes
// them.
func NewOrchestrator(w *world.CachedProvider, settings *filter.Settings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		w:             w,
		settings:      settings,
		logger:        slog.Default(),
		minCandidates: DefaultMinCandidates,
		presetFn:      DefaultPreset,
		focusCursor:   -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	n := w.TileCount()
	o.breakdowns = make([]*Breakdown, n)
	o.ranks = newRankArena(n)
	o.relaxedInfo = make([]*RelaxedMatchInfo, n)
	return o
}

func newRankArena(n int) []int {
	ranks := make([]int, n)
	for i := range ranks {
		ranks[i] = -1
	}
	return ranks
}

// RequestEvaluation starts a new search unless one is already running.
// Concurrent requests coalesce: the pending focus flag is merged and no
// duplicate job is spawned. source tags the request origin in logs.
// Construction failures are logged and returned; no partial state is
// left active.
func (o *Orchestrator) RequestEvaluation(source string, focusOnComplete bool) error {
	if o.active() {
		o.pendingFocus = o.pendingFocus || focusOnComplete
		o.logger.Debug("evaluation already running, request coalesced", "source", source)
		return nil
	}
	return o.start(source, o.settings, false, focusOnComplete)
}

// RequestRelaxedSearch snapshots the current MustHave/MustNotHave
// requirements and starts a search against a relaxed clone of the
// settings (gates demoted to scoring). The stored settings object is
// never touched. Coalesces like RequestEvaluation when a job is active.
func (o *Orchestrator) RequestRelaxedSearch(focusOnComplete bool) error {
	if o.active() {
		o.pendingFocus = o.pendingFocus || focusOnComplete
		o.logger.Debug("evaluation already running, relaxed request coalesced")
		return nil
	}
	reqs := o.settings.Requirements()
	relaxed := o.settings.Relax()
	if err := o.start("relaxed", relaxed, true, focusOnComplete); err != nil {
		return err
	}
	o.originalReqs = reqs
	return nil
}

func (o *Orchestrator) start(source string, settings *filter.Settings, relaxedSearch, focusOnComplete bool) error {
	// A fresh normal search invalidates everything the previous relaxed
	// search explained.
	if !relaxedSearch {
		o.originalReqs = nil
		o.relaxedInfo = make([]*RelaxedMatchInfo, o.w.TileCount())
	}

	job, err := NewJob(o.w, settings, o.minCandidates, o.presetFn(), o.logger)
	if err != nil {
		serr := scouterr.ConfigError("cannot start search", err).
			WithDetail("source", source)
		o.logger.Error("search start failed", scouterr.LogFields(serr)...)
		return serr
	}
	o.job = job
	o.jobRelaxed = relaxedSearch
	o.pendingFocus = focusOnComplete
	o.logger.Info("search started", "source", source, "relaxed", relaxedSearch)
	return nil
}

// CancelEvaluation discards the active job, if any. Completed results
// and caches are untouched. Safe to call when idle.
func (o *Orchestrator) CancelEvaluation() {
	if o.job == nil {
		return
	}
	o.job.Cancel()
	o.job = nil
	o.pendingFocus = false
	o.logger.Info("search cancelled")
}

// Step advances the active job by the given iteration budget. The host
// scheduler calls it once per tick; it returns quickly when no job is
// active. On completion the result caches are replaced wholesale.
func (o *Orchestrator) Step(ctx context.Context, iterations int) error {
	if o.job == nil {
		return nil
	}
	if err := o.job.Step(ctx, iterations); err != nil {
		serr := scouterr.Wrap(scouterr.ErrCodeSearchFailed, err)
		o.logger.Error("search step failed", scouterr.LogFields(serr)...)
		o.job = nil
		o.pendingFocus = false
		return serr
	}
	if o.job.State() == StateComplete {
		o.install(o.job)
		o.job = nil
	}
	return nil
}

// install replaces the result caches with a completed job's output.
// Replacement is wholesale so stale entries never leak across searches.
func (o *Orchestrator) install(job *Job) {
	results := job.Results()
	n := o.w.TileCount()

	o.latest = results
	o.lastEmpty = len(results) == 0
	o.latestRelaxed = o.jobRelaxed
	o.lastElapsedMs = job.ElapsedMs()
	o.focusCursor = -1

	o.breakdowns = make([]*Breakdown, n)
	o.ranks = newRankArena(n)
	for rank, ts := range results {
		o.breakdowns[ts.TileID] = ts.Breakdown
		o.ranks[ts.TileID] = rank
	}

	if o.jobRelaxed {
		// Violation annotations are computed lazily per tile; drop any
		// stale ones from an earlier relaxed search.
		o.relaxedInfo = make([]*RelaxedMatchInfo, n)
	}

	if o.pendingFocus && len(results) > 0 && o.focusFn != nil {
		o.focusFn(results[0].TileID)
	}
	o.pendingFocus = false
}

func (o *Orchestrator) active() bool {
	return o.job != nil &&
		o.job.State() != StateComplete &&
		o.job.State() != StateCancelled
}

// IsSearching reports whether an evaluation job is in flight.
func (o *Orchestrator) IsSearching() bool { return o.active() }

// Progress reports the active job's completion in [0,1]; 1 when idle.
func (o *Orchestrator) Progress() float64 {
	if !o.active() {
		return 1
	}
	return o.job.Progress()
}

// Phase describes what the active job is doing; empty when idle.
func (o *Orchestrator) Phase() string {
	if !o.active() {
		return ""
	}
	return o.job.Phase()
}

// LatestResults returns the most recent completed search's ranked tiles.
// Callers must not mutate the returned slice.
func (o *Orchestrator) LatestResults() []TileScore { return o.latest }

// LastSearchWasEmpty reports whether the latest completed search
// returned no tiles. Not an error: the caller can offer a relaxed
// search.
func (o *Orchestrator) LastSearchWasEmpty() bool { return o.lastEmpty }

// LastSearchWasRelaxed reports whether the latest completed results came
// from a relaxed search.
func (o *Orchestrator) LastSearchWasRelaxed() bool { return o.latestRelaxed }

// LastElapsedMs returns the latest completed search's duration.
func (o *Orchestrator) LastElapsedMs() int64 { return o.lastElapsedMs }

// RankOf returns a tile's 0-based rank in the latest results, or -1 when
// the tile is unranked or the id is out of range.
func (o *Orchestrator) RankOf(tileID int) int {
	if tileID < 0 || tileID >= len(o.ranks) {
		return -1
	}
	return o.ranks[tileID]
}

// BreakdownFor returns a tile's per-criterion breakdown from the latest
// results, or nil when absent or out of range.
func (o *Orchestrator) BreakdownFor(tileID int) *Breakdown {
	if tileID < 0 || tileID >= len(o.breakdowns) {
		return nil
	}
	return o.breakdowns[tileID]
}

// GetRelaxedMatchInfo lazily computes which original requirements a
// relaxed-search result satisfies and violates, re-testing the tile's
// attributes against each snapshot filter. Returns nil unless the latest
// results are relaxed and the tile id is valid.
func (o *Orchestrator) GetRelaxedMatchInfo(tileID int) *RelaxedMatchInfo {
	if !o.latestRelaxed || len(o.originalReqs) == 0 {
		return nil
	}
	if tileID < 0 || tileID >= len(o.relaxedInfo) {
		return nil
	}
	if info := o.relaxedInfo[tileID]; info != nil {
		return info
	}

	info := &RelaxedMatchInfo{TileID: tileID}
	for _, req := range o.originalReqs {
		matched := filter.Matches(req, o.w, tileID)
		// A MustHave is satisfied by matching; a MustNotHave by not.
		ok := matched
		if req.Importance == filter.MustNotHave {
			ok = !matched
		}
		if ok {
			info.Satisfied = append(info.Satisfied, req.ID)
		} else {
			info.Violated = append(info.Violated, req.ID)
		}
	}
	o.relaxedInfo[tileID] = info
	return info
}

// FocusNext advances the focus cursor to the next ranked result, wraps
// at the end, fires the focus callback, and returns the focused tile id.
// Returns -1 when there are no results.
func (o *Orchestrator) FocusNext() int {
	if len(o.latest) == 0 {
		return -1
	}
	o.focusCursor = (o.focusCursor + 1) % len(o.latest)
	tile := o.latest[o.focusCursor].TileID
	if o.focusFn != nil {
		o.focusFn(tile)
	}
	return tile
}

// FocusPrev moves the focus cursor to the previous ranked result,
// wrapping at the start.
func (o *Orchestrator) FocusPrev() int {
	if len(o.latest) == 0 {
		return -1
	}
	o.focusCursor--
	if o.focusCursor < 0 {
		o.focusCursor = len(o.latest) - 1
	}
	tile := o.latest[o.focusCursor].TileID
	if o.focusFn != nil {
		o.focusFn(tile)
	}
	return tile
}
