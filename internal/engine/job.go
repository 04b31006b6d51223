package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	scouterr "github.com/solmere/tilescout/internal/errors"
	"github.com/solmere/tilescout/internal/filter"
	"github.com/solmere/tilescout/internal/world"
)

// State is the evaluation job's lifecycle state.
type State uint8

const (
	// StateCreated means no work has happened yet.
	StateCreated State = iota
	// StateScoringCheap means the stage-A bulk pass is running.
	StateScoringCheap
	// StateScoringHeavy means stage B is advancing through candidates.
	StateScoringHeavy
	// StateComplete means results are final. Terminal.
	StateComplete
	// StateCancelled means the job was abandoned; partial results are
	// discarded. Terminal.
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateScoringCheap:
		return "scoring_cheap"
	case StateScoringHeavy:
		return "scoring_heavy"
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MinStepIterations is the floor for the per-Step candidate budget.
// Smaller chunks spend more ticks on bookkeeping than on scoring.
const MinStepIterations = 16

// Job is a resumable search evaluation: stage A runs in one bulk pass on
// the first Step, then each Step advances stage B by a bounded number of
// candidates so the caller's frame loop is never blocked. A Job is owned
// by exactly one Orchestrator and stepped from a single goroutine.
type Job struct {
	w      *world.CachedProvider
	preds  []filter.Predicate
	cfg    aggregatorConfig
	preset Preset
	logger *slog.Logger

	maxResults int

	state   State
	agg     *aggregation
	refiner *refiner
	started time.Time
	elapsed time.Duration
	results []TileScore
}

// NewJob compiles the settings' filters and prepares a job in
// StateCreated. Invalid settings and compilation failures (bad filter
// payloads) surface here so no partially built job ever runs.
func NewJob(w *world.CachedProvider, settings *filter.Settings, minCandidates int, preset Preset, logger *slog.Logger) (*Job, error) {
	if w == nil {
		return nil, fmt.Errorf("nil world provider")
	}
	if settings == nil {
		return nil, fmt.Errorf("nil filter settings")
	}
	if err := settings.Validate(); err != nil {
		return nil, scouterr.Wrap(scouterr.ErrCodeInvalidSettings, err)
	}
	preds, err := filter.Compile(settings.Filters, w)
	if err != nil {
		return nil, fmt.Errorf("compile filters: %w", err)
	}
	return &Job{
		w:     w,
		preds: preds,
		cfg: aggregatorConfig{
			maxCandidates: settings.MaxCandidates,
			minCandidates: minCandidates,
		},
		preset:     preset,
		logger:     logger,
		maxResults: settings.MaxResults,
		state:      StateCreated,
	}, nil
}

// State returns the job's current lifecycle state.
func (j *Job) State() State { return j.state }

// Step advances the job by at most iterations stage-B candidates (the
// first Step runs stage A instead, as a single bulk pass). It is the
// job's sole suspension point; the scheduler calls it once per host
// tick. Iteration budgets below MinStepIterations are raised to it.
func (j *Job) Step(ctx context.Context, iterations int) error {
	switch j.state {
	case StateComplete, StateCancelled:
		return nil
	case StateCreated:
		return j.runStageA(ctx)
	}

	if iterations < MinStepIterations {
		iterations = MinStepIterations
	}
	j.refiner.step(iterations)
	if j.refiner.finished() {
		j.results = j.refiner.results()
		j.elapsed = time.Since(j.started)
		j.state = StateComplete
		j.logger.Info("search complete",
			"results", len(j.results),
			"candidates", j.refiner.total(),
			"elapsed_ms", j.elapsed.Milliseconds())
	}
	return nil
}

func (j *Job) runStageA(ctx context.Context) error {
	j.started = time.Now()
	j.state = StateScoringCheap

	agg, err := aggregate(ctx, j.w, partitionPredicates(j.preds), j.cfg, j.preset, j.logger)
	if err != nil {
		j.state = StateCancelled
		return err
	}
	j.agg = agg
	j.refiner = newRefiner(agg, j.maxResults)
	j.state = StateScoringHeavy

	j.logger.Debug("aggregation done",
		"candidates", len(agg.candidates),
		"threshold", agg.threshold,
		"kappa", agg.kappa)

	// No candidates means stage B has nothing to do; complete on the
	// next Step through the normal path.
	return nil
}

// Cancel moves the job to its terminal cancelled state and discards any
// partial results. No-op on terminal states. Observed at the next Step
// boundary; never preemptive.
func (j *Job) Cancel() {
	if j.state == StateComplete || j.state == StateCancelled {
		return
	}
	j.state = StateCancelled
	j.results = nil
	j.refiner = nil
	j.agg = nil
}

// Progress reports stage-B completion in [0,1]. A job with zero
// candidates reports 1 once stage A has run.
func (j *Job) Progress() float64 {
	switch j.state {
	case StateCreated, StateScoringCheap:
		return 0
	case StateComplete:
		return 1
	case StateCancelled:
		return 0
	}
	if j.refiner.total() == 0 {
		return 1
	}
	return float64(j.refiner.processed()) / float64(j.refiner.total())
}

// Phase returns a human-readable description of what the job is doing.
func (j *Job) Phase() string {
	switch j.state {
	case StateCreated:
		return "waiting to start"
	case StateScoringCheap:
		return "gathering candidates"
	case StateScoringHeavy:
		return fmt.Sprintf("scoring candidates (%d/%d)", j.refiner.processed(), j.refiner.total())
	case StateComplete:
		return "complete"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Results returns the final ranked tiles. Nil until StateComplete.
func (j *Job) Results() []TileScore {
	if j.state != StateComplete {
		return nil
	}
	return j.results
}

// ElapsedMs returns the wall-clock duration of a completed job in
// milliseconds.
func (j *Job) ElapsedMs() int64 { return j.elapsed.Milliseconds() }

// ProcessedTiles returns how many candidates stage B has consumed.
func (j *Job) ProcessedTiles() int {
	if j.refiner == nil {
		return 0
	}
	return j.refiner.processed()
}

// TotalTiles returns the stage-A candidate count.
func (j *Job) TotalTiles() int {
	if j.refiner == nil {
		return 0
	}
	return j.refiner.total()
}

// ThresholdRelaxed reports whether stage A had to fall back to accepting
// all tiles because no viable MustHave threshold existed.
func (j *Job) ThresholdRelaxed() bool {
	return j.agg != nil && j.agg.relaxed
}
