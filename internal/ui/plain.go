package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/solmere/tilescout/internal/engine"
)

// RunHeadless drives a requested search to completion without a TTY,
// printing coarse progress lines instead of rendering frames.
func RunHeadless(ctx context.Context, orch *engine.Orchestrator, cfg Config) error {
	lastReport := time.Now()
	lastPhase := ""

	for orch.IsSearching() {
		select {
		case <-ctx.Done():
			orch.CancelEvaluation()
			return ctx.Err()
		default:
		}

		if err := orch.Step(ctx, cfg.StepIterations); err != nil {
			return err
		}

		phase := orch.Phase()
		if phase != lastPhase || time.Since(lastReport) > 2*time.Second {
			fmt.Fprintf(cfg.Output, "searching: %s (%.0f%%)\n", phase, orch.Progress()*100)
			lastPhase = phase
			lastReport = time.Now()
		}
	}
	return nil
}
