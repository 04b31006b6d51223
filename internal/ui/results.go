package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/solmere/tilescout/internal/engine"
	"github.com/solmere/tilescout/internal/filter"
)

// RenderResults prints the ranked result list. When the world has a known
// grid width, tile ids are also shown as (x, y) coordinates. When the
// search ran relaxed, each row is annotated with its violated requirements.
func RenderResults(w io.Writer, styles Styles, orch *engine.Orchestrator, gridWidth int) {
	results := orch.LatestResults()
	if len(results) == 0 {
		fmt.Fprintln(w, styles.Warning.Render("no tiles matched"))
		return
	}

	header := fmt.Sprintf("%d matching tiles (%dms)", len(results), orch.LastElapsedMs())
	if orch.LastSearchWasRelaxed() {
		header += " [relaxed]"
	}
	fmt.Fprintln(w, styles.Header.Render(header))
	fmt.Fprintln(w)

	for i, r := range results {
		loc := fmt.Sprintf("tile %d", r.TileID)
		if gridWidth > 0 {
			loc = fmt.Sprintf("tile %d (%d, %d)", r.TileID, r.TileID%gridWidth, r.TileID/gridWidth)
		}
		line := fmt.Sprintf("%3d. %-24s %s", i+1, loc, styles.Score.Render(fmt.Sprintf("%.3f", r.Score)))
		fmt.Fprintln(w, line)

		if orch.LastSearchWasRelaxed() {
			if info := orch.GetRelaxedMatchInfo(r.TileID); info != nil && len(info.Violated) > 0 {
				fmt.Fprintf(w, "     %s\n", styles.Warning.Render("violates: "+strings.Join(info.Violated, ", ")))
			}
		}
	}
}

// RenderBreakdown prints one tile's per-predicate score breakdown.
func RenderBreakdown(w io.Writer, styles Styles, bd *engine.Breakdown) {
	if bd == nil {
		fmt.Fprintln(w, styles.Dim.Render("no breakdown available"))
		return
	}
	fmt.Fprintln(w, styles.Header.Render(fmt.Sprintf("tile %d", bd.TileID)))
	for _, e := range bd.Entries {
		mark := styles.Error.Render("x")
		if e.Satisfied {
			mark = styles.Success.Render("+")
		}
		fmt.Fprintf(w, "  %s %-28s %-12s %+.3f\n", mark, e.PredicateID, importanceLabel(e.Importance), e.Contribution)
	}
}

func importanceLabel(imp filter.Importance) string {
	switch imp {
	case filter.MustHave:
		return "must-have"
	case filter.MustNotHave:
		return "must-not"
	case filter.Priority:
		return "priority"
	case filter.Preferred:
		return "preferred"
	default:
		return "unknown"
	}
}
