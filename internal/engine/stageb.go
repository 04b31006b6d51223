package engine

import (
	"sort"

	"github.com/solmere/tilescout/internal/filter"
)

// refiner walks the stage-A candidate list best-first, evaluating heavy
// predicates to exact final scores. It keeps at most maxResults tiles and
// stops as soon as the next candidate's upper bound can no longer beat
// the worst kept score.
type refiner struct {
	agg        *aggregation
	maxResults int

	cursor int
	kept   []TileScore
	done   bool
}

func newRefiner(agg *aggregation, maxResults int) *refiner {
	return &refiner{agg: agg, maxResults: maxResults}
}

// total returns the candidate count stage B has to cover.
func (r *refiner) total() int { return len(r.agg.candidates) }

// processed returns how many candidates have been consumed, including
// those skipped by pruning.
func (r *refiner) processed() int { return r.cursor }

// finished reports whether refinement is complete.
func (r *refiner) finished() bool { return r.done }

// step evaluates up to n more candidates. Returns the number actually
// evaluated before the budget ran out or pruning ended the walk.
func (r *refiner) step(n int) int {
	evaluated := 0
	for evaluated < n && r.cursor < len(r.agg.candidates) {
		cand := r.agg.candidates[r.cursor]

		// Branch-and-bound: candidates arrive best-first by upper bound,
		// so once the bound cannot beat the worst kept score nothing
		// after it can either.
		if len(r.kept) >= r.maxResults && cand.UpperBound <= r.worstKept() {
			r.cursor = len(r.agg.candidates)
			break
		}

		if score, breakdown, ok := r.evaluate(cand); ok {
			r.admit(TileScore{TileID: cand.TileID, Score: score, Breakdown: breakdown})
		}
		r.cursor++
		evaluated++
	}

	if r.cursor >= len(r.agg.candidates) {
		r.done = true
	}
	return evaluated
}

// results returns the kept tiles sorted by score descending, ties broken
// by ascending tile id.
func (r *refiner) results() []TileScore {
	out := make([]TileScore, len(r.kept))
	copy(out, r.kept)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TileID < out[j].TileID
	})
	return out
}

func (r *refiner) worstKept() float64 {
	worst := r.kept[0].Score
	for _, ts := range r.kept[1:] {
		if ts.Score < worst {
			worst = ts.Score
		}
	}
	return worst
}

// admit adds a scored tile, evicting the current worst when full.
func (r *refiner) admit(ts TileScore) {
	if len(r.kept) < r.maxResults {
		r.kept = append(r.kept, ts)
		return
	}
	worstIdx := 0
	for i, k := range r.kept {
		if k.Score < r.kept[worstIdx].Score {
			worstIdx = i
		}
	}
	if ts.Score > r.kept[worstIdx].Score {
		r.kept[worstIdx] = ts
	}
}

// evaluate computes a candidate's exact score. Gates run first: a heavy
// MustNotHave match rejects outright, and heavy MustHave misses reject as
// soon as the optimistic remaining match count falls below the adaptive
// threshold plus the heavy gate count.
func (r *refiner) evaluate(cand Candidate) (float64, *Breakdown, bool) {
	part := r.agg.part
	tile := cand.TileID

	// Required total MustHave matches: the cheap threshold chosen by
	// stage A, extended by the heavy gates stage A assumed satisfied.
	required := r.agg.threshold + len(part.heavyMustHave)

	for _, pred := range part.heavyExclude {
		if pred.Matches(tile) {
			return 0, nil, false
		}
	}

	heavyMustHits := make([]bool, len(part.heavyMustHave))
	heavyMustMatched := 0
	for i, pred := range part.heavyMustHave {
		if pred.Matches(tile) {
			heavyMustHits[i] = true
			heavyMustMatched++
			continue
		}
		remaining := len(part.heavyMustHave) - i - 1
		if cand.MustHaveCheapMatches+heavyMustMatched+remaining < required {
			return 0, nil, false
		}
	}

	heavyPriHits := make([]bool, len(part.heavyPriority))
	heavyPriMatched := 0
	for i, pred := range part.heavyPriority {
		if pred.Matches(tile) {
			heavyPriHits[i] = true
			heavyPriMatched++
		}
	}
	heavyPrefHits := make([]bool, len(part.heavyPreferred))
	heavyPrefMatched := 0
	for i, pred := range part.heavyPreferred {
		if pred.Matches(tile) {
			heavyPrefHits[i] = true
			heavyPrefMatched++
		}
	}

	gateTotal := part.gateTotal()
	gateRatio := 1.0
	if gateTotal > 0 {
		gateRatio = float64(cand.MustHaveCheapMatches+heavyMustMatched) / float64(gateTotal)
	}

	scoringDenom := part.scoringWeight()
	scoringRatio := 0.0
	if scoringDenom > 0 {
		num := 2*float64(cand.PriorityCheapMatches+heavyPriMatched) +
			float64(cand.PreferredCheapMatches+heavyPrefMatched)
		scoringRatio = num / scoringDenom
	}

	score := combine(gateRatio, scoringRatio, r.agg.kappa)

	breakdown := r.buildBreakdown(tile, gateTotal, scoringDenom,
		heavyMustHits, heavyPriHits, heavyPrefHits)

	return score, breakdown, true
}

// buildBreakdown assembles the per-predicate record for a kept tile.
// Cheap outcomes come from the stage-A bit vectors; heavy outcomes from
// the hits recorded during evaluation. Contribution is the predicate's
// weighted share of its ratio when satisfied.
func (r *refiner) buildBreakdown(tile int, gateTotal int, scoringDenom float64,
	heavyMustHits, heavyPriHits, heavyPrefHits []bool) *Breakdown {

	part := r.agg.part
	b := &Breakdown{TileID: tile}

	gateShare := 0.0
	if gateTotal > 0 {
		gateShare = 1 / float64(gateTotal)
	}
	priShare, prefShare := 0.0, 0.0
	if scoringDenom > 0 {
		priShare = 2 / scoringDenom
		prefShare = 1 / scoringDenom
	}

	addGate := func(pred filter.Predicate, hit bool) {
		e := BreakdownEntry{PredicateID: pred.ID, Importance: filter.MustHave, Satisfied: hit}
		if hit {
			e.Contribution = gateShare
		}
		b.Entries = append(b.Entries, e)
	}
	addScoring := func(pred filter.Predicate, hit bool, share float64) {
		e := BreakdownEntry{PredicateID: pred.ID, Importance: pred.Importance, Satisfied: hit}
		if hit {
			e.Contribution = share
		}
		b.Entries = append(b.Entries, e)
	}
	// Kept tiles never match an exclusion gate: the constraint itself is
	// what was satisfied.
	addExclude := func(pred filter.Predicate) {
		b.Entries = append(b.Entries, BreakdownEntry{
			PredicateID: pred.ID, Importance: filter.MustNotHave, Satisfied: true,
		})
	}

	for _, pred := range part.cheapMustHave {
		addGate(pred, r.agg.cheapMatches[pred.ID].Test(uint(tile)))
	}
	for i, pred := range part.heavyMustHave {
		addGate(pred, heavyMustHits[i])
	}
	for _, pred := range part.cheapExclude {
		addExclude(pred)
	}
	for _, pred := range part.heavyExclude {
		addExclude(pred)
	}
	for _, pred := range part.cheapPriority {
		addScoring(pred, r.agg.cheapMatches[pred.ID].Test(uint(tile)), priShare)
	}
	for i, pred := range part.heavyPriority {
		addScoring(pred, heavyPriHits[i], priShare)
	}
	for _, pred := range part.cheapPreferred {
		addScoring(pred, r.agg.cheapMatches[pred.ID].Test(uint(tile)), prefShare)
	}
	for i, pred := range part.heavyPreferred {
		addScoring(pred, heavyPrefHits[i], prefShare)
	}

	return b
}
