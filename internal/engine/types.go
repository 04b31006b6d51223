package engine

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/solmere/tilescout/internal/filter"
)

// Candidate is one stage-A survivor handed to stage B. Immutable after
// creation.
type Candidate struct {
	// TileID is the tile's dense integer handle.
	TileID int

	// UpperBound is the most optimistic final score the tile can reach:
	// every heavy predicate assumed matching. Stage B never assigns a
	// final score above it.
	UpperBound float64

	// MustHaveCheapMatches counts satisfied cheap MustHave predicates.
	MustHaveCheapMatches int

	// PriorityCheapMatches and PreferredCheapMatches count satisfied
	// cheap scoring predicates per class.
	PriorityCheapMatches  int
	PreferredCheapMatches int
}

// TileScore is one ranked result with its per-criterion breakdown.
type TileScore struct {
	TileID    int
	Score     float64
	Breakdown *Breakdown
}

// Breakdown records, per predicate, whether a tile satisfied it and the
// weighted contribution toward the tile's ratios.
type Breakdown struct {
	TileID  int
	Entries []BreakdownEntry
}

// BreakdownEntry is one predicate's outcome for one tile.
type BreakdownEntry struct {
	PredicateID  string
	Importance   filter.Importance
	Satisfied    bool
	Contribution float64
}

// partition splits compiled predicates by importance class and cost.
type partition struct {
	cheapMustHave  []filter.Predicate
	cheapExclude   []filter.Predicate
	cheapPriority  []filter.Predicate
	cheapPreferred []filter.Predicate

	heavyMustHave  []filter.Predicate
	heavyExclude   []filter.Predicate
	heavyPriority  []filter.Predicate
	heavyPreferred []filter.Predicate
}

func partitionPredicates(preds []filter.Predicate) partition {
	var p partition
	for _, pred := range preds {
		switch pred.Importance {
		case filter.MustHave:
			if pred.Cost == filter.Cheap {
				p.cheapMustHave = append(p.cheapMustHave, pred)
			} else {
				p.heavyMustHave = append(p.heavyMustHave, pred)
			}
		case filter.MustNotHave:
			if pred.Cost == filter.Cheap {
				p.cheapExclude = append(p.cheapExclude, pred)
			} else {
				p.heavyExclude = append(p.heavyExclude, pred)
			}
		case filter.Priority:
			if pred.Cost == filter.Cheap {
				p.cheapPriority = append(p.cheapPriority, pred)
			} else {
				p.heavyPriority = append(p.heavyPriority, pred)
			}
		case filter.Preferred:
			if pred.Cost == filter.Cheap {
				p.cheapPreferred = append(p.cheapPreferred, pred)
			} else {
				p.heavyPreferred = append(p.heavyPreferred, pred)
			}
		}
	}
	return p
}

// gateTotal is the number of MustHave predicates across both costs.
func (p partition) gateTotal() int {
	return len(p.cheapMustHave) + len(p.heavyMustHave)
}

// scoringWeight is the weighted scoring denominator: priority criteria
// count double, preferred single.
func (p partition) scoringWeight() float64 {
	return 2*float64(len(p.cheapPriority)+len(p.heavyPriority)) +
		float64(len(p.cheapPreferred)+len(p.heavyPreferred))
}

// aggregation is the full stage-A output: the pruned best-first candidate
// list plus everything stage B needs to finish the job.
type aggregation struct {
	candidates []Candidate

	// threshold is the adaptive cheap-MustHave match requirement chosen
	// by stage A. relaxed is set when no viable threshold existed and
	// stage A fell back to accepting all tiles.
	threshold int
	relaxed   bool

	// kappa is the weighting coefficient shared by both stages.
	kappa float64

	part partition

	// cheapMatches maps cheap predicate id to its evaluated bit vector,
	// kept so stage B can fill breakdowns without re-evaluating.
	cheapMatches map[string]*bitset.BitSet
}
