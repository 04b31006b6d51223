package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/solmere/tilescout/internal/filter"
	"github.com/solmere/tilescout/internal/world"
)

// aggregatorConfig bounds stage A's output.
type aggregatorConfig struct {
	// maxCandidates truncates the candidate list; zero or negative
	// disables truncation.
	maxCandidates int

	// minCandidates is the lower edge of the adaptive threshold's target
	// range. The threshold never prunes below it while a viable
	// requirement count exists.
	minCandidates int
}

// aggregate runs stage A: evaluates every cheap predicate across the tile
// universe into bit vectors, applies exclusion gates, picks the adaptive
// MustHave threshold, and returns a bounded candidate list sorted
// best-first by upper-bound score.
func aggregate(ctx context.Context, w *world.CachedProvider, part partition, cfg aggregatorConfig, preset Preset, logger *slog.Logger) (*aggregation, error) {
	n := w.TileCount()

	// Unsettleable tiles are out before any predicate runs.
	settleable := bitset.New(uint(n))
	for t := 0; t < n; t++ {
		if w.IsSettleable(t) {
			settleable.Set(uint(t))
		}
	}

	cheap := make([]filter.Predicate, 0,
		len(part.cheapMustHave)+len(part.cheapExclude)+len(part.cheapPriority)+len(part.cheapPreferred))
	cheap = append(cheap, part.cheapMustHave...)
	cheap = append(cheap, part.cheapExclude...)
	cheap = append(cheap, part.cheapPriority...)
	cheap = append(cheap, part.cheapPreferred...)

	// One bit vector per predicate, evaluated over settleable tiles only.
	// Predicates are read-only and each goroutine writes its own vector,
	// so the pass parallelizes across predicates without locking.
	vectors := make([]*bitset.BitSet, len(cheap))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, pred := range cheap {
		i, pred := i, pred
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bits := bitset.New(uint(n))
			for t, ok := settleable.NextSet(0); ok; t, ok = settleable.NextSet(t + 1) {
				if pred.Matches(int(t)) {
					bits.Set(t)
				}
			}
			vectors[i] = bits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cheapMatches := make(map[string]*bitset.BitSet, len(cheap))
	for i, pred := range cheap {
		cheapMatches[pred.ID] = vectors[i]
	}

	// Any cheap MustNotHave match removes the tile outright.
	eligible := settleable.Clone()
	for _, pred := range part.cheapExclude {
		eligible.InPlaceDifference(cheapMatches[pred.ID])
	}

	// Merge per-predicate vectors into per-tile match counters.
	mustCnt := make([]int32, n)
	priCnt := make([]int32, n)
	prefCnt := make([]int32, n)
	accumulate(part.cheapMustHave, cheapMatches, mustCnt)
	accumulate(part.cheapPriority, cheapMatches, priCnt)
	accumulate(part.cheapPreferred, cheapMatches, prefCnt)

	threshold, relaxed := chooseThreshold(len(part.cheapMustHave), mustCnt, eligible, cfg)
	if relaxed {
		logger.Warn("no must-have threshold yields enough candidates, accepting all tiles",
			"must_have_cheap", len(part.cheapMustHave),
			"min_candidates", cfg.minCandidates)
	}

	kappa := preset.Kappa(part.gateTotal(), part.scoringWeight())

	gateTotal := part.gateTotal()
	heavyMust := len(part.heavyMustHave)
	scoringDenom := part.scoringWeight()
	heavyScoringNum := 2*float64(len(part.heavyPriority)) + float64(len(part.heavyPreferred))

	var candidates []Candidate
	for t, ok := eligible.NextSet(0); ok; t, ok = eligible.NextSet(t + 1) {
		tile := int(t)
		if int(mustCnt[tile]) < threshold {
			continue
		}

		// Most optimistic outcome: every heavy predicate matches.
		gateRatio := 1.0
		if gateTotal > 0 {
			gateRatio = (float64(mustCnt[tile]) + float64(heavyMust)) / float64(gateTotal)
		}
		scoringRatio := 0.0
		if scoringDenom > 0 {
			scoringRatio = (2*float64(priCnt[tile]) + float64(prefCnt[tile]) + heavyScoringNum) / scoringDenom
		}

		candidates = append(candidates, Candidate{
			TileID:                tile,
			UpperBound:            combine(gateRatio, scoringRatio, kappa),
			MustHaveCheapMatches:  int(mustCnt[tile]),
			PriorityCheapMatches:  int(priCnt[tile]),
			PreferredCheapMatches: int(prefCnt[tile]),
		})
	}

	// Best-first order; ties resolve to the lower tile id so runs are
	// deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].UpperBound != candidates[j].UpperBound {
			return candidates[i].UpperBound > candidates[j].UpperBound
		}
		return candidates[i].TileID < candidates[j].TileID
	})

	// Adaptive tightening: tiles cut here are provably no better than the
	// worst retained upper bound.
	if cfg.maxCandidates > 0 && len(candidates) > cfg.maxCandidates {
		logger.Debug("truncating candidate list",
			"survivors", len(candidates),
			"max_candidates", cfg.maxCandidates)
		candidates = candidates[:cfg.maxCandidates]
	}

	return &aggregation{
		candidates:   candidates,
		threshold:    threshold,
		relaxed:      relaxed,
		kappa:        kappa,
		part:         part,
		cheapMatches: cheapMatches,
	}, nil
}

func accumulate(preds []filter.Predicate, vectors map[string]*bitset.BitSet, counts []int32) {
	for _, pred := range preds {
		bits := vectors[pred.ID]
		for t, ok := bits.NextSet(0); ok; t, ok = bits.NextSet(t + 1) {
			counts[t]++
		}
	}
}

// chooseThreshold picks the largest requirement count k whose survivor
// count lands in the configured target range. Survivor counts are
// monotone non-increasing in k, so the scan walks from all-required
// downward. When no k reaches minCandidates the threshold degrades to
// zero (accept all) rather than failing the search.
func chooseThreshold(cheapMustHave int, mustCnt []int32, eligible *bitset.BitSet, cfg aggregatorConfig) (threshold int, relaxed bool) {
	if cheapMustHave == 0 {
		return 0, false
	}

	hist := make([]int, cheapMustHave+1)
	for t, ok := eligible.NextSet(0); ok; t, ok = eligible.NextSet(t + 1) {
		hist[mustCnt[t]]++
	}

	// cum[k] = tiles matching at least k cheap MustHave predicates.
	cum := make([]int, cheapMustHave+2)
	for k := cheapMustHave; k >= 0; k-- {
		cum[k] = cum[k+1] + hist[k]
	}

	upper := -1 // unbounded
	if cfg.maxCandidates > 0 {
		upper = cfg.maxCandidates * 10
	}

	for k := cheapMustHave; k >= 1; k-- {
		if cum[k] >= cfg.minCandidates && (upper < 0 || cum[k] <= upper) {
			return k, false
		}
	}
	// Nothing in range: settle for the strictest k that still meets the
	// minimum, letting truncation deal with the excess.
	for k := cheapMustHave; k >= 1; k-- {
		if cum[k] >= cfg.minCandidates {
			return k, false
		}
	}
	return 0, true
}
