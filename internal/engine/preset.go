// Package engine implements the incremental two-stage tile search:
// bulk cheap-predicate aggregation with adaptive thresholding (stage A),
// upper-bound-pruned heavy-predicate refinement (stage B), a resumable
// per-tick evaluation job, and the orchestrator that owns job lifecycle
// and result caches.
package engine

// Preset tunes how steeply gate satisfaction dominates scoring
// satisfaction. Presets are configuration data, not algorithm variants:
// any preset yields a monotone blend, which is all pruning soundness
// requires.
type Preset struct {
	// Name identifies the preset in config files.
	Name string `yaml:"name"`

	// KappaScale multiplies the gate-to-scoring count ratio.
	KappaScale float64 `yaml:"kappa_scale"`

	// KappaMin and KappaMax clamp the resulting coefficient.
	KappaMin float64 `yaml:"kappa_min"`
	KappaMax float64 `yaml:"kappa_max"`
}

// DefaultPreset is the balanced preset used when no configuration is
// loaded.
func DefaultPreset() Preset {
	return Preset{Name: "balanced", KappaScale: 2.0, KappaMin: 1.0, KappaMax: 6.0}
}

// BuiltinPresets returns the presets shipped in the default config.
func BuiltinPresets() []Preset {
	return []Preset{
		DefaultPreset(),
		{Name: "strict", KappaScale: 4.0, KappaMin: 3.0, KappaMax: 12.0},
		{Name: "lenient", KappaScale: 1.0, KappaMin: 0.5, KappaMax: 2.0},
	}
}

// Kappa derives the weighting coefficient from the gate predicate count
// and the total scoring weight (priority criteria count twice). The
// function is monotone in the gate count: more gates push the blend
// toward gate satisfaction.
func (p Preset) Kappa(gateCount int, scoringWeight float64) float64 {
	k := p.KappaScale * (1 + float64(gateCount)) / (1 + scoringWeight)
	if k < p.KappaMin {
		k = p.KappaMin
	}
	if k > p.KappaMax {
		k = p.KappaMax
	}
	return k
}

// combine blends the gate satisfaction ratio and the weighted scoring
// ratio into a final score. Monotone increasing in both inputs; kappa
// controls gate dominance. Stage A feeds it optimistic inputs, stage B
// exact ones, so the stage-A value always bounds the stage-B value from
// above.
func combine(gateRatio, scoringRatio, kappa float64) float64 {
	return (kappa*gateRatio + scoringRatio) / (kappa + 1)
}
