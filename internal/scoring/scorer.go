package scoring

import (
	"math"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// Sleep facial base weights
const (
	sleepDarkCircleWeight = 0.4
	sleepPuffinessWeight  = 0.3
	sleepBrightnessWeight = 0.3
)

// Skin health weights across all six features
var skinWeights = map[model.Feature]float64{
	model.FeatureBrightness:  0.2,
	model.FeatureWrinkles:    0.2,
	model.FeatureTexture:     0.2,
	model.FeaturePoreSize:    0.2,
	model.FeaturePuffiness:   0.1,
	model.FeatureDarkCircles: 0.1,
}

// CorrelationFunc computes the cross-feature correlation leg of the
// composite blend on 0..100. The exact formula is deliberately pluggable;
// DefaultCorrelation is the shipped heuristic.
type CorrelationFunc func(features map[model.Feature]float64, routine *model.RoutineInput) float64

// Result is the composite output. Float values retain full precision for
// trend math; the int scores are the rounded presentation values.
type Result struct {
	SleepScore      int
	SkinHealthScore int
	SleepFloat      float64
	SkinFloat       float64
	FunLabel        string
}

// Scorer fuses feature scores, routine input and quality into the two
// composite scores.
type Scorer struct {
	cfg         config.AnalysisConfig
	correlation CorrelationFunc
}

func NewScorer(cfg config.AnalysisConfig, correlation CorrelationFunc) *Scorer {
	if correlation == nil {
		correlation = DefaultCorrelation
	}
	return &Scorer{cfg: cfg, correlation: correlation}
}

func (s *Scorer) Score(features map[model.Feature]float64, routine *model.RoutineInput) Result {
	facialSleep := sleepDarkCircleWeight*featureOr(features, model.FeatureDarkCircles) +
		sleepPuffinessWeight*featureOr(features, model.FeaturePuffiness) +
		sleepBrightnessWeight*featureOr(features, model.FeatureBrightness)

	facialSkin := 0.0
	for f, w := range skinWeights {
		facialSkin += w * featureOr(features, f)
	}

	lifestyle := lifestyleScore(routine)
	skinLifestyle := clamp(lifestyle+ingredientBonus(routine, s.cfg.IngredientBonusCap), 0, 100)
	correlation := clamp(s.correlation(features, routine), 0, 100)

	wf, wl, wc := s.cfg.FacialWeight, s.cfg.LifestyleWeight, s.cfg.CorrelationWeight
	total := wf + wl + wc

	sleep := (wf*facialSleep + wl*lifestyle + wc*correlation) / total
	skin := (wf*facialSkin + wl*skinLifestyle + wc*correlation) / total

	sleep = clamp(sleep, 0, 100)
	skin = clamp(skin, 0, 100)

	return Result{
		SleepScore:      int(math.Round(sleep)),
		SkinHealthScore: int(math.Round(skin)),
		SleepFloat:      sleep,
		SkinFloat:       skin,
		FunLabel:        FunLabel((sleep + skin) / 2),
	}
}

// DefaultCorrelation is a tiered cross-feature agreement measure: scores
// that move together (all strong or all weak) signal a consistent
// underlying state, which the blend rewards or penalizes.
func DefaultCorrelation(features map[model.Feature]float64, _ *model.RoutineInput) float64 {
	if len(features) == 0 {
		return 50
	}
	allAbove := func(t float64) bool {
		for _, f := range model.AllFeatures {
			if featureOr(features, f) <= t {
				return false
			}
		}
		return true
	}
	allBelow := func(t float64) bool {
		for _, f := range model.AllFeatures {
			if featureOr(features, f) >= t {
				return false
			}
		}
		return true
	}

	switch {
	case allAbove(70):
		return 100
	case allBelow(30):
		return 0
	case allAbove(50):
		return 75
	case allBelow(50):
		return 25
	}
	return 50
}

// featureOr returns the measured value or a neutral 50 when the feature
// did not contribute.
func featureOr(features map[model.Feature]float64, f model.Feature) float64 {
	if v, ok := features[f]; ok {
		return v
	}
	return 50
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
