package trend

import (
	"math"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
)

// goodBands holds the per-feature "good" threshold: a feature at or above
// its band no longer counts as stagnating even when flat.
var goodBands = map[model.Feature]float64{
	model.FeatureDarkCircles: 75,
	model.FeaturePuffiness:   70,
	model.FeatureBrightness:  80,
	model.FeatureWrinkles:    75,
	model.FeatureTexture:     75,
	model.FeaturePoreSize:    70,
}

// GoodBand returns the feature's "good" threshold.
func GoodBand(f model.Feature) float64 {
	if b, ok := goodBands[f]; ok {
		return b
	}
	return 75
}

// Engine classifies per-feature trends over a user's stored series.
// All methods are pure functions of the input records.
type Engine struct {
	cfg config.TrendConfig
}

func NewEngine(cfg config.TrendConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Classify compares the most recent window against the preceding one for
// a feature. Records must be ordered newest first, as the store returns
// them.
func (e *Engine) Classify(records []model.AnalysisRecord, feature model.Feature) model.TrendWindow {
	values := featureSeries(records, feature)

	window := e.cfg.WindowDays
	recent := take(values, 0, window)
	previous := take(values, window, window)

	tw := model.TrendWindow{
		Feature:        feature,
		RecentPoints:   len(recent),
		PreviousPoints: len(previous),
		Classification: model.TrendInsufficientData,
		Significance:   model.SignificanceNone,
	}

	if len(recent) < e.cfg.MinWindowPoints || len(previous) < e.cfg.MinWindowPoints {
		return tw
	}

	tw.RecentMean = mean(recent)
	tw.PreviousMean = mean(previous)
	tw.Delta = tw.RecentMean - tw.PreviousMean

	if tw.PreviousMean != 0 {
		pct := tw.Delta / math.Abs(tw.PreviousMean)
		tw.PctChange = &pct
	}

	tw.Classification = e.classify(tw.Delta, variance(recent))
	tw.Significance = e.Significance(tw.Delta)
	return tw
}

func (e *Engine) classify(delta, recentVariance float64) model.TrendClassification {
	switch {
	case delta >= e.cfg.ImproveDelta:
		return model.TrendImproving
	case delta <= e.cfg.DeclineDelta:
		return model.TrendDeclining
	case math.Abs(delta) <= e.cfg.StagnationBand && recentVariance < e.cfg.VarianceThreshold:
		return model.TrendStagnant
	default:
		return model.TrendStable
	}
}

// Significance tiers a delta for insight prioritization only; it never
// changes the classification itself.
func (e *Engine) Significance(delta float64) model.TrendSignificance {
	abs := math.Abs(delta)
	switch {
	case abs >= e.cfg.SignificantDelta:
		return model.SignificanceSignificant
	case abs >= e.cfg.ModerateDelta:
		return model.SignificanceModerate
	case abs >= e.cfg.StagnationBand:
		return model.SignificanceMinor
	default:
		return model.SignificanceNone
	}
}

// DetectStagnation flags a feature that stayed flat below its good band
// over the trailing stagnation window.
func (e *Engine) DetectStagnation(records []model.AnalysisRecord, feature model.Feature) model.StagnationRecord {
	values := featureSeries(records, feature)
	windowValues := take(values, 0, e.cfg.StagnationDays)

	sr := model.StagnationRecord{
		Feature:    feature,
		WindowDays: e.cfg.StagnationDays,
	}
	if len(windowValues) < e.cfg.MinWindowPoints {
		return sr
	}

	sr.Variance = variance(windowValues)
	// Series is newest first: net change is first minus last
	sr.NetChange = windowValues[0] - windowValues[len(windowValues)-1]
	current := windowValues[0]

	sr.IsStagnant = sr.Variance < e.cfg.VarianceThreshold &&
		math.Abs(sr.NetChange) < e.cfg.NetChangeThreshold &&
		current < GoodBand(feature)
	return sr
}

// Analyze buckets every feature by its classification.
func (e *Engine) Analyze(records []model.AnalysisRecord) model.TrendAnalysis {
	var ta model.TrendAnalysis
	for _, f := range model.AllFeatures {
		tw := e.Classify(records, f)
		switch tw.Classification {
		case model.TrendImproving:
			ta.Improving = append(ta.Improving, f)
		case model.TrendDeclining:
			ta.Declining = append(ta.Declining, f)
		case model.TrendStagnant:
			ta.Stagnant = append(ta.Stagnant, f)
		case model.TrendStable:
			ta.Stable = append(ta.Stable, f)
		}
	}
	return ta
}

// featureSeries extracts a feature's values from records that actually
// measured it, preserving newest-first order.
func featureSeries(records []model.AnalysisRecord, feature model.Feature) []float64 {
	var out []float64
	for _, r := range records {
		if v, ok := r.Features[feature]; ok {
			out = append(out, v)
		}
	}
	return out
}

func take(values []float64, offset, n int) []float64 {
	if offset >= len(values) {
		return nil
	}
	end := offset + n
	if end > len(values) {
		end = len(values)
	}
	return values[offset:end]
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}
