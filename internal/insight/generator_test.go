package insight

import (
	"fmt"
	"strings"
	"testing"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/trend"
)

func testConfig() config.TrendConfig {
	return config.TrendConfig{
		WindowDays:         7,
		MinWindowPoints:    3,
		ImproveDelta:       2.0,
		DeclineDelta:       -2.0,
		StagnationBand:     0.5,
		StagnationDays:     14,
		VarianceThreshold:  2.0,
		NetChangeThreshold: 2.0,
		SignificantDelta:   5.0,
		ModerateDelta:      2.0,
	}
}

func newGenerator() *Generator {
	cfg := testConfig()
	return NewGenerator(cfg, trend.NewEngine(cfg))
}

// series builds 14 newest-first records from per-feature recent/previous
// window values.
func series(recent, previous map[model.Feature]float64) []model.AnalysisRecord {
	records := make([]model.AnalysisRecord, 14)
	for i := range records {
		source := previous
		if i < 7 {
			source = recent
		}
		features := make(map[model.Feature]float64, len(source))
		for f, v := range source {
			features[f] = v
		}
		records[i] = model.AnalysisRecord{
			UserID:   "u1",
			Date:     fmt.Sprintf("2026-08-%02d", 28-i),
			Features: features,
		}
	}
	return records
}

func uniform(v float64) map[model.Feature]float64 {
	out := make(map[model.Feature]float64, len(model.AllFeatures))
	for _, f := range model.AllFeatures {
		out[f] = v
	}
	return out
}

func TestGenerateBaseline(t *testing.T) {
	g := newGenerator()

	summary := g.Generate(nil, nil)
	if !summary.IsBaseline {
		t.Fatal("expected baseline summary with no history")
	}
	if !strings.Contains(summary.DailySummary, "first photo") {
		t.Errorf("unexpected welcome summary: %q", summary.DailySummary)
	}

	current := &model.AnalysisRecord{
		SleepScore:      75,
		SkinHealthScore: 71,
		Features:        uniform(73),
	}
	summary = g.Generate([]model.AnalysisRecord{*current}, current)
	if !summary.IsBaseline {
		t.Fatal("one record is still a baseline")
	}
	if !strings.Contains(summary.DailySummary, "Great starting point") {
		t.Errorf("unexpected strong-baseline summary: %q", summary.DailySummary)
	}
}

func TestGenerateBaselineRecommendsWeakFeatures(t *testing.T) {
	g := newGenerator()

	features := uniform(80)
	features[model.FeatureDarkCircles] = 40 // well below its good band
	current := &model.AnalysisRecord{
		SleepScore:      60,
		SkinHealthScore: 60,
		Features:        features,
	}

	summary := g.Generate([]model.AnalysisRecord{*current}, current)
	if len(summary.Recommendations) == 0 {
		t.Fatal("expected a recommendation for the weak feature")
	}
	if !strings.Contains(strings.Join(summary.Recommendations, " "), "dark circles") {
		t.Errorf("expected dark circle advice, got %v", summary.Recommendations)
	}
}

func TestGenerateSummaryRules(t *testing.T) {
	g := newGenerator()

	tests := []struct {
		name     string
		recent   map[model.Feature]float64
		previous map[model.Feature]float64
		want     string
	}{
		{
			name:     "everything improving",
			recent:   uniform(70),
			previous: uniform(60),
			want:     "Outstanding",
		},
		{
			name:     "widespread plateau",
			recent:   uniform(56.2),
			previous: uniform(56.0),
			want:     "plateaued",
		},
		{
			name:     "multiple declines",
			recent:   uniform(50),
			previous: uniform(56),
			want:     "need attention",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := g.Generate(series(tt.recent, tt.previous), nil)
			if !strings.Contains(summary.DailySummary, tt.want) {
				t.Errorf("DailySummary = %q, want substring %q", summary.DailySummary, tt.want)
			}
		})
	}
}

func TestGenerateSummaryRulePriority(t *testing.T) {
	g := newGenerator()

	// Three improving, three stagnant: the excellent rule outranks the
	// stagnation rule.
	recent := uniform(56.2)
	previous := uniform(56.0)
	for _, f := range []model.Feature{model.FeatureDarkCircles, model.FeaturePuffiness, model.FeatureBrightness} {
		recent[f] = 70
		previous[f] = 60
	}

	summary := g.Generate(series(recent, previous), nil)
	if !strings.Contains(summary.DailySummary, "Excellent") {
		t.Errorf("DailySummary = %q, want the excellent rule", summary.DailySummary)
	}
}

func TestStagnationProducesRemedy(t *testing.T) {
	g := newGenerator()

	// Dark circles oscillating ±0.4 around 56 for 14 days, everything
	// else healthy and flat above its good band
	records := make([]model.AnalysisRecord, 14)
	for i := range records {
		features := uniform(85)
		features[model.FeatureDarkCircles] = 56 + 0.4*float64(1-2*(i%2))
		records[i] = model.AnalysisRecord{
			UserID:   "u1",
			Date:     fmt.Sprintf("2026-08-%02d", 28-i),
			Features: features,
		}
	}

	summary := g.Generate(records, nil)

	joined := strings.Join(summary.Recommendations, " ")
	if !strings.Contains(joined, "vitamin K") {
		t.Errorf("expected the dark-circle stagnation remedy, got %v", summary.Recommendations)
	}
	if len(summary.KeyInsights) == 0 {
		t.Error("expected a stagnation insight")
	}
}

func TestInsightOrderingAndCap(t *testing.T) {
	g := newGenerator()

	// One significant improvement, one moderate decline, rest minor moves
	recent := uniform(60.8)
	previous := uniform(60.0)
	recent[model.FeatureBrightness] = 70 // +10, significant
	previous[model.FeatureBrightness] = 60
	recent[model.FeatureTexture] = 57 // -3, moderate
	previous[model.FeatureTexture] = 60

	summary := g.Generate(series(recent, previous), nil)

	if len(summary.KeyInsights) > maxInsights {
		t.Fatalf("insights over cap: %d", len(summary.KeyInsights))
	}
	if len(summary.KeyInsights) < 2 {
		t.Fatalf("expected at least the two strong movers, got %v", summary.KeyInsights)
	}
	if !strings.Contains(summary.KeyInsights[0], "Brightness") {
		t.Errorf("most significant change should lead: %v", summary.KeyInsights)
	}
}

func TestLifestyleRecommendations(t *testing.T) {
	g := newGenerator()

	current := &model.AnalysisRecord{
		Routine: &model.RoutineInput{
			SleepHours:  ptr(5.5),
			WaterIntake: ptr(3.0),
		},
	}
	// Flat series with nothing declining so lifestyle nudges surface
	summary := g.Generate(series(uniform(85.2), uniform(85.0)), current)

	joined := strings.Join(summary.Recommendations, " ")
	if !strings.Contains(joined, "hours of sleep") {
		t.Errorf("expected a sleep nudge, got %v", summary.Recommendations)
	}
	if !strings.Contains(joined, "water intake") {
		t.Errorf("expected a hydration nudge, got %v", summary.Recommendations)
	}
	if len(summary.Recommendations) > maxRecommendations {
		t.Errorf("recommendations over cap: %d", len(summary.Recommendations))
	}
}

func ptr[T any](v T) *T { return &v }
