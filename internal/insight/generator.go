package insight

import (
	"fmt"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/trend"
)

const (
	maxInsights        = 5
	maxRecommendations = 5
)

// trendCounts summarizes the classification buckets the summary rules
// evaluate against.
type trendCounts struct {
	improving int
	declining int
	stagnant  int
	stable    int
}

// summaryRule pairs a predicate over trend-state counts with its summary
// template. Rules are evaluated top-down; the first match wins.
type summaryRule struct {
	name    string
	matches func(c trendCounts) bool
	summary string
}

var summaryRules = []summaryRule{
	{
		name:    "outstanding",
		matches: func(c trendCounts) bool { return c.improving >= 4 && c.declining == 0 },
		summary: "Outstanding! Nearly everything is trending up. Whatever you're doing, it's working.",
	},
	{
		name:    "excellent",
		matches: func(c trendCounts) bool { return c.improving >= 3 && c.declining == 0 },
		summary: "Excellent progress! Multiple features are improving with nothing declining.",
	},
	{
		name:    "good",
		matches: func(c trendCounts) bool { return c.improving >= 2 && c.declining <= 1 },
		summary: "Good progress! More features are improving than declining.",
	},
	{
		name:    "stagnation",
		matches: func(c trendCounts) bool { return c.stagnant >= 3 },
		summary: "Several features have plateaued. Time to shake up your routine.",
	},
	{
		name:    "attention",
		matches: func(c trendCounts) bool { return c.declining >= 2 },
		summary: "A few features need attention. Small routine changes can turn this around.",
	},
	{
		name:    "steady",
		matches: func(c trendCounts) bool { return true },
		summary: "Steady progress. Consistency is the foundation of lasting results.",
	},
}

// Generator turns trend output into the daily summary, insights and
// recommendations. Everything is table-driven and deterministic.
type Generator struct {
	cfg    config.TrendConfig
	engine *trend.Engine
}

func NewGenerator(cfg config.TrendConfig, engine *trend.Engine) *Generator {
	return &Generator{cfg: cfg, engine: engine}
}

// Generate builds a SmartSummary from stored history (newest first) plus
// the current record. Fewer than two records produces the first-time
// baseline summary instead of trend narration.
func (g *Generator) Generate(records []model.AnalysisRecord, current *model.AnalysisRecord) *model.SmartSummary {
	if len(records) < 2 {
		return g.baseline(current)
	}

	analysis := g.engine.Analyze(records)
	counts := trendCounts{
		improving: len(analysis.Improving),
		declining: len(analysis.Declining),
		stagnant:  len(analysis.Stagnant),
		stable:    len(analysis.Stable),
	}

	summary := &model.SmartSummary{TrendAnalysis: analysis}
	for _, rule := range summaryRules {
		if rule.matches(counts) {
			summary.DailySummary = rule.summary
			break
		}
	}

	summary.KeyInsights = g.insights(records, analysis)
	summary.Recommendations = g.recommendations(records, analysis, current)
	return summary
}

// insights narrates each feature's movement, ordered by significance so
// the most meaningful changes surface first under the output cap.
func (g *Generator) insights(records []model.AnalysisRecord, analysis model.TrendAnalysis) []string {
	type ranked struct {
		text string
		rank int
	}
	var out []ranked

	for _, f := range model.AllFeatures {
		tw := g.engine.Classify(records, f)
		switch tw.Classification {
		case model.TrendImproving:
			out = append(out, ranked{
				text: fmt.Sprintf("%s improved by %.1f points over the last week.", f.DisplayName(), tw.Delta),
				rank: significanceRank(tw.Significance),
			})
		case model.TrendDeclining:
			out = append(out, ranked{
				text: fmt.Sprintf("%s dropped by %.1f points over the last week.", f.DisplayName(), -tw.Delta),
				rank: significanceRank(tw.Significance),
			})
		case model.TrendStagnant:
			if g.engine.DetectStagnation(records, f).IsStagnant {
				out = append(out, ranked{
					text: fmt.Sprintf("%s has been flat for a while and still has room to improve.", f.DisplayName()),
					rank: 1,
				})
			}
		}
	}

	sortByRank(out, func(r ranked) int { return r.rank })

	var texts []string
	for _, r := range out {
		texts = append(texts, r.text)
		if len(texts) == maxInsights {
			break
		}
	}
	return texts
}

func significanceRank(s model.TrendSignificance) int {
	switch s {
	case model.SignificanceSignificant:
		return 3
	case model.SignificanceModerate:
		return 2
	case model.SignificanceMinor:
		return 1
	}
	return 0
}

// sortByRank is a small insertion sort keeping equal-rank entries in
// their original (canonical feature) order.
func sortByRank[T any](items []T, rank func(T) int) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && rank(items[j]) > rank(items[j-1]); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
