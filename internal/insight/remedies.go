package insight

import (
	"fmt"

	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/trend"
)

// remedies maps each feature to its targeted suggestions, keyed by
// whether the feature is declining or stagnating.
var remedies = map[model.Feature]struct {
	declining string
	stagnant  string
}{
	model.FeatureDarkCircles: {
		declining: "Try a caffeine eye cream and prioritize consistent sleep for your dark circles.",
		stagnant:  "A vitamin K serum and cold compresses may help move your dark circles forward.",
	},
	model.FeaturePuffiness: {
		declining: "Sleep with your head slightly elevated and cut back on evening sodium to reduce puffiness.",
		stagnant:  "A jade roller or lymphatic massage in the morning can help with persistent puffiness.",
	},
	model.FeatureBrightness: {
		declining: "A vitamin C serum in the morning can help restore your skin's brightness.",
		stagnant:  "Gentle weekly exfoliation can break a brightness plateau.",
	},
	model.FeatureWrinkles: {
		declining: "Consider introducing retinol at night to address fine lines.",
		stagnant:  "A peptide serum alongside daily sunscreen can help with stubborn fine lines.",
	},
	model.FeatureTexture: {
		declining: "An AHA or BHA exfoliant a few times a week can smooth skin texture.",
		stagnant:  "Hyaluronic acid for hydration plus mild exfoliation can improve persistent texture.",
	},
	model.FeaturePoreSize: {
		declining: "Niacinamide can help tighten the appearance of pores.",
		stagnant:  "A salicylic acid cleanser keeps pores clear when they've stopped improving.",
	},
}

// Lifestyle recommendation thresholds
const (
	lowSleepHours = 7.0
	lowWaterCount = 6.0
)

// recommendations builds the capped, significance-ordered remedy list:
// feature remedies for declining and stagnant features first, then
// lifestyle nudges from the routine snapshot.
func (g *Generator) recommendations(records []model.AnalysisRecord, analysis model.TrendAnalysis, current *model.AnalysisRecord) []string {
	type ranked struct {
		text string
		rank int
	}
	var out []ranked

	for _, f := range analysis.Declining {
		tw := g.engine.Classify(records, f)
		if r, ok := remedies[f]; ok {
			out = append(out, ranked{text: r.declining, rank: significanceRank(tw.Significance) + 1})
		}
	}
	for _, f := range analysis.Stagnant {
		if !g.engine.DetectStagnation(records, f).IsStagnant {
			continue
		}
		if r, ok := remedies[f]; ok {
			out = append(out, ranked{text: r.stagnant, rank: 1})
		}
	}

	if current != nil && current.Routine != nil {
		routine := current.Routine
		if routine.SleepHours != nil && *routine.SleepHours < lowSleepHours {
			out = append(out, ranked{
				text: fmt.Sprintf("You logged %.1f hours of sleep; aiming for 7-9 hours would help most features.", *routine.SleepHours),
				rank: 2,
			})
		}
		if routine.WaterIntake != nil && *routine.WaterIntake < lowWaterCount {
			out = append(out, ranked{
				text: "Your water intake is on the low side; hydration shows up quickly in skin brightness.",
				rank: 1,
			})
		}
	}

	sortByRank(out, func(r ranked) int { return r.rank })

	var texts []string
	for _, r := range out {
		texts = append(texts, r.text)
		if len(texts) == maxRecommendations {
			break
		}
	}
	return texts
}

// baseline is the first-time path: with under two stored records there is
// no trend to narrate, so the summary keys off today's score bands.
func (g *Generator) baseline(current *model.AnalysisRecord) *model.SmartSummary {
	summary := &model.SmartSummary{IsBaseline: true}
	if current == nil {
		summary.DailySummary = "Welcome! Take your first photo to start tracking your progress."
		return summary
	}

	avg := float64(current.SleepScore+current.SkinHealthScore) / 2
	switch {
	case avg >= 70:
		summary.DailySummary = "Great starting point! Your baseline scores are strong; now we can track what keeps them there."
	case avg >= 50:
		summary.DailySummary = "Solid baseline recorded. Check in daily and trends will appear within a week."
	default:
		summary.DailySummary = "Baseline recorded. Daily photos plus small routine changes tend to show progress within two weeks."
	}

	for _, f := range model.AllFeatures {
		score, ok := current.Features[f]
		if !ok {
			continue
		}
		if score < trend.GoodBand(f)-20 {
			if r, hasRemedy := remedies[f]; hasRemedy {
				summary.Recommendations = append(summary.Recommendations, r.stagnant)
			}
		}
		if len(summary.Recommendations) == maxRecommendations {
			break
		}
	}
	return summary
}
