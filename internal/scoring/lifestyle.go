package scoring

import (
	"strings"

	"sleepface.app/engine/internal/model"
)

// Non-linear response tiers for reported habits. Contributions peak near
// the recommended range and flatten or penalize outside it rather than
// scaling linearly.
var sleepTiers = []struct {
	minHours float64
	score    float64
}{
	{minHours: 8.5, score: 100},
	{minHours: 7.5, score: 90},
	{minHours: 6.5, score: 70},
	{minHours: 5.5, score: 45},
	{minHours: 5.0, score: 25},
}

var waterTiers = []struct {
	minGlasses float64
	score      float64
}{
	{minGlasses: 10, score: 100},
	{minGlasses: 8, score: 90},
	{minGlasses: 6, score: 70},
	{minGlasses: 4, score: 45},
}

const neutralLifestyle = 50.0

// lifestyleScore maps routine input onto 0..100. Missing values
// contribute the neutral midpoint so an empty routine neither helps nor
// hurts.
func lifestyleScore(routine *model.RoutineInput) float64 {
	if routine == nil {
		return neutralLifestyle
	}

	sleep := neutralLifestyle
	if routine.SleepHours != nil {
		sleep = 0
		for _, t := range sleepTiers {
			if *routine.SleepHours >= t.minHours {
				sleep = t.score
				break
			}
		}
	}

	water := neutralLifestyle
	if routine.WaterIntake != nil {
		water = 25
		for _, t := range waterTiers {
			if *routine.WaterIntake >= t.minGlasses {
				water = t.score
				break
			}
		}
	}

	return 0.6*sleep + 0.4*water
}

// ingredientBonuses maps known beneficial skincare ingredients to their
// additive skin score bonus. Matching is substring-based against the
// logged product names.
var ingredientBonuses = []struct {
	ingredient string
	bonus      float64
}{
	{ingredient: "retinol", bonus: 20},
	{ingredient: "vitamin c", bonus: 15},
	{ingredient: "vitamin_c", bonus: 15},
	{ingredient: "sunscreen", bonus: 15},
	{ingredient: "spf", bonus: 15},
	{ingredient: "hyaluronic", bonus: 12},
	{ingredient: "niacinamide", bonus: 10},
	{ingredient: "peptide", bonus: 10},
	{ingredient: "aha", bonus: 8},
	{ingredient: "bha", bonus: 8},
	{ingredient: "azelaic", bonus: 8},
	{ingredient: "moisturizer", bonus: 6},
	{ingredient: "mask", bonus: 5},
	{ingredient: "toner", bonus: 4},
	{ingredient: "serum", bonus: 4},
	{ingredient: "cleanser", bonus: 3},
}

// ingredientBonus sums bonuses for logged products, counting each
// ingredient once and capping the total to prevent runaway inflation.
func ingredientBonus(routine *model.RoutineInput, limit float64) float64 {
	if routine == nil || len(routine.SkincareProducts) == 0 {
		return 0
	}

	seen := make(map[string]bool)
	total := 0.0
	for _, product := range routine.SkincareProducts {
		name := strings.ToLower(product)
		for _, entry := range ingredientBonuses {
			if seen[entry.ingredient] || !strings.Contains(name, entry.ingredient) {
				continue
			}
			seen[entry.ingredient] = true
			total += entry.bonus
		}
	}

	if limit > 0 && total > limit {
		total = limit
	}
	return total
}
