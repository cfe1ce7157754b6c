package scoring

// funLabels is the ordered score-band table, most specific (highest) first.
var funLabels = []struct {
	minAvg float64
	label  string
}{
	{minAvg: 80, label: "Glow Queen 👑"},
	{minAvg: 70, label: "Glow Up 🌟"},
	{minAvg: 50, label: "Getting There 💪"},
	{minAvg: 30, label: "Needs Care ⚠️"},
}

const fallbackLabel = "Focus Time 🎯"

// FunLabel picks the label for the average of the two composite scores.
func FunLabel(avg float64) string {
	for _, entry := range funLabels {
		if avg >= entry.minAvg {
			return entry.label
		}
	}
	return fallbackLabel
}
