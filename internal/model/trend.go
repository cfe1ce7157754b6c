package model

type TrendClassification string

type TrendSignificance string

const (
	TrendImproving        TrendClassification = "improving"
	TrendDeclining        TrendClassification = "declining"
	TrendStagnant         TrendClassification = "stagnant"
	TrendStable           TrendClassification = "stable"
	TrendInsufficientData TrendClassification = "insufficient_data"
)

const (
	SignificanceSignificant TrendSignificance = "significant"
	SignificanceModerate    TrendSignificance = "moderate"
	SignificanceMinor       TrendSignificance = "minor"
	SignificanceNone        TrendSignificance = "none"
)

func (c TrendClassification) IsValid() bool {
	switch c {
	case TrendImproving, TrendDeclining, TrendStagnant, TrendStable, TrendInsufficientData:
		return true
	}
	return false
}

// TrendWindow compares two adjacent multi-day periods for one feature.
// Derived on demand from stored history; never persisted.
type TrendWindow struct {
	Feature        Feature             `json:"feature"`
	RecentMean     float64             `json:"recent_mean"`
	PreviousMean   float64             `json:"previous_mean"`
	Delta          float64             `json:"delta"`
	PctChange      *float64            `json:"pct_change,omitempty"` // nil when previous mean is zero
	Classification TrendClassification `json:"classification"`
	Significance   TrendSignificance   `json:"significance"`
	RecentPoints   int                 `json:"recent_points"`
	PreviousPoints int                 `json:"previous_points"`
}

// StagnationRecord flags a feature that has stayed flat below its good
// band over an extended window.
type StagnationRecord struct {
	Feature    Feature `json:"feature"`
	WindowDays int     `json:"window_days"`
	Variance   float64 `json:"variance"`
	NetChange  float64 `json:"net_change"`
	IsStagnant bool    `json:"is_stagnant"`
}

// TrendAnalysis buckets features by their current classification.
type TrendAnalysis struct {
	Improving []Feature `json:"improving_features"`
	Declining []Feature `json:"declining_features"`
	Stagnant  []Feature `json:"stagnant_features"`
	Stable    []Feature `json:"stable_features"`
}

// SmartSummary is the generated narrative output. Computed fresh on each
// request; AnalysisRecord remains the system of record.
type SmartSummary struct {
	DailySummary    string        `json:"daily_summary"`
	KeyInsights     []string      `json:"key_insights"`
	Recommendations []string      `json:"recommendations"`
	TrendAnalysis   TrendAnalysis `json:"trend_analysis"`
	IsBaseline      bool          `json:"is_baseline,omitempty"`
}
