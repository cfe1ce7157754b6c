package model

import "time"

// RoutineInput is the user-reported daily habit snapshot supplied with an
// analysis. Everything is optional; missing values fall back to neutral
// contributions in the composite scorer.
type RoutineInput struct {
	SleepHours       *float64 `json:"sleep_hours,omitempty"`
	WaterIntake      *float64 `json:"water_intake,omitempty"`
	SkincareProducts []string `json:"skincare_products,omitempty"`
	DailyNote        *string  `json:"daily_note,omitempty"`
}

// AnalysisRecord is one day's full result for a user. Exactly one record
// exists per (user_id, date); same-day resubmission replaces it.
type AnalysisRecord struct {
	ID              int64   `json:"id"`
	UserID          string  `json:"user_id"`
	Date            string  `json:"date"` // calendar day, YYYY-MM-DD
	SleepScore      int     `json:"sleep_score"`
	SkinHealthScore int     `json:"skin_health_score"`

	// Features keeps float precision for trend math; the integer composite
	// scores above are the rounded presentation values.
	Features          map[Feature]float64 `json:"features"`
	FeatureConfidence map[Feature]float64 `json:"feature_confidence,omitempty"`

	Confidence    float64       `json:"confidence"`
	LowConfidence bool          `json:"low_confidence,omitempty"`
	QualityHints  []string      `json:"quality_hints,omitempty"`
	FunLabel      string        `json:"fun_label"`
	Routine       *RoutineInput `json:"routine,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateOf formats a time as the calendar-day key used across the engine.
func DateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// UserStatistics summarizes a user's stored history.
type UserStatistics struct {
	UserID        string  `json:"user_id"`
	TotalAnalyses int     `json:"total_analyses"`
	FirstDate     *string `json:"first_date,omitempty"`
	LastDate      *string `json:"last_date,omitempty"`

	AvgSleepScore  float64 `json:"avg_sleep_score"`
	AvgSkinScore   float64 `json:"avg_skin_score"`
	BestSleepScore int     `json:"best_sleep_score"`
	BestSkinScore  int     `json:"best_skin_score"`

	// Direction over the last few records: "improving", "declining" or "steady".
	RecentDirection string `json:"recent_direction"`
}
