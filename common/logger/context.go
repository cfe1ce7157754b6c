package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, enabling zero-touch logging where business
// context (user_id, analysis_date, etc.) is automatically included in all log statements.
type LogFields struct {
	UserID       *string // User the analysis belongs to
	AnalysisID   *int64  // Analysis record ID
	AnalysisDate *string // Calendar day of the analysis (YYYY-MM-DD)
	TaskID       *string // Queued task ID
	MessageID    *string // Redis stream message ID
	Feature      *string // Feature under measurement (e.g., "dark_circles")
	Component    string  // Component name (OTel semantic convention style, e.g., "engine.vision.wrinkles")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
// Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

// mergeFields merges two LogFields, preferring non-nil/non-empty values from 'new'.
func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.UserID != nil {
		result.UserID = new.UserID
	}
	if new.AnalysisID != nil {
		result.AnalysisID = new.AnalysisID
	}
	if new.AnalysisDate != nil {
		result.AnalysisDate = new.AnalysisDate
	}
	if new.TaskID != nil {
		result.TaskID = new.TaskID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Feature != nil {
		result.Feature = new.Feature
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like notes or error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
