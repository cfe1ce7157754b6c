package worker

import (
	"context"
	"log/slog"

	"sleepface.app/engine/internal/queue"
)

// MockProcessor is a no-op processor for testing and initial deployment.
// It logs tasks but performs no analysis.
type MockProcessor struct{}

// NewMockProcessor creates a new stub processor.
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{}
}

// Process logs the task and returns without doing work.
func (p *MockProcessor) Process(ctx context.Context, msg queue.Message) error {
	slog.InfoContext(ctx, "mock processor: processing task",
		"task_id", msg.TaskID,
		"task_type", msg.TaskType,
		"user_id", msg.UserID,
		"date", msg.Date,
		"attempt", msg.Attempt)
	return nil
}
