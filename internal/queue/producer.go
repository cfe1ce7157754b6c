package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// AnalysisTask is one queued analysis job. The image is spooled to the
// media directory by the producer side; only its path rides the stream.
type AnalysisTask struct {
	TaskType    TaskType
	TaskID      string
	UserID      string
	Date        string
	ImagePath   string
	RoutineJSON string
	TraceID     *string
	Attempt     int
}

type Producer interface {
	Enqueue(ctx context.Context, task AnalysisTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, task AnalysisTask) error {
	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}
	taskType := task.TaskType
	if taskType == "" {
		taskType = TaskTypeAnalysisJob
	}

	fields := map[string]any{
		"task_type": string(taskType),
		"task_id":   task.TaskID,
		"user_id":   task.UserID,
		"attempt":   attempt,
	}
	if task.Date != "" {
		fields["date"] = task.Date
	}
	if task.ImagePath != "" {
		fields["image_path"] = task.ImagePath
	}
	if task.RoutineJSON != "" {
		fields["routine"] = task.RoutineJSON
	}
	if task.TraceID != nil && *task.TraceID != "" {
		fields["trace_id"] = *task.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued task", "task_id", task.TaskID, "task_type", taskType, "user_id", task.UserID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
