package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sleepface.app/engine/common/logger"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/queue"
	"sleepface.app/engine/internal/service"
)

// Processor executes queued tasks against the analysis services. Images
// are spooled to the media directory by the API server; the processor
// reads them by the relative path carried on the message and removes
// them once the analysis is committed.
type Processor struct {
	analyses  service.AnalysisService
	histories service.HistoryService
	mediaDir  string
}

func NewProcessor(analyses service.AnalysisService, histories service.HistoryService, mediaDir string) *Processor {
	return &Processor{
		analyses:  analyses,
		histories: histories,
		mediaDir:  mediaDir,
	}
}

func (p *Processor) Process(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		TaskID:    logger.Ptr(msg.TaskID),
		UserID:    logger.Ptr(msg.UserID),
		Component: "engine.worker.processor",
	})

	switch msg.TaskType {
	case queue.TaskTypeAnalysisJob:
		return p.processAnalysis(ctx, msg)
	case queue.TaskTypeHistoryCleanup:
		return p.processCleanup(ctx, msg)
	default:
		return fmt.Errorf("unsupported task_type %q", msg.TaskType)
	}
}

func (p *Processor) processAnalysis(ctx context.Context, msg queue.Message) error {
	path, err := p.mediaPath(msg.ImagePath)
	if err != nil {
		return err
	}

	imageData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading spooled image: %w", err)
	}

	var routine *model.RoutineInput
	if msg.RoutineJSON != "" {
		routine = &model.RoutineInput{}
		if err := json.Unmarshal([]byte(msg.RoutineJSON), routine); err != nil {
			return fmt.Errorf("parsing routine: %w", err)
		}
	}

	result, err := p.analyses.Analyze(ctx, service.AnalyzeParams{
		UserID:    msg.UserID,
		Date:      msg.Date,
		ImageData: imageData,
		Routine:   routine,
	})
	if err != nil {
		return fmt.Errorf("running analysis: %w", err)
	}

	// Best effort: the record is committed, a leftover spool file is
	// only disk noise.
	if err := os.Remove(path); err != nil {
		slog.WarnContext(ctx, "failed to remove spooled image", "path", path, "error", err)
	}

	slog.InfoContext(ctx, "analysis task completed",
		"analysis_id", result.Record.ID,
		"date", result.Record.Date,
		"sleep_score", result.Record.SleepScore,
		"skin_health_score", result.Record.SkinHealthScore)
	return nil
}

func (p *Processor) processCleanup(ctx context.Context, msg queue.Message) error {
	deleted, err := p.histories.Cleanup(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("running cleanup: %w", err)
	}

	slog.InfoContext(ctx, "cleanup task completed", "deleted", deleted)
	return nil
}

// mediaPath resolves a message's relative image path inside the media
// directory, rejecting anything that escapes it.
func (p *Processor) mediaPath(rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("missing image path")
	}
	path := filepath.Join(p.mediaDir, filepath.Clean("/"+rel))
	if !strings.HasPrefix(path, filepath.Clean(p.mediaDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("image path %q escapes media dir", rel)
	}
	return path, nil
}
