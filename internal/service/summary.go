package service

import (
	"context"
	"errors"
	"fmt"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/insight"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/store"
)

// SummaryService builds the trend-aware smart summary for a user.
// Reads run over already-committed history and accept eventual
// consistency with concurrent writes.
type SummaryService interface {
	// Generate builds a summary with current as today's record. A nil
	// current uses the latest stored record instead.
	Generate(ctx context.Context, userID string, current *model.AnalysisRecord) (*model.SmartSummary, error)
}

type summaryService struct {
	cfg       config.TrendConfig
	analyses  store.AnalysisStore
	generator *insight.Generator
}

func NewSummaryService(cfg config.TrendConfig, analyses store.AnalysisStore, generator *insight.Generator) SummaryService {
	return &summaryService{
		cfg:       cfg,
		analyses:  analyses,
		generator: generator,
	}
}

func (s *summaryService) Generate(ctx context.Context, userID string, current *model.AnalysisRecord) (*model.SmartSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	days := s.cfg.StagnationDays
	if w := 2 * s.cfg.WindowDays; w > days {
		days = w
	}

	records, err := s.analyses.ListRecent(ctx, userID, days)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	// Fold the current record into the series when it isn't stored yet
	if current != nil {
		found := false
		for i := range records {
			if records[i].Date == current.Date {
				records[i] = *current
				found = true
				break
			}
		}
		if !found {
			records = append([]model.AnalysisRecord{*current}, records...)
		}
	} else if len(records) > 0 {
		current = &records[0]
	}

	return s.generator.Generate(records, current), nil
}
