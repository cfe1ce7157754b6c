package service

import (
	"context"
	"fmt"
	"time"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/store"
)

// HistoryService exposes stored analysis history, per-user statistics
// and retention cleanup.
type HistoryService interface {
	List(ctx context.Context, userID string, days int) ([]model.AnalysisRecord, error)
	Statistics(ctx context.Context, userID string) (*model.UserStatistics, error)
	Cleanup(ctx context.Context, userID string) (int64, error)
}

type historyService struct {
	cfg      config.TrendConfig
	analyses store.AnalysisStore
}

func NewHistoryService(cfg config.TrendConfig, analyses store.AnalysisStore) HistoryService {
	return &historyService{cfg: cfg, analyses: analyses}
}

func (s *historyService) List(ctx context.Context, userID string, days int) ([]model.AnalysisRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if days <= 0 {
		days = s.cfg.HistoryDefaultDays
	}

	records, err := s.analyses.ListRecent(ctx, userID, days)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return records, nil
}

func (s *historyService) Statistics(ctx context.Context, userID string) (*model.UserStatistics, error) {
	records, err := s.List(ctx, userID, s.cfg.HistoryRetainDays)
	if err != nil {
		return nil, err
	}

	stats := &model.UserStatistics{
		UserID:          userID,
		TotalAnalyses:   len(records),
		RecentDirection: "steady",
	}
	if len(records) == 0 {
		return stats, nil
	}

	// Records are newest first
	stats.LastDate = &records[0].Date
	stats.FirstDate = &records[len(records)-1].Date

	var sleepSum, skinSum float64
	for _, r := range records {
		sleepSum += float64(r.SleepScore)
		skinSum += float64(r.SkinHealthScore)
		if r.SleepScore > stats.BestSleepScore {
			stats.BestSleepScore = r.SleepScore
		}
		if r.SkinHealthScore > stats.BestSkinScore {
			stats.BestSkinScore = r.SkinHealthScore
		}
	}
	stats.AvgSleepScore = sleepSum / float64(len(records))
	stats.AvgSkinScore = skinSum / float64(len(records))
	stats.RecentDirection = recentDirection(records)

	return stats, nil
}

// Cleanup removes records older than the retention window.
func (s *historyService) Cleanup(ctx context.Context, userID string) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.HistoryRetainDays)
	deleted, err := s.analyses.DeleteOlderThan(ctx, userID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning history: %w", err)
	}
	return deleted, nil
}

// recentDirection compares the newest records' combined score against
// the few before them.
func recentDirection(records []model.AnalysisRecord) string {
	if len(records) < 4 {
		return "steady"
	}

	combined := func(r model.AnalysisRecord) float64 {
		return float64(r.SleepScore+r.SkinHealthScore) / 2
	}

	recent := (combined(records[0]) + combined(records[1])) / 2
	previous := (combined(records[2]) + combined(records[3])) / 2

	switch {
	case recent-previous >= 2:
		return "improving"
	case previous-recent >= 2:
		return "declining"
	default:
		return "steady"
	}
}
