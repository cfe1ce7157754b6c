package service

import (
	"log/slog"

	"sleepface.app/engine/core/config"
	"sleepface.app/engine/internal/insight"
	"sleepface.app/engine/internal/landmark"
	"sleepface.app/engine/internal/store"
	"sleepface.app/engine/internal/trend"
)

type Services struct {
	cfg       config.Config
	stores    *store.Stores
	landmarks landmark.Detector
	logger    *slog.Logger
}

func NewServices(cfg config.Config, stores *store.Stores, landmarks landmark.Detector, logger *slog.Logger) *Services {
	if landmarks == nil {
		landmarks = landmark.NewGeometricDetector()
	}
	return &Services{
		cfg:       cfg,
		stores:    stores,
		landmarks: landmarks,
		logger:    logger,
	}
}

func (s *Services) Analyses() AnalysisService {
	return NewAnalysisService(s.cfg.Analysis, s.landmarks, s.stores, s.Summaries(), s.logger)
}

func (s *Services) Summaries() SummaryService {
	engine := trend.NewEngine(s.cfg.Trend)
	generator := insight.NewGenerator(s.cfg.Trend, engine)
	return NewSummaryService(s.cfg.Trend, s.stores.Analyses(), generator)
}

func (s *Services) Histories() HistoryService {
	return NewHistoryService(s.cfg.Trend, s.stores.Analyses())
}
