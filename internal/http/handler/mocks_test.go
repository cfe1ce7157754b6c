package handler_test

import (
	"context"

	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/queue"
	"sleepface.app/engine/internal/service"
)

type mockAnalysisService struct {
	analyzeFn func(ctx context.Context, params service.AnalyzeParams) (*service.AnalyzeResult, error)
}

func (m *mockAnalysisService) Analyze(ctx context.Context, params service.AnalyzeParams) (*service.AnalyzeResult, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, params)
	}
	return &service.AnalyzeResult{}, nil
}

type mockHistoryService struct {
	listFn       func(ctx context.Context, userID string, days int) ([]model.AnalysisRecord, error)
	statisticsFn func(ctx context.Context, userID string) (*model.UserStatistics, error)
	cleanupFn    func(ctx context.Context, userID string) (int64, error)
}

func (m *mockHistoryService) List(ctx context.Context, userID string, days int) ([]model.AnalysisRecord, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, days)
	}
	return nil, nil
}

func (m *mockHistoryService) Statistics(ctx context.Context, userID string) (*model.UserStatistics, error) {
	if m.statisticsFn != nil {
		return m.statisticsFn(ctx, userID)
	}
	return &model.UserStatistics{UserID: userID}, nil
}

func (m *mockHistoryService) Cleanup(ctx context.Context, userID string) (int64, error) {
	if m.cleanupFn != nil {
		return m.cleanupFn(ctx, userID)
	}
	return 0, nil
}

type mockSummaryService struct {
	generateFn func(ctx context.Context, userID string, current *model.AnalysisRecord) (*model.SmartSummary, error)
}

func (m *mockSummaryService) Generate(ctx context.Context, userID string, current *model.AnalysisRecord) (*model.SmartSummary, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, userID, current)
	}
	return &model.SmartSummary{}, nil
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, task queue.AnalysisTask) error
	tasks     []queue.AnalysisTask
}

func (m *mockProducer) Enqueue(ctx context.Context, task queue.AnalysisTask) error {
	m.tasks = append(m.tasks, task)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, task)
	}
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}
