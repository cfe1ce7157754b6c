package dto

import (
	"sleepface.app/engine/internal/model"
)

type AnalyzeResponse struct {
	Record  *model.AnalysisRecord `json:"record"`
	Summary *model.SmartSummary   `json:"summary,omitempty"`
}

type AnalyzeAsyncResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type HistoryResponse struct {
	UserID  string                 `json:"user_id"`
	Days    int                    `json:"days"`
	Count   int                    `json:"count"`
	Records []model.AnalysisRecord `json:"records"`
}

type SummaryResponse struct {
	UserID  string              `json:"user_id"`
	Summary *model.SmartSummary `json:"summary"`
}
