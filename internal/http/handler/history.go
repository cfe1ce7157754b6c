package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sleepface.app/engine/internal/http/dto"
	"sleepface.app/engine/internal/service"
	"sleepface.app/engine/internal/store"
)

type HistoryHandler struct {
	histories service.HistoryService
	summaries service.SummaryService
}

func NewHistoryHandler(histories service.HistoryService, summaries service.SummaryService) *HistoryHandler {
	return &HistoryHandler{
		histories: histories,
		summaries: summaries,
	}
}

func (h *HistoryHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("user_id")

	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	records, err := h.histories.List(ctx, userID, days)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list history", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{
		UserID:  userID,
		Days:    days,
		Count:   len(records),
		Records: records,
	})
}

func (h *HistoryHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("user_id")

	summary, err := h.summaries.Generate(ctx, userID, nil)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no analyses found for user"})
			return
		}
		slog.ErrorContext(ctx, "failed to generate summary", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate summary"})
		return
	}

	c.JSON(http.StatusOK, dto.SummaryResponse{
		UserID:  userID,
		Summary: summary,
	})
}

func (h *HistoryHandler) Statistics(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("user_id")

	stats, err := h.histories.Statistics(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute statistics", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
