package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"sleepface.app/engine/common/id"
	"sleepface.app/engine/internal/http/dto"
	"sleepface.app/engine/internal/model"
	"sleepface.app/engine/internal/queue"
	"sleepface.app/engine/internal/service"
	"sleepface.app/engine/internal/store"
)

// maxImageBytes caps multipart image uploads.
const maxImageBytes = 15 << 20

type AnalysisHandler struct {
	service  service.AnalysisService
	producer queue.Producer
	mediaDir string
}

func NewAnalysisHandler(service service.AnalysisService, producer queue.Producer, mediaDir string) *AnalysisHandler {
	return &AnalysisHandler{
		service:  service,
		producer: producer,
		mediaDir: mediaDir,
	}
}

// Analyze runs the full pipeline synchronously and returns the committed
// record with its smart summary.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	userID, date, imageData, routine, ok := h.bindAnalyzeForm(c)
	if !ok {
		return
	}

	result, err := h.service.Analyze(ctx, service.AnalyzeParams{
		UserID:    userID,
		Date:      date,
		ImageData: imageData,
		Routine:   routine,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFaceDetected):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no face detected in image"})
		case errors.Is(err, service.ErrInvalidImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported or corrupt image"})
		case errors.Is(err, store.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "an analysis for this user and date is already in progress"})
		case errors.Is(err, service.ErrAnalysisTimeout):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "analysis exceeded its time budget"})
		default:
			slog.ErrorContext(ctx, "analysis failed", "error", err, "user_id", userID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.AnalyzeResponse{
		Record:  result.Record,
		Summary: result.Summary,
	})
}

// AnalyzeAsync spools the image to the media directory and enqueues an
// analysis task for the worker.
func (h *AnalysisHandler) AnalyzeAsync(c *gin.Context) {
	ctx := c.Request.Context()

	userID, date, imageData, routine, ok := h.bindAnalyzeForm(c)
	if !ok {
		return
	}

	taskID := strconv.FormatInt(id.New(), 10)
	imagePath := taskID + ".img"
	if err := os.WriteFile(filepath.Join(h.mediaDir, imagePath), imageData, 0o600); err != nil {
		slog.ErrorContext(ctx, "failed to spool image", "error", err, "task_id", taskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept image"})
		return
	}

	var routineJSON string
	if routine != nil {
		raw, err := json.Marshal(routine)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid routine"})
			return
		}
		routineJSON = string(raw)
	}

	task := queue.AnalysisTask{
		TaskType:    queue.TaskTypeAnalysisJob,
		TaskID:      taskID,
		UserID:      userID,
		Date:        date,
		ImagePath:   imagePath,
		RoutineJSON: routineJSON,
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		traceID := spanCtx.TraceID().String()
		task.TraceID = &traceID
	}

	if err := h.producer.Enqueue(ctx, task); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue analysis task", "error", err, "task_id", taskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue analysis"})
		return
	}

	c.JSON(http.StatusAccepted, dto.AnalyzeAsyncResponse{
		TaskID: taskID,
		Status: "queued",
	})
}

// bindAnalyzeForm pulls the shared multipart fields out of an analyze
// request. On failure it writes the error response and returns ok=false.
func (h *AnalysisHandler) bindAnalyzeForm(c *gin.Context) (userID, date string, imageData []byte, routine *model.RoutineInput, ok bool) {
	ctx := c.Request.Context()

	userID = c.PostForm("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return "", "", nil, nil, false
	}
	date = c.PostForm("date")

	fileHeader, err := c.FormFile("image")
	if err != nil {
		slog.WarnContext(ctx, "missing image part", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return "", "", nil, nil, false
	}
	if fileHeader.Size > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", maxImageBytes)})
		return "", "", nil, nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image file"})
		return "", "", nil, nil, false
	}
	defer file.Close()

	imageData, err = io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil || len(imageData) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image file"})
		return "", "", nil, nil, false
	}
	if len(imageData) > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("image exceeds %d bytes", maxImageBytes)})
		return "", "", nil, nil, false
	}

	if raw := c.PostForm("routine"); raw != "" {
		routine = &model.RoutineInput{}
		if err := json.Unmarshal([]byte(raw), routine); err != nil {
			slog.WarnContext(ctx, "invalid routine payload", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "routine must be valid JSON"})
			return "", "", nil, nil, false
		}
	}

	return userID, date, imageData, routine, true
}
