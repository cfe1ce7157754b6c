package router

import (
	"github.com/gin-gonic/gin"
	"sleepface.app/engine/internal/http/handler"
)

func AnalysisRouter(rg *gin.RouterGroup, h *handler.AnalysisHandler) {
	rg.POST("/analyze", h.Analyze)
	rg.POST("/analyze/async", h.AnalyzeAsync)
}
