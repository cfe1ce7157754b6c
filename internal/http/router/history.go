package router

import (
	"github.com/gin-gonic/gin"
	"sleepface.app/engine/internal/http/handler"
)

func HistoryRouter(rg *gin.RouterGroup, h *handler.HistoryHandler) {
	rg.GET("/:user_id/history", h.History)
	rg.GET("/:user_id/summary", h.Summary)
	rg.GET("/:user_id/statistics", h.Statistics)
}
