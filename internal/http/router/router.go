package router

import (
	"github.com/gin-gonic/gin"
	"sleepface.app/engine/internal/http/handler"
	"sleepface.app/engine/internal/queue"
	"sleepface.app/engine/internal/service"
)

type RouterConfig struct {
	MediaDir string
}

func SetupRoutes(router *gin.Engine, services *service.Services, producer queue.Producer, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		analysisHandler := handler.NewAnalysisHandler(services.Analyses(), producer, cfg.MediaDir)
		AnalysisRouter(v1.Group(""), analysisHandler)

		historyHandler := handler.NewHistoryHandler(services.Histories(), services.Summaries())
		HistoryRouter(v1.Group("/users"), historyHandler)
	}
}
