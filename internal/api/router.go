package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/config"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/handler"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/middleware"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, archiveSvc *service.ArchiveService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "OMCB Archive API is running",
		})
	})

	archiveHandler := handler.NewArchiveHandler(archiveSvc)
	jobHandler := handler.NewJobHandler(archiveSvc)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 时代与状态查询接口（状态重建要重放整天日志，需要限流）
		stateLimit := middleware.RateLimit(30, time.Minute)
		api.GET("/eras", archiveHandler.ListEras)
		api.GET("/state", stateLimit, archiveHandler.GetState)
		api.GET("/state/image", stateLimit, archiveHandler.GetStateImage)

		// 渲染任务接口
		jobs := api.Group("/jobs")
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/:id", jobHandler.GetJob)
			jobs.POST("", middleware.RequireAuth(cfg.JWTSecret), jobHandler.CreateJob)
		}
	}

	return r
}
