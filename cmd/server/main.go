package main

import (
	"log"

	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/api"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/config"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/database"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/locator"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/render"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/replay"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/repository"
	"github.com/nolenroyalty/one-million-checkboxes-data-scripts/internal/service"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	renderer := render.NewFFmpeg(cfg.FFmpeg)
	if err := renderer.Check(); err != nil {
		log.Fatal("ffmpeg is not usable:", err)
	}

	loc := locator.New(cfg.DataDir)
	driver := replay.New(loc, renderer)
	jobs := repository.NewJobRepository(database.GetDB())
	archiveSvc := service.NewArchiveService(driver, renderer, jobs)

	// 初始化路由
	router := api.SetupRouter(cfg, archiveSvc)

	// 启动服务器
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
