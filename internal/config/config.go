package config

import (
	"os"
)

// Config 应用配置
type Config struct {
	Port      string
	DataDir   string // 快照和日志数据根目录
	DBPath    string
	JWTSecret string
	FFmpeg    string // ffmpeg 可执行文件路径
}

// Load 加载配置
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dataDir := os.Getenv("OMCB_DATA_DIR")
	if dataDir == "" {
		dataDir = "./omcb-data"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/jobs.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	ffmpeg := os.Getenv("FFMPEG_PATH")
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}

	return &Config{
		Port:      port,
		DataDir:   dataDir,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
		FFmpeg:    ffmpeg,
	}
}
