// @title 学习播放器 API
// @version 1.0
// @description 测验与课程播放器的后端服务。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"edu_player_backend/internal/app"
	"edu_player_backend/internal/config"
	"edu_player_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	watch := flag.Bool("watch", true, "配置文件变更时热更新")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	watchDir := ""
	if *watch {
		watchDir = *configDir
	}

	application, err := app.NewApp(cfg, watchDir)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer logger.Log.Sync()

	application.Run()
}
