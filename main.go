// @title Lingua 后端 API
// @version 1.0
// @description 自适应西班牙语课程的后端服务器。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"lingua_backend/internal/app"
	"lingua_backend/internal/config"
	"log"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "config.yaml 所在目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app.NewApp(cfg).Run()
}
