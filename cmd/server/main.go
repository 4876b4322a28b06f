package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/eventbus"
	"github.com/yoshilog/backend/internal/handler"
	"github.com/yoshilog/backend/internal/metrics"
	"github.com/yoshilog/backend/internal/pkg/database"
	"github.com/yoshilog/backend/internal/pkg/llm"
	"github.com/yoshilog/backend/internal/repository"
	"github.com/yoshilog/backend/internal/router"
	"github.com/yoshilog/backend/internal/service/parser"
	"github.com/yoshilog/backend/internal/service/speech"
	"github.com/yoshilog/backend/internal/service/validator"
	"github.com/yoshilog/backend/internal/service/workflow"
)

func main() {
	// 初始化 klog
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("服务启动中...")

	cfg := config.GetConfig()

	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	if cfg.Database.Type != "mysql" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
	}

	// 初始化数据库
	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	metrics.Init()

	// 初始化模型网关，未配置 API Key 时进入演示模式
	gateway, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize model gateway: %v", err)
	}
	if cfg.DemoMode() {
		klog.Warningf("LLAMA_API_KEY 未设置，解析与判定将返回演示结果")
	}

	// 初始化 Repository
	recordRepo := repository.NewWorkRecordRepository(db)

	// 初始化 Service
	bus := eventbus.NewSessionEventBus()
	announcer := speech.NewAnnouncer(bus)
	parserService := parser.New(cfg, gateway)
	validatorService := validator.New(cfg, gateway)
	coordinator := workflow.NewCoordinator(cfg, parserService, validatorService, announcer, recordRepo, bus)

	// 初始化 Handler
	sessionHandler := handler.NewSessionHandler(cfg, coordinator)
	streamHandler := handler.NewStreamHandler(coordinator, bus)
	recordHandler := handler.NewRecordHandler(recordRepo)
	procedureHandler := handler.NewProcedureHandler()

	// 设置路由
	r := router.Setup(cfg, sessionHandler, streamHandler, recordHandler, procedureHandler)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
