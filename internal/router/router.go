package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yoshilog/backend/config"
	"github.com/yoshilog/backend/internal/embed"
	"github.com/yoshilog/backend/internal/handler"
)

func Setup(
	cfg *config.Config,
	sessionHandler *handler.SessionHandler,
	streamHandler *handler.StreamHandler,
	recordHandler *handler.RecordHandler,
	procedureHandler *handler.ProcedureHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.MaxMultipartMemory = cfg.Workflow.MaxUploadBytes

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// WebSocket 升级与 promhttp 自带压缩，排除在外
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/session/ws", "/metrics"})))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "demo_mode": cfg.DemoMode()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		session := api.Group("/session")
		{
			session.GET("", sessionHandler.Get)
			session.GET("/logs", sessionHandler.Logs)
			session.GET("/ws", streamHandler.Serve)
			session.POST("/sample", sessionHandler.LoadSample)
			session.POST("/upload", sessionHandler.Upload)
			session.POST("/start", sessionHandler.Start)
			session.POST("/yoshi", sessionHandler.Yoshi)
			session.POST("/demo-ok", sessionHandler.DemoOK)
			session.POST("/restart", sessionHandler.Restart)
		}

		records := api.Group("/records")
		{
			records.GET("", recordHandler.List)
			records.GET("/:id", recordHandler.Get)
		}

		api.GET("/procedures/sample", procedureHandler.Sample)
	}

	// 必须在API路由之后设置，确保API请求优先匹配
	embed.SetupRouter(r)

	return r
}
