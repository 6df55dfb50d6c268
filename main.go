package main

import (
	"github.com/fasthttp/router"
	"github.com/joho/godotenv"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"uxpulse/internal/analytics"
	"uxpulse/internal/config"
	"uxpulse/internal/db"
	"uxpulse/internal/http/handlers"
	appmw "uxpulse/internal/http/middleware"
	"uxpulse/internal/logging"
	"uxpulse/internal/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logging.Init()
	defer logging.Sync()

	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	metrics.Init()
	analytics.StartRuleWorker(gdb, cfg)
	db.StartRetentionWorker(gdb, cfg.RetentionDays)

	r := router.New()

	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"ok":true}`)
	})
	r.GET("/metrics", handlers.PrometheusMetrics())

	r.POST("/v1/events/batch", appmw.IngestAuth(cfg)(handlers.IngestEvents(gdb)))
	r.GET("/v1/events/recent", handlers.RecentEvents(gdb))

	r.GET("/v1/issues", handlers.ListIssues(gdb))
	r.GET("/v1/issues/analyze", handlers.AnalyzeIssues(gdb, cfg))
	r.GET("/v1/issues/{key}", handlers.GetIssue(gdb))
	r.GET("/v1/recommendations", handlers.ListRecommendations(gdb))

	r.GET("/v1/screens/{name}/metrics", handlers.ScreenMetrics(gdb))
	r.POST("/v1/link-code", handlers.LinkCode(gdb))

	handler := appmw.RequestLogger(appmw.RequestMetrics(appmw.CORS(r.Handler)))

	log.Info("uxpulse listening", zap.String("addr", cfg.ListenAddr))
	if err := fasthttp.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
