package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/jengzang/urban-twin-go/internal/analysis"
	"github.com/jengzang/urban-twin-go/internal/aoi"
	"github.com/jengzang/urban-twin-go/internal/api"
	"github.com/jengzang/urban-twin-go/internal/config"
	"github.com/jengzang/urban-twin-go/internal/database"
	"github.com/jengzang/urban-twin-go/internal/handler"
	"github.com/jengzang/urban-twin-go/internal/heatmap"
	"github.com/jengzang/urban-twin-go/internal/logging"
	"github.com/jengzang/urban-twin-go/internal/metrics"
	"github.com/jengzang/urban-twin-go/internal/middleware"
	"github.com/jengzang/urban-twin-go/internal/progress"
	"github.com/jengzang/urban-twin-go/internal/repository"
	"github.com/jengzang/urban-twin-go/internal/service"
	"github.com/jengzang/urban-twin-go/internal/weather"

	// Import analyzer packages to register them
	_ "github.com/jengzang/urban-twin-go/internal/analysis/filters"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file loaded")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	// 日志
	logFile, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 30,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to set up logging")
	}
	defer logFile.Close()

	metrics.Register()

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer database.Close()
	db := database.GetDB()

	// 分析引擎
	wx := weather.NewClient(weather.Config{
		BaseURL:           cfg.NWSBaseURL,
		UserAgent:         cfg.NWSUserAgent,
		RequestsPerSecond: cfg.NWSRequestsPerSecond,
		Burst:             cfg.MaxConcurrentLookups,
		CacheSize:         cfg.PointCacheSize,
		CacheTTL:          cfg.PointCacheTTL,
	}, &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			MaxIdleConnsPerHost: cfg.MaxConcurrentLookups,
			IdleConnTimeout:     90 * time.Second,
		},
	})
	sampler := aoi.NewSampler(cfg.Tunables.Sampler)
	opts := analysis.DefaultOptions()
	opts.LookupTimeout = cfg.LookupTimeout
	opts.MaxConcurrentLookups = cfg.MaxConcurrentLookups
	opts.AviationDensity = cfg.Tunables.AviationDensity
	orchestrator := analysis.NewOrchestrator(analysis.Deps{
		Weather: wx,
		Sampler: sampler,
		Options: opts,
	})
	log.WithField("filters", analysis.RegisteredFilters()).Info("analyzers registered")

	// 服务
	hub := progress.NewHub()
	defer hub.Close()
	areas := service.NewAreaService(aoi.NewSessionStore(), sampler, repository.NewAreaRepository(db))
	heat, err := service.NewHeatmapService(areas, heatmap.NewRenderer(cfg.Tunables.Heatmap, nil), cfg.Tunables.RasterCacheSize)
	if err != nil {
		log.WithError(err).Fatal("failed to create heatmap service")
	}
	runs := service.NewAnalysisService(areas, orchestrator, repository.NewAnalysisRunRepository(db), hub, heat)

	// 初始化路由
	done := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	go limiter.Run(done)

	router := api.SetupRouter(cfg, api.Handlers{
		AOI:      handler.NewAOIHandler(areas),
		Analysis: handler.NewAnalysisHandler(runs),
		Heatmap:  handler.NewHeatmapHandler(heat),
		Progress: handler.NewProgressHandler(hub),
		Health:   handler.NewHealthHandler(hub),
	}, limiter)

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		log.WithField("addr", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	log.Info("server exited")
}
