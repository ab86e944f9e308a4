package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/urban-twin-go/internal/config"
	"github.com/jengzang/urban-twin-go/internal/handler"
	"github.com/jengzang/urban-twin-go/internal/middleware"
)

// Handlers groups the HTTP handlers the router dispatches to
type Handlers struct {
	AOI      *handler.AOIHandler
	Analysis *handler.AnalysisHandler
	Heatmap  *handler.HeatmapHandler
	Progress *handler.ProgressHandler
	Health   *handler.HealthHandler
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.CORS())

	// 健康检查
	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(
		middleware.RateLimit(limiter),
		middleware.Auth(cfg.JWTSecret, cfg.AuthRequired),
		// PNGs are already compressed and the progress stream is hijacked
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
			"/api/v1/heatmap",
			"/api/v1/analysis/progress",
		})),
	)
	{
		// 区域
		aoi := api.Group("/aoi")
		{
			aoi.GET("", h.AOI.Get)
			aoi.DELETE("", h.AOI.Delete)
			aoi.POST("/rectangle", h.AOI.BuildRectangle)
			aoi.POST("/polygon", h.AOI.BuildPolygon)
			aoi.POST("/boundary", h.AOI.PlaceBoundary)
			aoi.POST("/events", h.AOI.HandleEvent)
			aoi.PUT("/corner", h.AOI.DragCorner)
			aoi.POST("/activate", h.AOI.Activate)
			aoi.POST("/deactivate", h.AOI.Deactivate)
			aoi.PUT("/filters", h.AOI.SetFilters)
			aoi.GET("/samples", h.AOI.Samples)
		}

		// 分析
		analysis := api.Group("/analysis")
		{
			analysis.POST("/runs", h.Analysis.CreateRun)
			analysis.GET("/runs", h.Analysis.ListRuns)
			analysis.GET("/runs/:id", h.Analysis.GetRun)
			analysis.GET("/progress", h.Progress.Stream)
		}

		// 热力图
		heatmap := api.Group("/heatmap")
		{
			heatmap.POST("", h.Heatmap.Render)
			heatmap.GET("", h.Heatmap.Recolor)
		}
	}

	return r
}
