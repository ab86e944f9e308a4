package handler

import (
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/jengzang/urban-twin-go/internal/progress"
)

// HealthHandler reports liveness with a few process and host numbers
type HealthHandler struct {
	startTime time.Time
	hub       *progress.Hub
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(hub *progress.Hub) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), hub: hub}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	body := gin.H{
		"status":           "ok",
		"message":          "Urban twin API is running",
		"uptime":           time.Since(h.startTime).Round(time.Second).String(),
		"goroutines":       runtime.NumGoroutine(),
		"alloc_mb":         m.Alloc / (1024 * 1024),
		"progress_clients": h.hub.Count(),
	}

	// zero interval compares against the previous call and never blocks
	if usage, err := cpu.Percent(0, false); err == nil && len(usage) > 0 {
		body["cpu_percent"] = int(math.Round(usage[0]))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		body["host_mem_percent"] = int(math.Round(vm.UsedPercent))
	}

	c.JSON(http.StatusOK, body)
}
