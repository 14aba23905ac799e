package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/wayfare-go/internal/services"
)

var startTime = time.Now()

// HealthChecker is implemented by database.PostgresDB and database.RedisClient
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotStatusProvider reports whether tables are loaded
type SnapshotStatusProvider interface {
	Status() services.SnapshotStatus
}

type HealthHandler struct {
	db       HealthChecker
	redis    HealthChecker
	snapshot SnapshotStatusProvider
	memory   func() (*mem.VirtualMemoryStat, error)
}

type MemoryStats struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

type HealthResponse struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Services  map[string]string       `json:"services"`
	Snapshot  services.SnapshotStatus `json:"snapshot"`
	Memory    *MemoryStats            `json:"memory,omitempty"`
	Version   string                  `json:"version"`
	Uptime    string                  `json:"uptime"`
}

// NewHealthHandler creates a health handler. Pass nil for dependencies that
// are not configured; they are reported but do not degrade the status.
func NewHealthHandler(db HealthChecker, redis HealthChecker, snapshot SnapshotStatusProvider) *HealthHandler {
	return &HealthHandler{
		db:       db,
		redis:    redis,
		snapshot: snapshot,
		memory:   mem.VirtualMemory,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	healthy := true
	svcs := map[string]string{
		"database": check(ctx, h.db, &healthy),
		"redis":    check(ctx, h.redis, &healthy),
	}

	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  svcs,
		Version:   "1.0.0",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}

	if h.snapshot != nil {
		response.Snapshot = h.snapshot.Status()
		if !response.Snapshot.Loaded {
			svcs["snapshot"] = "not loaded"
		} else {
			svcs["snapshot"] = "healthy"
		}
	}

	if h.memory != nil {
		if vm, err := h.memory(); err == nil && vm != nil {
			response.Memory = &MemoryStats{
				TotalMB:     vm.Total / 1024 / 1024,
				UsedMB:      vm.Used / 1024 / 1024,
				UsedPercent: vm.UsedPercent,
			}
		}
	}

	statusCode := http.StatusOK
	response.Status = "healthy"
	if !healthy {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func check(ctx context.Context, checker HealthChecker, healthy *bool) string {
	if checker == nil {
		return "not configured"
	}
	if err := checker.HealthCheck(ctx); err != nil {
		*healthy = false
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
