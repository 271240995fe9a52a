package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	checks   map[string]Pinger
	critical map[string]bool
	version  string
	started  time.Time
}

// NewHealthHandlers creates health handlers. Critical dependencies decide readiness;
// optional ones only degrade the detailed report. Nil pingers are skipped.
func NewHealthHandlers(version string, critical, optional map[string]Pinger) *HealthHandlers {
	h := &HealthHandlers{
		checks:   make(map[string]Pinger),
		critical: make(map[string]bool),
		version:  version,
		started:  time.Now(),
	}
	for name, p := range critical {
		if p != nil {
			h.checks[name] = p
			h.critical[name] = true
		}
	}
	for name, p := range optional {
		if p != nil {
			h.checks[name] = p
		}
	}
	return h
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// CheckResult is one dependency in the detailed report
type CheckResult struct {
	Status    string `json:"status"`
	Critical  bool   `json:"critical"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HostStats is a snapshot of the machine running the API
type HostStats struct {
	Goroutines    int     `json:"goroutines"`
	MemoryUsedPct float64 `json:"memory_used_percent,omitempty"`
	MemoryTotalMB uint64  `json:"memory_total_mb,omitempty"`
	Load1         float64 `json:"load1,omitempty"`
	Load5         float64 `json:"load5,omitempty"`
	HostUptimeSec uint64  `json:"host_uptime_seconds,omitempty"`
}

func (h *HealthHandlers) runChecks(ctx context.Context) map[string]CheckResult {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	results := make(map[string]CheckResult, len(h.checks))
	for name, p := range h.checks {
		start := time.Now()
		res := CheckResult{Status: "healthy", Critical: h.critical[name]}
		if err := p.Ping(ctx); err != nil {
			res.Status = "unhealthy"
			res.Message = err.Error()
		}
		res.LatencyMS = time.Since(start).Milliseconds()
		results[name] = res
	}
	return results
}

// HealthCheck performs comprehensive health checks
// @Summary Health
// @Tags health
// @Produce json
// @Success 200 {object} HealthStatus
// @Router /health [get]
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	for name, res := range h.runChecks(c.Request().Context()) {
		health.Services[name] = res.Status
		if res.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	return c.JSON(http.StatusOK, health)
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	var failing []string
	for name, res := range h.runChecks(c.Request().Context()) {
		if res.Critical && res.Status != "healthy" {
			failing = append(failing, name)
		}
	}

	if len(failing) > 0 {
		sort.Strings(failing)
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "not_ready",
			"failing": failing,
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// LivenessCheck determines if the application is running (basic liveness probe)
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DetailedHealthCheck provides detailed health information
func (h *HealthHandlers) DetailedHealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	checks := h.runChecks(ctx)

	overall := "healthy"
	statusCode := http.StatusOK
	for _, res := range checks {
		if res.Status == "healthy" {
			continue
		}
		if res.Critical {
			overall = "unhealthy"
			statusCode = http.StatusServiceUnavailable
		} else if overall == "healthy" {
			overall = "degraded"
		}
	}

	return c.JSON(statusCode, map[string]interface{}{
		"overall_status": overall,
		"checks":         checks,
		"host":           hostStats(ctx),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"version":        h.version,
		"uptime":         time.Since(h.started).Round(time.Second).String(),
	})
}

// hostStats collects what the platform exposes; missing values are left zero.
func hostStats(ctx context.Context) HostStats {
	stats := HostStats{Goroutines: runtime.NumGoroutine()}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryUsedPct = vm.UsedPercent
		stats.MemoryTotalMB = vm.Total / (1 << 20)
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.Load1 = avg.Load1
		stats.Load5 = avg.Load5
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		stats.HostUptimeSec = up
	}
	return stats
}
