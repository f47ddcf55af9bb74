package handlers

import (
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/celebrum-ta-go/pkg/interfaces"
)

var startTime = time.Now()

// HealthHandler reports the state of the process and its backing stores.
type HealthHandler struct {
	checks  map[string]interfaces.HealthChecker
	version string
}

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	System    SystemStats       `json:"system"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

// NewHealthHandler checks every non-nil entry of checks. A nil entry is
// reported as disabled and does not degrade the status.
func NewHealthHandler(checks map[string]interfaces.HealthChecker, version string) *HealthHandler {
	return &HealthHandler{checks: checks, version: version}
}

func (h *HealthHandler) names() []string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	services := make(map[string]string, len(h.checks))
	status := "healthy"
	for _, name := range h.names() {
		check := h.checks[name]
		if check == nil {
			services[name] = "disabled"
			continue
		}
		if err := check.HealthCheck(ctx); err != nil {
			services[name] = "unhealthy: " + err.Error()
			status = "unhealthy"
			continue
		}
		services[name] = "healthy"
	}

	sys := SystemStats{Goroutines: runtime.NumGoroutine()}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		sys.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sys.MemoryPercent = vm.UsedPercent
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		System:    sys,
		Version:   h.version,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	})
}

// ReadinessCheck fails as soon as one configured dependency is down.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	services := make(map[string]string, len(h.checks))
	for _, name := range h.names() {
		check := h.checks[name]
		if check == nil {
			continue
		}
		if err := check.HealthCheck(c.Request.Context()); err != nil {
			services[name] = "not ready"
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "services": services})
			return
		}
		services[name] = "ready"
	}
	c.JSON(http.StatusOK, gin.H{"ready": true, "services": services})
}

func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
