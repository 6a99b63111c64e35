package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports the health of one dependency
type HealthChecker func(c *gin.Context) error

// HealthHandler exposes liveness and readiness endpoints
type HealthHandler struct {
	BaseHandler
	version  string
	checkers map[string]HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version:  version,
		checkers: make(map[string]HealthChecker),
	}
}

// AddChecker registers a named dependency check for the readiness endpoint
func (h *HealthHandler) AddChecker(name string, checker HealthChecker) *HealthHandler {
	h.checkers[name] = checker
	return h
}

// RegisterRoutes registers health routes
func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}

// Health is a cheap liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{
		"status":  "ok",
		"version": h.version,
		"time":    time.Now().UTC(),
	})
}

// Ready checks every registered dependency and reports per-dependency status
func (h *HealthHandler) Ready(c *gin.Context) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checkers))
	for name, check := range h.checkers {
		if err := check(c); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := gin.H{
		"status":       "ok",
		"version":      h.version,
		"dependencies": deps,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
