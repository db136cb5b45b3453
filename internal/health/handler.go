package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route paths.
const (
	HealthPath    = "/health"
	ReadinessPath = "/ready"
)

// RegisterRoutes registers the health and readiness endpoints.
func (c *Checker) RegisterRoutes(r gin.IRoutes) {
	r.GET(HealthPath, c.handleHealth)
	r.GET(ReadinessPath, c.handleReadiness)
}

func (c *Checker) handleHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.Health())
}

func (c *Checker) handleReadiness(ctx *gin.Context) {
	response := c.Readiness(ctx.Request.Context())

	status := http.StatusOK
	if response.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, response)
}
