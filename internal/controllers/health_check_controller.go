package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/internal/services"
)

type healthCheckController struct{ sessions Sessions }

func NewHealthCheckController(s Sessions) *healthCheckController {
	return &healthCheckController{sessions: s}
}

func (h *healthCheckController) Handle(c *gin.Context) {
	ok := facadeFor(c, h.sessions).CheckHealth(c.Request.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"available": ok, "notice": services.HealthNotice(ok)})
}
