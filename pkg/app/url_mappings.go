package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zubairashfaque/FuturNod-Agents/internal/controllers"
	"github.com/zubairashfaque/FuturNod-Agents/internal/middleware"
	"github.com/zubairashfaque/FuturNod-Agents/internal/ratelimit"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rule := ratelimit.Rule{PerMinute: app.Config.RateLimit.SubmitPerMinute, Burst: app.Config.RateLimit.Burst}
	submitLimit := middleware.RateLimit(app.RateLimiter, "user", "submit", rule)

	v1 := app.Engine.Group("/v1", middleware.AuthMiddleware(app.Validator))
	{
		v1.GET("/health", controllers.NewHealthCheckController(app.Sessions).Handle)
		v1.GET("/agents", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"agents": domain.KnownAgents()}) })

		v1.GET("/searches", controllers.NewGetStateController(app.Sessions).Handle)
		v1.GET("/searches/stream", controllers.NewStreamStateController(app.Sessions).Handle)
		v1.POST("/searches", submitLimit, controllers.NewCreateSearchController(app.Sessions).Handle)
		v1.GET("/searches/:id", controllers.NewGetSearchController(app.Sessions).Handle)
		v1.GET("/searches/:id/report", controllers.NewGetReportController(app.Sessions).Handle)
		v1.POST("/agents/:agent/searches", submitLimit, controllers.NewCreateAgentSearchController(app.Sessions).Handle)

		v1.GET("/history", controllers.NewListHistoryController(app.Sessions, app.Config.History.ListLimit).Handle)
		v1.POST("/history/:id/load", controllers.NewLoadHistoryController(app.Sessions).Handle)
	}
}
