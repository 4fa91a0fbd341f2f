package http

import (
	"github.com/gin-gonic/gin"
	"github.com/mealtrack/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router. extra registers
// additional rate-limited routes, such as the MCP endpoint.
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger, extra ...func(gin.IRouter)) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Probes stay outside the rate limit
	router.GET("/health", handler.HealthCheck)
	router.GET("/ping", handler.Ping)

	limited := router.Group("/")
	limited.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))

	// Twilio WhatsApp webhook
	limited.POST("/webhook", handler.Webhook)

	// API v1 routes
	v1 := limited.Group("/api/v1")
	{
		v1.POST("/messages", handler.PostMessage)
		v1.POST("/meals/parse", handler.ParseMeal)

		foods := v1.Group("/foods")
		{
			foods.GET("", handler.ListFoods)
			foods.POST("", handler.AddFood)
			foods.DELETE("/:name", handler.RemoveFood)
		}

		users := v1.Group("/users/:user")
		{
			users.GET("/summary", handler.DailySummary)
			users.GET("/weekly", handler.WeeklyBreakdown)
			users.GET("/meals", handler.ListMeals)
			users.POST("/meals", handler.LogMeal)
			users.DELETE("/meals/last", handler.DeleteLastMeal)
		}
	}

	for _, register := range extra {
		register(limited)
	}

	return router
}
