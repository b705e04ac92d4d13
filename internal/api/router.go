package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gaitworks/gaitkit/internal/config"
	"github.com/gaitworks/gaitkit/internal/handler"
	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/middleware"
)

// SetupRouter wires the HTTP surface around the processing pipeline.
func SetupRouter(cfg *config.Config, mappingCfg *mapping.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Gait analysis API is running",
		})
	})

	trials := handler.NewTrialHandler(mappingCfg)

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))
	api.Use(middleware.RateLimit(60, time.Minute))
	{
		api.POST("/trials/import", trials.Import)
		api.POST("/trials/check", trials.CheckEvents)
		api.POST("/trials/segment", trials.Segment)
		api.POST("/trials/analyze", trials.Analyze)
	}

	return r
}
