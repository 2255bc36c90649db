package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Kamar-Folarin/listing-sync/docs"
)

// @title Listing Sync API
// @version 1.0
// @description Ingests partner listings (categories, adverts) into a document store
// @contact.name API Support
// @contact.url http://github.com/Kamar-Folarin
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8000
// @BasePath /
// @schemes http https

// SetupRouter configures the API routes
func SetupRouter(h *Handler, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metricsHandler))

	// Full ingestion
	r.GET("/categories", h.GetCategories)
	r.GET("/adverts", h.GetAdverts)

	r.GET("/rate", h.GetRate)

	sync := r.Group("/sync")
	{
		sync.GET("/status", h.GetSyncStatus)
		sync.POST("/:collection", h.SyncCollection)
	}

	return r
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}).Debug("Request handled")
	}
}
