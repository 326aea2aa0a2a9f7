package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the gin engine with recovery, request logging and CORS
func NewRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(handler.logger))

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	router.Use(cors.New(corsConfig))

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/stats", handler.GetPropertyStats)
		api.GET("/districts", handler.GetDistrictStats)
		api.GET("/districts/compare", handler.CompareDistricts)
		api.GET("/districts/map", handler.GetDistrictMap)
		api.GET("/property-types", handler.GetPropertyTypeStats)
		api.GET("/trends", handler.GetMarketTrends)
		api.GET("/best-value", handler.GetBestValue)
		api.GET("/model", handler.GetModelInfo)
		api.GET("/model/importance", handler.GetFeatureImportance)
		api.POST("/predict", handler.PredictPrice)
		api.POST("/dataset/generate", handler.GenerateDataset)
		api.GET("/datasets", handler.ListDatasets)
		api.POST("/datasets/:name/load", handler.LoadDataset)
	}
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
		}).Debug("Handled request")
	}
}
