package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"stkdecider/handlers"
	"stkdecider/metrics"
)

// Handlers groups every endpoint the router serves.
type Handlers struct {
	Analysis *handlers.AnalysisHandler
	Stock    *handlers.StockHandler
	Screener *handlers.ScreenerHandler
	Session  *handlers.SessionHandler
	Metrics  *metrics.Metrics
}

func SetupRoutes(router *gin.Engine, origins []string, h Handlers) {
	// CORS configuration
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = origins
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "stkdecider",
		})
	})
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := router.Group("/api/v1/dashboard")
	api.GET("/analyze/:symbol", h.Analysis.HandleGetAnalysis)
	api.GET("/chart/:symbol", h.Analysis.HandleGetChart)
	api.GET("/stock/:symbol", h.Stock.GetStockCard)
	api.GET("/quote/:symbol", h.Stock.GetQuote)
	api.GET("/search", h.Stock.Search)
	api.GET("/screener/:category", h.Screener.GetScreener)
	api.GET("/ws", h.Session.HandleSession)
}
