package routes

import (
	"time"

	controller "golang-rehabtrack/controllers"
	"golang-rehabtrack/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

const APIPrefix = "/api/v1"

func NewRouter(h *controller.Handler, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowOrigins)))
	router.Use(gzip.Gzip(gzip.BestSpeed))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	publicRoutes := router.Group(APIPrefix)

	// Private routes
	privateRoutes := router.Group(APIPrefix)
	privateRoutes.Use(middleware.Authentication(h.Tokens))

	UserRoutes(publicRoutes, privateRoutes, h)
	ExerciseRoutes(privateRoutes, h)
	PredictionRoutes(privateRoutes, h)

	return router
}

func corsConfig(allowOrigins []string) cors.Config {
	config := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		config.AllowAllOrigins = true
		return config
	}
	for _, origin := range allowOrigins {
		if origin == "*" {
			config.AllowAllOrigins = true
			return config
		}
	}
	config.AllowOrigins = allowOrigins
	config.AllowCredentials = true
	return config
}
