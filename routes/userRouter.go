package routes

import (
	controller "golang-rehabtrack/controllers"
	"golang-rehabtrack/middleware"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
)

func UserRoutes(publicRoutes, privateRoutes *gin.RouterGroup, h *controller.Handler) {
	publicRoutes.POST("/users/", h.SignUp())
	publicRoutes.POST("/users/login", h.Login())

	privateRoutes.GET("/users/me", h.Me())
	privateRoutes.GET("/users/patients", middleware.RequireRole(models.RoleDoctor), h.GetPatients())
	privateRoutes.GET("/users/:user_id", h.GetUser())
}
