package routes

import (
	controller "golang-rehabtrack/controllers"
	"golang-rehabtrack/middleware"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
)

func PredictionRoutes(incomingRoutes *gin.RouterGroup, h *controller.Handler) {
	doctorOnly := middleware.RequireRole(models.RoleDoctor)

	incomingRoutes.POST("/predict/", h.Predict())
	incomingRoutes.GET("/predictions/patient/:patient_id", h.GetPatientPredictions())
	incomingRoutes.GET("/predictions/exercise/:exercise_id", h.GetExercisePredictions())
	incomingRoutes.GET("/predictions/doctor/:doctor_id", doctorOnly, h.GetDoctorPredictions())
	incomingRoutes.GET("/predictions/doctor/:doctor_id/patient/:patient_id", doctorOnly, h.GetDoctorPatientPredictions())
	incomingRoutes.GET("/predictions/:prediction_id", h.GetPrediction())

	incomingRoutes.GET("/videos/patient/:patient_id", h.GetPatientVideos())
	incomingRoutes.GET("/videos/:video_id", h.GetVideo())
}
