package routes

import (
	controller "golang-rehabtrack/controllers"
	"golang-rehabtrack/middleware"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
)

func ExerciseRoutes(incomingRoutes *gin.RouterGroup, h *controller.Handler) {
	doctorOnly := middleware.RequireRole(models.RoleDoctor)

	incomingRoutes.POST("/exercises/", doctorOnly, h.CreateExercise())
	incomingRoutes.GET("/exercises/patient/:patient_id", h.GetPatientExercises())
	incomingRoutes.GET("/exercises/doctor/:doctor_id", doctorOnly, h.GetDoctorExercises())
	incomingRoutes.GET("/exercises/doctor/:doctor_id/patients", doctorOnly, h.GetDoctorPatients())
	incomingRoutes.GET("/exercises/:exercise_id", h.GetExercise())
	incomingRoutes.PATCH("/exercises/:exercise_id", h.UpdateExercise())
	incomingRoutes.PUT("/exercises/:exercise_id", h.UpdateExercise())
	incomingRoutes.DELETE("/exercises/:exercise_id", doctorOnly, h.DeleteExercise())
}
