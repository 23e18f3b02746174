package controllers

import (
	"net/http"
	"strings"
	"time"

	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) CreateExercise() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		var req models.CreateExerciseRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if validationErr := validate.Struct(req); validationErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}

		assignedBy, _ := primitive.ObjectIDFromHex(req.AssignedBy)
		assignedTo, _ := primitive.ObjectIDFromHex(req.AssignedTo)

		if uid, _ := caller(c); uid != assignedBy {
			c.JSON(http.StatusForbidden, gin.H{"error": "assigned_by must be the signed-in doctor"})
			return
		}

		patient, err := h.Store.FindUserByID(ctx, assignedTo)
		if err != nil {
			storeError(c, err, "Patient not found")
			return
		}
		if patient.Role != models.RolePatient {
			c.JSON(http.StatusBadRequest, gin.H{"error": "assigned_to must be a patient"})
			return
		}

		now := time.Now().UTC()
		assignedDate := now
		if req.AssignedDate != nil {
			assignedDate = req.AssignedDate.UTC()
		}
		var dueDate *time.Time
		if req.DueDate != nil {
			due := req.DueDate.UTC()
			if due.Before(assignedDate) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "due_date must not be before assigned_date"})
				return
			}
			dueDate = &due
		}

		exercise := models.Exercise{
			ID:           primitive.NewObjectID(),
			Name:         strings.TrimSpace(req.Name),
			Description:  *req.Description,
			AssignedBy:   assignedBy,
			AssignedTo:   assignedTo,
			AssignedDate: assignedDate,
			DueDate:      dueDate,
			Status:       models.StatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := h.Store.CreateExercise(ctx, &exercise); err != nil {
			storeError(c, err, "Exercise could not be created")
			return
		}
		c.JSON(http.StatusCreated, exercise)
	}
}

func (h *Handler) GetExercise() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		exerciseID, ok := objectIDParam(c, "exercise_id")
		if !ok {
			return
		}

		exercise, err := h.Store.FindExercise(ctx, exerciseID)
		if err != nil {
			storeError(c, err, "Exercise not found")
			return
		}
		if !canAccessPatient(c, exercise.AssignedTo) {
			return
		}
		c.JSON(http.StatusOK, exercise)
	}
}

// UpdateExercise applies a partial update. Patients may only change the
// status of their own exercises.
func (h *Handler) UpdateExercise() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		exerciseID, ok := objectIDParam(c, "exercise_id")
		if !ok {
			return
		}

		var req models.UpdateExerciseRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if validationErr := validate.Struct(req); validationErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}

		update := models.ExerciseUpdate{
			Name:        req.Name,
			Description: req.Description,
			DueDate:     req.DueDate,
		}
		if req.Status != nil {
			status, ok := models.NormalizeStatus(*req.Status)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status: " + *req.Status})
				return
			}
			update.Status = &status
		}
		if update.Name == nil && update.Description == nil && update.Status == nil && update.DueDate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}
		if _, role := caller(c); role != models.RoleDoctor && (update.Name != nil || update.Description != nil || update.DueDate != nil) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Patients may only update the status"})
			return
		}

		existing, err := h.Store.FindExercise(ctx, exerciseID)
		if err != nil {
			storeError(c, err, "Exercise not found")
			return
		}
		if !canAccessPatient(c, existing.AssignedTo) {
			return
		}
		if _, role := caller(c); role == models.RoleDoctor && !isCallingDoctor(c, existing.AssignedBy) {
			return
		}

		exercise, err := h.Store.UpdateExercise(ctx, exerciseID, update)
		if err != nil {
			storeError(c, err, "Exercise not found")
			return
		}
		c.JSON(http.StatusOK, exercise)
	}
}

func (h *Handler) DeleteExercise() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		exerciseID, ok := objectIDParam(c, "exercise_id")
		if !ok {
			return
		}

		exercise, err := h.Store.FindExercise(ctx, exerciseID)
		if err != nil {
			storeError(c, err, "Exercise not found")
			return
		}
		if !isCallingDoctor(c, exercise.AssignedBy) {
			return
		}

		if err := h.Store.DeleteExercise(ctx, exerciseID); err != nil {
			storeError(c, err, "Exercise not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Exercise deleted successfully"})
	}
}

func (h *Handler) GetPatientExercises() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		patientID, ok := objectIDParam(c, "patient_id")
		if !ok || !canAccessPatient(c, patientID) {
			return
		}

		exercises, err := h.Store.ListExercisesByPatient(ctx, patientID)
		if err != nil {
			storeError(c, err, "Error while fetching exercises")
			return
		}
		c.JSON(http.StatusOK, listResponse(exercises))
	}
}

func (h *Handler) GetDoctorExercises() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		doctorID, ok := objectIDParam(c, "doctor_id")
		if !ok || !isCallingDoctor(c, doctorID) {
			return
		}

		exercises, err := h.Store.ListExercisesByDoctor(ctx, doctorID)
		if err != nil {
			storeError(c, err, "Error while fetching exercises")
			return
		}
		c.JSON(http.StatusOK, listResponse(exercises))
	}
}

// GetDoctorPatients lists the distinct patients a doctor has assigned exercises to.
func (h *Handler) GetDoctorPatients() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		doctorID, ok := objectIDParam(c, "doctor_id")
		if !ok || !isCallingDoctor(c, doctorID) {
			return
		}

		exercises, err := h.Store.ListExercisesByDoctor(ctx, doctorID)
		if err != nil {
			storeError(c, err, "Error while fetching exercises")
			return
		}

		seen := make(map[primitive.ObjectID]bool)
		ids := []primitive.ObjectID{}
		for _, exercise := range exercises {
			if !seen[exercise.AssignedTo] {
				seen[exercise.AssignedTo] = true
				ids = append(ids, exercise.AssignedTo)
			}
		}

		users, err := h.Store.ListUsersByIDs(ctx, ids)
		if err != nil {
			storeError(c, err, "Error while fetching patients")
			return
		}
		c.JSON(http.StatusOK, listResponse(asPatients(users)))
	}
}
