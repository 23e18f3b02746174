package controllers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang-rehabtrack/database"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Predict stores an uploaded exercise video, classifies it and records
// whether the detected motion matches the assigned exercise.
func (h *Handler) Predict() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Predictor == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Prediction service is not configured"})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxVideoBytes+1<<20)
		file, header, err := c.Request.FormFile("video_file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": tooLargeMessage(h.MaxVideoBytes)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "video_file is required"})
			return
		}
		defer file.Close()

		if header.Size > h.MaxVideoBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": tooLargeMessage(h.MaxVideoBytes)})
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename)))
		}
		if !strings.Contains(contentType, "video") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "File must be a video"})
			return
		}

		patientID, err := primitive.ObjectIDFromHex(c.PostForm("patient_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patient_id"})
			return
		}
		exerciseID, err := primitive.ObjectIDFromHex(c.PostForm("exercise_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid exercise_id"})
			return
		}
		if !canAccessPatient(c, patientID) {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		exercise, err := h.Store.FindExercise(ctx, exerciseID)
		if err != nil {
			storeError(c, err, "Exercise not found")
			return
		}
		if exercise.AssignedTo != patientID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Exercise is not assigned to this patient"})
			return
		}

		objectKey := fmt.Sprintf("videos/%s/%s%s", patientID.Hex(), uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))
		url, err := h.Videos.Save(ctx, objectKey, file, header.Size, contentType)
		if err != nil {
			log.Printf("save video %s: %v", objectKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error while storing video"})
			return
		}

		video := models.Video{
			ID:          primitive.NewObjectID(),
			PatientID:   patientID,
			ExerciseID:  exerciseID,
			ObjectKey:   objectKey,
			URL:         url,
			ContentType: contentType,
			Size:        header.Size,
			CreatedAt:   time.Now().UTC(),
		}
		if err := h.Store.CreateVideo(ctx, &video); err != nil {
			storeError(c, err, "Video could not be recorded")
			return
		}

		if _, err := file.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error while reading video"})
			return
		}

		// Bounded by the predictor's client timeout rather than requestTimeout.
		result, err := h.Predictor.Predict(c.Request.Context(), header.Filename, contentType, file)
		if err != nil {
			log.Printf("predict video %s: %v", video.ID.Hex(), err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Prediction failed"})
			return
		}

		isMatch := strings.EqualFold(strings.TrimSpace(result.PredictedMotion), strings.TrimSpace(exercise.Name))
		status := models.StatusNotCompleted
		if isMatch {
			status = models.StatusCompleted
		}

		ctx, cancel = requestContext(c)
		defer cancel()

		prediction := models.Prediction{
			ID:              primitive.NewObjectID(),
			VideoID:         video.ID,
			ExerciseID:      exerciseID,
			PatientID:       patientID,
			PredictedMotion: result.PredictedMotion,
			ConfidenceScore: result.ConfidenceScore,
			ModelName:       result.ModelName,
			IsMatch:         isMatch,
			Status:          status,
			VideoURL:        url,
			CreatedAt:       time.Now().UTC(),
		}
		if err := h.Store.CreatePrediction(ctx, &prediction); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "Prediction already exists for this video"})
				return
			}
			storeError(c, err, "Prediction could not be recorded")
			return
		}

		videoID := video.ID.Hex()
		if _, err := h.Store.UpdateExercise(ctx, exerciseID, models.ExerciseUpdate{Status: &status, VideoID: &videoID}); err != nil {
			storeError(c, err, "Exercise not found")
			return
		}

		log.Printf("prediction %s for exercise %s: %s (match=%v)", prediction.ID.Hex(), exerciseID.Hex(), result.PredictedMotion, isMatch)
		c.JSON(http.StatusOK, gin.H{"prediction": prediction})
	}
}

func (h *Handler) GetPatientPredictions() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		patientID, ok := objectIDParam(c, "patient_id")
		if !ok || !canAccessPatient(c, patientID) {
			return
		}

		predictions, err := h.Store.ListPredictionsByPatient(ctx, patientID)
		if err != nil {
			storeError(c, err, "Error while fetching predictions")
			return
		}
		c.JSON(http.StatusOK, listResponse(predictions))
	}
}

func (h *Handler) GetPrediction() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		predictionID, ok := objectIDParam(c, "prediction_id")
		if !ok {
			return
		}

		prediction, err := h.Store.FindPrediction(ctx, predictionID)
		if err != nil {
			storeError(c, err, "Prediction not found")
			return
		}
		if !canAccessPatient(c, prediction.PatientID) {
			return
		}
		c.JSON(http.StatusOK, prediction)
	}
}

func (h *Handler) GetExercisePredictions() gin.HandlerFunc {
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

		predictions, err := h.Store.ListPredictionsByExercises(ctx, []primitive.ObjectID{exerciseID})
		if err != nil {
			storeError(c, err, "Error while fetching predictions")
			return
		}
		c.JSON(http.StatusOK, listResponse(predictions))
	}
}

// GetDoctorPredictions lists every prediction made on exercises the doctor
// assigned, each paired with its exercise.
func (h *Handler) GetDoctorPredictions() gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorID, ok := objectIDParam(c, "doctor_id")
		if !ok || !isCallingDoctor(c, doctorID) {
			return
		}
		h.respondReviews(c, doctorID, primitive.NilObjectID)
	}
}

func (h *Handler) GetDoctorPatientPredictions() gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorID, ok := objectIDParam(c, "doctor_id")
		if !ok || !isCallingDoctor(c, doctorID) {
			return
		}
		patientID, ok := objectIDParam(c, "patient_id")
		if !ok {
			return
		}
		h.respondReviews(c, doctorID, patientID)
	}
}

// respondReviews writes the doctor's reviews, limited to one patient unless
// patientID is nil.
func (h *Handler) respondReviews(c *gin.Context, doctorID, patientID primitive.ObjectID) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if !patientID.IsZero() {
		patient, err := h.Store.FindUserByID(ctx, patientID)
		if err != nil {
			storeError(c, err, "Patient not found")
			return
		}
		if patient.Role != models.RolePatient {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User is not a patient"})
			return
		}
	}

	exercises, err := h.Store.ListExercisesByDoctor(ctx, doctorID)
	if err != nil {
		storeError(c, err, "Error while fetching exercises")
		return
	}
	byID := make(map[primitive.ObjectID]models.Exercise, len(exercises))
	ids := []primitive.ObjectID{}
	for _, exercise := range exercises {
		if patientID.IsZero() || exercise.AssignedTo == patientID {
			byID[exercise.ID] = exercise
			ids = append(ids, exercise.ID)
		}
	}

	predictions, err := h.Store.ListPredictionsByExercises(ctx, ids)
	if err != nil {
		storeError(c, err, "Error while fetching predictions")
		return
	}

	reviews := []models.Review{}
	for _, prediction := range predictions {
		exercise, ok := byID[prediction.ExerciseID]
		if !ok || (!patientID.IsZero() && prediction.PatientID != patientID) {
			continue
		}
		reviews = append(reviews, models.Review{
			Exercise:   exercise.Summary(),
			Prediction: prediction,
			PatientID:  prediction.PatientID,
		})
	}
	c.JSON(http.StatusOK, listResponse(reviews))
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("Video exceeds the %d MB limit", limit>>20)
}
