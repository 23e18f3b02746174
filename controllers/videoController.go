package controllers

import (
	"errors"
	"net/http"

	"golang-rehabtrack/database"
	"golang-rehabtrack/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (h *Handler) GetVideo() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		videoID, ok := objectIDParam(c, "video_id")
		if !ok {
			return
		}

		video, err := h.Store.FindVideo(ctx, videoID)
		if err != nil {
			storeError(c, err, "Video not found")
			return
		}
		if !canAccessPatient(c, video.PatientID) {
			return
		}

		prediction, err := h.Store.FindPredictionByVideo(ctx, videoID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			storeError(c, err, "Error while fetching prediction")
			return
		}
		c.JSON(http.StatusOK, models.VideoReview{Video: *video, Prediction: prediction})
	}
}

// GetPatientVideos lists a patient's uploads, newest first, each with its prediction.
func (h *Handler) GetPatientVideos() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c)
		defer cancel()

		patientID, ok := objectIDParam(c, "patient_id")
		if !ok || !canAccessPatient(c, patientID) {
			return
		}

		videos, err := h.Store.ListVideosByPatient(ctx, patientID)
		if err != nil {
			storeError(c, err, "Error while fetching videos")
			return
		}
		predictions, err := h.Store.ListPredictionsByPatient(ctx, patientID)
		if err != nil {
			storeError(c, err, "Error while fetching predictions")
			return
		}

		byVideo := make(map[primitive.ObjectID]models.Prediction, len(predictions))
		for _, prediction := range predictions {
			byVideo[prediction.VideoID] = prediction
		}

		out := make([]models.VideoReview, 0, len(videos))
		for _, video := range videos {
			review := models.VideoReview{Video: video}
			if prediction, ok := byVideo[video.ID]; ok {
				review.Prediction = &prediction
			}
			out = append(out, review)
		}
		c.JSON(http.StatusOK, listResponse(out))
	}
}
