package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is an uploaded recording of a patient performing an assigned exercise.
type Video struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	PatientID   primitive.ObjectID `json:"patient_id" bson:"patient_id"`
	ExerciseID  primitive.ObjectID `json:"exercise_id" bson:"exercise_id"`
	ObjectKey   string             `json:"object_key" bson:"object_key"`
	URL         string             `json:"url" bson:"url"`
	ContentType string             `json:"content_type" bson:"content_type"`
	Size        int64              `json:"size" bson:"size"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

type Prediction struct {
	ID              primitive.ObjectID `json:"id" bson:"_id"`
	VideoID         primitive.ObjectID `json:"video_id" bson:"video_id"`
	ExerciseID      primitive.ObjectID `json:"exercise_id" bson:"exercise_id"`
	PatientID       primitive.ObjectID `json:"patient_id" bson:"patient_id"`
	PredictedMotion string             `json:"predicted_motion" bson:"predicted_motion"`
	ConfidenceScore float64            `json:"confidence_score" bson:"confidence_score"`
	ModelName       string             `json:"model_name" bson:"model_name"`
	IsMatch         bool               `json:"is_match" bson:"is_match"`
	Status          ExerciseStatus     `json:"status" bson:"status"`
	VideoURL        string             `json:"video_url,omitempty" bson:"video_url,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}

type ExerciseSummary struct {
	ID           primitive.ObjectID `json:"id"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Status       ExerciseStatus     `json:"status"`
	AssignedDate time.Time          `json:"assigned_date"`
}

func (e Exercise) Summary() ExerciseSummary {
	return ExerciseSummary{
		ID:           e.ID,
		Name:         e.Name,
		Description:  e.Description,
		Status:       e.Status,
		AssignedDate: e.AssignedDate,
	}
}

// Review pairs a prediction with the exercise it was scored against.
type Review struct {
	Exercise   ExerciseSummary    `json:"exercise"`
	Prediction Prediction         `json:"prediction"`
	PatientID  primitive.ObjectID `json:"patient_id"`
}

// VideoReview is an uploaded video and its prediction, nil until one exists.
type VideoReview struct {
	Video      Video       `json:"video"`
	Prediction *Prediction `json:"prediction"`
}
