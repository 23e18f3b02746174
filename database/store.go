package database

import (
	"context"
	"errors"

	"golang-rehabtrack/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("document already exists")
)

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
	ListUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

type ExerciseStore interface {
	CreateExercise(ctx context.Context, exercise *models.Exercise) error
	FindExercise(ctx context.Context, id primitive.ObjectID) (*models.Exercise, error)
	ListExercisesByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.Exercise, error)
	ListExercisesByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Exercise, error)
	UpdateExercise(ctx context.Context, id primitive.ObjectID, update models.ExerciseUpdate) (*models.Exercise, error)
	DeleteExercise(ctx context.Context, id primitive.ObjectID) error
}

type VideoStore interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	FindVideo(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	ListVideosByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.Video, error)
}

// PredictionStore lists are newest first.
type PredictionStore interface {
	CreatePrediction(ctx context.Context, prediction *models.Prediction) error
	FindPrediction(ctx context.Context, id primitive.ObjectID) (*models.Prediction, error)
	FindPredictionByVideo(ctx context.Context, videoID primitive.ObjectID) (*models.Prediction, error)
	ListPredictionsByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.Prediction, error)
	ListPredictionsByExercises(ctx context.Context, exerciseIDs []primitive.ObjectID) ([]models.Prediction, error)
}

// Store is everything the HTTP handlers persist.
type Store interface {
	UserStore
	ExerciseStore
	VideoStore
	PredictionStore
}
