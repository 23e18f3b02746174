package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-rehabtrack/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps users, exercises, videos and predictions in one database.
type MongoStore struct {
	users       *mongo.Collection
	exercises   *mongo.Collection
	videos      *mongo.Collection
	predictions *mongo.Collection
}

func NewMongoStore(client *mongo.Client, databaseName string) *MongoStore {
	return &MongoStore{
		users:       OpenCollection(client, databaseName, "user"),
		exercises:   OpenCollection(client, databaseName, "exercise"),
		videos:      OpenCollection(client, databaseName, "video"),
		predictions: OpenCollection(client, databaseName, "prediction"),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if _, err := s.exercises.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assigned_to", Value: 1}, {Key: "assigned_date", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_by", Value: 1}, {Key: "assigned_date", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("exercise indexes: %w", err)
	}
	if _, err := s.predictions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "exercise_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "video_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("prediction indexes: %w", err)
	}
	if _, err := s.videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("video indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})
	return findAll[models.User](ctx, s.users, bson.M{"role": role}, opts)
}

func (s *MongoStore) ListUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})
	return findAll[models.User](ctx, s.users, bson.M{"_id": bson.M{"$in": ids}}, opts)
}

func (s *MongoStore) CreateExercise(ctx context.Context, exercise *models.Exercise) error {
	_, err := s.exercises.InsertOne(ctx, exercise)
	return err
}

func (s *MongoStore) FindExercise(ctx context.Context, id primitive.ObjectID) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := s.exercises.FindOne(ctx, bson.M{"_id": id}).Decode(&exercise); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

func (s *MongoStore) ListExercisesByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.Exercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assigned_date", Value: 1}})
	return findAll[models.Exercise](ctx, s.exercises, bson.M{"assigned_to": patientID}, opts)
}

func (s *MongoStore) ListExercisesByDoctor(ctx context.Context, doctorID primitive.ObjectID) ([]models.Exercise, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assigned_date", Value: 1}})
	return findAll[models.Exercise](ctx, s.exercises, bson.M{"assigned_by": doctorID}, opts)
}

func (s *MongoStore) UpdateExercise(ctx context.Context, id primitive.ObjectID, update models.ExerciseUpdate) (*models.Exercise, error) {
	var updateObj primitive.D

	if update.Name != nil {
		updateObj = append(updateObj, bson.E{Key: "name", Value: *update.Name})
	}
	if update.Description != nil {
		updateObj = append(updateObj, bson.E{Key: "description", Value: *update.Description})
	}
	if update.Status != nil {
		updateObj = append(updateObj, bson.E{Key: "status", Value: *update.Status})
	}
	if update.DueDate != nil {
		updateObj = append(updateObj, bson.E{Key: "due_date", Value: *update.DueDate})
	}
	if update.VideoID != nil {
		updateObj = append(updateObj, bson.E{Key: "video_id", Value: *update.VideoID})
	}
	updateObj = append(updateObj, bson.E{Key: "updated_at", Value: time.Now().UTC()})

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var exercise models.Exercise
	err := s.exercises.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: updateObj}}, opts).Decode(&exercise)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &exercise, nil
}

func (s *MongoStore) DeleteExercise(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.exercises.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateVideo(ctx context.Context, video *models.Video) error {
	_, err := s.videos.InsertOne(ctx, video)
	return err
}

func (s *MongoStore) FindVideo(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	return findOne[models.Video](ctx, s.videos, bson.M{"_id": id})
}

func (s *MongoStore) ListVideosByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[models.Video](ctx, s.videos, bson.M{"patient_id": patientID}, opts)
}

func (s *MongoStore) CreatePrediction(ctx context.Context, prediction *models.Prediction) error {
	if _, err := s.predictions.InsertOne(ctx, prediction); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *MongoStore) FindPrediction(ctx context.Context, id primitive.ObjectID) (*models.Prediction, error) {
	return findOne[models.Prediction](ctx, s.predictions, bson.M{"_id": id})
}

func (s *MongoStore) FindPredictionByVideo(ctx context.Context, videoID primitive.ObjectID) (*models.Prediction, error) {
	return findOne[models.Prediction](ctx, s.predictions, bson.M{"video_id": videoID})
}

func (s *MongoStore) ListPredictionsByPatient(ctx context.Context, patientID primitive.ObjectID) ([]models.Prediction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[models.Prediction](ctx, s.predictions, bson.M{"patient_id": patientID}, opts)
}

func (s *MongoStore) ListPredictionsByExercises(ctx context.Context, exerciseIDs []primitive.ObjectID) ([]models.Prediction, error) {
	if len(exerciseIDs) == 0 {
		return []models.Prediction{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[models.Prediction](ctx, s.predictions, bson.M{"exercise_id": bson.M{"$in": exerciseIDs}}, opts)
}

func findOne[T any](ctx context.Context, collection *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	if err := collection.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
