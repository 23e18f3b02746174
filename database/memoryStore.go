package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang-rehabtrack/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local Store used by STORE=memory and in tests.
// Records are copied on the way in and out.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[primitive.ObjectID]models.User
	exercises   map[primitive.ObjectID]models.Exercise
	videos      map[primitive.ObjectID]models.Video
	predictions map[primitive.ObjectID]models.Prediction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[primitive.ObjectID]models.User),
		exercises:   make(map[primitive.ObjectID]models.Exercise),
		videos:      make(map[primitive.ObjectID]models.Video),
		predictions: make(map[primitive.ObjectID]models.Prediction),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListUsersByRole(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.User{}
	for _, user := range s.users {
		if user.Role == role {
			out = append(out, user)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *MemoryStore) ListUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.User{}
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			out = append(out, user)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *MemoryStore) CreateExercise(_ context.Context, exercise *models.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.exercises[exercise.ID] = copyExercise(*exercise)
	return nil
}

func (s *MemoryStore) FindExercise(_ context.Context, id primitive.ObjectID) (*models.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exercise, ok := s.exercises[id]
	if !ok {
		return nil, ErrNotFound
	}
	exercise = copyExercise(exercise)
	return &exercise, nil
}

func (s *MemoryStore) ListExercisesByPatient(_ context.Context, patientID primitive.ObjectID) ([]models.Exercise, error) {
	return s.filterExercises(func(e models.Exercise) bool { return e.AssignedTo == patientID }), nil
}

func (s *MemoryStore) ListExercisesByDoctor(_ context.Context, doctorID primitive.ObjectID) ([]models.Exercise, error) {
	return s.filterExercises(func(e models.Exercise) bool { return e.AssignedBy == doctorID }), nil
}

func (s *MemoryStore) filterExercises(keep func(models.Exercise) bool) []models.Exercise {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Exercise{}
	for _, exercise := range s.exercises {
		if keep(exercise) {
			out = append(out, copyExercise(exercise))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AssignedDate.Before(out[j].AssignedDate)
	})
	return out
}

func (s *MemoryStore) UpdateExercise(_ context.Context, id primitive.ObjectID, update models.ExerciseUpdate) (*models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exercise, ok := s.exercises[id]
	if !ok {
		return nil, ErrNotFound
	}
	if update.Name != nil {
		exercise.Name = *update.Name
	}
	if update.Description != nil {
		exercise.Description = *update.Description
	}
	if update.Status != nil {
		exercise.Status = *update.Status
	}
	if update.DueDate != nil {
		due := *update.DueDate
		exercise.DueDate = &due
	}
	if update.VideoID != nil {
		exercise.VideoID = *update.VideoID
	}
	exercise.UpdatedAt = time.Now().UTC()
	s.exercises[id] = exercise
	exercise = copyExercise(exercise)
	return &exercise, nil
}

func (s *MemoryStore) DeleteExercise(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exercises[id]; !ok {
		return ErrNotFound
	}
	delete(s.exercises, id)
	return nil
}

func (s *MemoryStore) CreateVideo(_ context.Context, video *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.videos[video.ID] = *video
	return nil
}

func (s *MemoryStore) FindVideo(_ context.Context, id primitive.ObjectID) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &video, nil
}

func (s *MemoryStore) ListVideosByPatient(_ context.Context, patientID primitive.ObjectID) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Video{}
	for _, video := range s.videos {
		if video.PatientID == patientID {
			out = append(out, video)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreatePrediction(_ context.Context, prediction *models.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.predictions {
		if existing.VideoID == prediction.VideoID {
			return ErrDuplicate
		}
	}
	s.predictions[prediction.ID] = *prediction
	return nil
}

func (s *MemoryStore) FindPrediction(_ context.Context, id primitive.ObjectID) (*models.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prediction, ok := s.predictions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &prediction, nil
}

func (s *MemoryStore) FindPredictionByVideo(_ context.Context, videoID primitive.ObjectID) (*models.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, prediction := range s.predictions {
		if prediction.VideoID == videoID {
			return &prediction, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListPredictionsByPatient(_ context.Context, patientID primitive.ObjectID) ([]models.Prediction, error) {
	return s.filterPredictions(func(p models.Prediction) bool { return p.PatientID == patientID }), nil
}

func (s *MemoryStore) ListPredictionsByExercises(_ context.Context, exerciseIDs []primitive.ObjectID) ([]models.Prediction, error) {
	wanted := make(map[primitive.ObjectID]bool, len(exerciseIDs))
	for _, id := range exerciseIDs {
		wanted[id] = true
	}
	return s.filterPredictions(func(p models.Prediction) bool { return wanted[p.ExerciseID] }), nil
}

func (s *MemoryStore) filterPredictions(keep func(models.Prediction) bool) []models.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Prediction{}
	for _, prediction := range s.predictions {
		if keep(prediction) {
			out = append(out, prediction)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func copyExercise(exercise models.Exercise) models.Exercise {
	if exercise.DueDate != nil {
		due := *exercise.DueDate
		exercise.DueDate = &due
	}
	return exercise
}

func sortUsers(users []models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].FullName < users[j].FullName
	})
}
