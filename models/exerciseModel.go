package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExerciseStatus string

const (
	StatusPending      ExerciseStatus = "Pending"
	StatusInProgress   ExerciseStatus = "In Progress"
	StatusCompleted    ExerciseStatus = "Completed"
	StatusNotCompleted ExerciseStatus = "Not Completed"
)

var statusAliases = map[string]ExerciseStatus{
	"pending":       StatusPending,
	"in progress":   StatusInProgress,
	"inprogress":    StatusInProgress,
	"completed":     StatusCompleted,
	"complete":      StatusCompleted,
	"done":          StatusCompleted,
	"not completed": StatusNotCompleted,
	"notcompleted":  StatusNotCompleted,
	"incomplete":    StatusNotCompleted,
}

// NormalizeStatus folds casing, underscores, dashes and repeated spaces and
// returns the canonical status. ok is false for strings outside the known set.
func NormalizeStatus(raw string) (status ExerciseStatus, ok bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")
	status, ok = statusAliases[key]
	return status, ok
}

type Exercise struct {
	ID           primitive.ObjectID `json:"id" bson:"_id"`
	Name         string             `json:"name" bson:"name"`
	Description  string             `json:"description" bson:"description"`
	AssignedBy   primitive.ObjectID `json:"assigned_by" bson:"assigned_by"`
	AssignedTo   primitive.ObjectID `json:"assigned_to" bson:"assigned_to"`
	AssignedDate time.Time          `json:"assigned_date" bson:"assigned_date"`
	DueDate      *time.Time         `json:"due_date" bson:"due_date,omitempty"`
	Status       ExerciseStatus     `json:"status" bson:"status"`
	VideoID      string             `json:"video_id,omitempty" bson:"video_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

type CreateExerciseRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=100"`
	Description  *string    `json:"description" validate:"required"`
	AssignedBy   string     `json:"assigned_by" validate:"required,len=24,hexadecimal"`
	AssignedTo   string     `json:"assigned_to" validate:"required,len=24,hexadecimal"`
	AssignedDate *time.Time `json:"assigned_date"`
	DueDate      *time.Time `json:"due_date"`
}

type UpdateExerciseRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

// ExerciseUpdate is a validated partial update; nil fields are left untouched.
type ExerciseUpdate struct {
	Name        *string
	Description *string
	Status      *ExerciseStatus
	DueDate     *time.Time
	VideoID     *string
}
