package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Role string

const (
	RoleDoctor  Role = "Doctor"
	RolePatient Role = "Patient"
)

// User accepts either "id" or "_id" on decode and always encodes "id".
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*u = User(aux.plain)
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

type Patient struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

func (p *Patient) UnmarshalJSON(data []byte) error {
	type plain Patient
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Patient(aux.plain)
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

// Exercise keeps Status verbatim; see CanonicalStatus for the normalized form.
type Exercise struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	AssignedBy   string     `json:"assigned_by"`
	AssignedTo   string     `json:"assigned_to"`
	AssignedDate Timestamp  `json:"assigned_date"`
	DueDate      *Timestamp `json:"due_date,omitempty"`
	Status       string     `json:"status"`
}

func (e *Exercise) UnmarshalJSON(data []byte) error {
	type plain Exercise
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Exercise(aux.plain)
	if e.ID == "" {
		e.ID = aux.MongoID
	}
	return nil
}

type Prediction struct {
	ID              string    `json:"id"`
	VideoID         string    `json:"video_id"`
	ExerciseID      string    `json:"exercise_id"`
	PatientID       string    `json:"patient_id"`
	PredictedMotion string    `json:"predicted_motion"`
	ConfidenceScore float64   `json:"confidence_score"`
	ModelName       string    `json:"model_name"`
	IsMatch         bool      `json:"is_match"`
	Status          string    `json:"status"`
	VideoURL        string    `json:"video_url,omitempty"`
	CreatedAt       Timestamp `json:"created_at"`
}

type Video struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	ExerciseID  string    `json:"exercise_id"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   Timestamp `json:"created_at"`
}

// VideoReview is a video with its prediction, nil while the model has not run.
type VideoReview struct {
	Video      Video       `json:"video"`
	Prediction *Prediction `json:"prediction"`
}

type ExerciseSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	AssignedDate Timestamp `json:"assigned_date"`
}

// Review is a prediction as a doctor sees it, next to the exercise it scored.
type Review struct {
	Exercise   ExerciseSummary `json:"exercise"`
	Prediction Prediction      `json:"prediction"`
	PatientID  string          `json:"patient_id"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes RFC 3339 as well as the zone-less ISO 8601 forms some
// backends emit; zone-less values are taken as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
