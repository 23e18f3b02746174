package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// NewExercise is the payload for CreateExercise. Description is always sent,
// empty or not.
type NewExercise struct {
	Name         string
	Description  string
	AssignedBy   string
	AssignedTo   string
	AssignedDate time.Time
	DueDate      time.Time
}

func (n NewExercise) payload() map[string]any {
	body := map[string]any{
		"name":        n.Name,
		"description": n.Description,
		"assigned_by": n.AssignedBy,
		"assigned_to": n.AssignedTo,
	}
	if !n.AssignedDate.IsZero() {
		body["assigned_date"] = n.AssignedDate.UTC().Format(time.RFC3339)
	}
	if !n.DueDate.IsZero() {
		body["due_date"] = n.DueDate.UTC().Format(time.RFC3339)
	}
	return body
}

func (a *API) PatientExercises(ctx context.Context, patientID string) ([]Exercise, error) {
	return a.exerciseList(ctx, "/exercises/patient/"+url.PathEscape(patientID))
}

func (a *API) DoctorExercises(ctx context.Context, doctorID string) ([]Exercise, error) {
	return a.exerciseList(ctx, "/exercises/doctor/"+url.PathEscape(doctorID))
}

func (a *API) exerciseList(ctx context.Context, path string) ([]Exercise, error) {
	raw, err := a.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, err
	}
	return decodeList[Exercise](raw, a.lenient)
}

// DoctorPatients lists the patients a doctor has assigned exercises to.
func (a *API) DoctorPatients(ctx context.Context, doctorID string) ([]Patient, error) {
	raw, err := a.do(ctx, request{method: http.MethodGet, path: "/exercises/doctor/" + url.PathEscape(doctorID) + "/patients"})
	if err != nil {
		return nil, err
	}
	return decodeList[Patient](raw, a.lenient)
}

func (a *API) CreateExercise(ctx context.Context, in NewExercise) (*Exercise, error) {
	req, err := jsonRequest(http.MethodPost, "/exercises/", in.payload())
	if err != nil {
		return nil, err
	}
	raw, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeObject[Exercise](raw)
}

func (a *API) UpdateExerciseStatus(ctx context.Context, exerciseID, status string) (*Exercise, error) {
	req, err := jsonRequest(http.MethodPatch, "/exercises/"+url.PathEscape(exerciseID), map[string]string{"status": status})
	if err != nil {
		return nil, err
	}
	raw, err := a.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeObject[Exercise](raw)
}
