package client_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang-rehabtrack/client"
	controller "golang-rehabtrack/controllers"
	"golang-rehabtrack/database"
	"golang-rehabtrack/helpers"
	"golang-rehabtrack/inference"
	"golang-rehabtrack/routes"

	"github.com/gin-gonic/gin"
)

type echoPredictor struct{ motion string }

func (p echoPredictor) Predict(context.Context, string, string, io.Reader) (*inference.Result, error) {
	return &inference.Result{PredictedMotion: p.motion, ConfidenceScore: 0.9, ModelName: "echo"}, nil
}

func newBackend(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	videos, err := helpers.NewDiskStorage(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	h := controller.NewHandler(
		database.NewMemoryStore(),
		helpers.NewTokenManager("integration", time.Hour),
		videos,
		echoPredictor{motion: "Bridge"},
		10<<20,
	)
	srv := httptest.NewServer(routes.NewRouter(h, nil))
	t.Cleanup(srv.Close)
	return srv.URL + routes.APIPrefix
}

func TestDoctorAssignsPatientSubmits(t *testing.T) {
	ctx := context.Background()
	baseURL := newBackend(t)

	doctorAPI := client.NewAPI(baseURL)
	doctor := client.NewService(doctorAPI, client.NewMemoryRepository(), nil)
	patientAPI := client.NewAPI(baseURL)
	patient := client.NewService(patientAPI, client.NewFileRepository(t.TempDir()), nil)

	for _, reg := range []client.RegisterRequest{
		{Email: "doc@clinic.io", FullName: "Doc", Role: client.RoleDoctor, Password: "secret1", Specialization: "Physio"},
		{Email: "pat@clinic.io", FullName: "Pat", Role: client.RolePatient, Password: "secret2"},
	} {
		if err := doctor.Register(ctx, reg); err != nil {
			t.Fatalf("Register %s: %v", reg.Email, err)
		}
	}

	if err := doctor.Login(ctx, "doc@clinic.io", "secret1"); err != nil {
		t.Fatalf("doctor login: %v", err)
	}
	if err := patient.Login(ctx, "pat@clinic.io", "secret2"); err != nil {
		t.Fatalf("patient login: %v", err)
	}
	if !doctor.CheckAuth(ctx) || !patient.CheckAuth(ctx) {
		t.Fatal("CheckAuth after login = false")
	}

	patients, err := doctorAPI.Patients(ctx)
	if err != nil || len(patients) != 1 {
		t.Fatalf("Patients = %+v, %v", patients, err)
	}

	doctorID := doctor.Current().User.ID
	patientID := patient.Current().User.ID
	now := time.Now().UTC().Truncate(time.Second)
	for _, name := range []string{"Squat", "Bridge"} {
		_, err := doctorAPI.CreateExercise(ctx, client.NewExercise{
			Name:         name,
			Description:  name + " x10",
			AssignedBy:   doctorID,
			AssignedTo:   patientID,
			AssignedDate: now,
			DueDate:      now.Add(72 * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateExercise %s: %v", name, err)
		}
	}

	exercises, err := patientAPI.PatientExercises(ctx, patientID)
	if err != nil || len(exercises) != 2 {
		t.Fatalf("PatientExercises = %+v, %v", exercises, err)
	}
	current := client.FilterExercises(exercises, client.TabCurrent, client.FilterAll)
	if len(current) != 2 {
		t.Fatalf("current tab = %d", len(current))
	}

	var bridgeID string
	for _, e := range exercises {
		if e.Name == "Bridge" {
			bridgeID = e.ID
		}
	}
	prediction, err := patientAPI.SubmitVideo(ctx, patientID, bridgeID, "bridge.mp4", strings.NewReader("not really a video"))
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}
	if !prediction.IsMatch || prediction.PredictedMotion != "Bridge" {
		t.Fatalf("prediction = %+v", prediction)
	}

	exercises, _ = patientAPI.PatientExercises(ctx, patientID)
	completed := client.FilterExercises(exercises, client.TabCompleted, client.FilterAll)
	if len(completed) != 1 || completed[0].Name != "Bridge" {
		t.Fatalf("completed tab = %+v", completed)
	}

	updated, err := patientAPI.UpdateExerciseStatus(ctx, completed[0].ID, "In Progress")
	if err != nil || updated.Status != "In Progress" {
		t.Fatalf("UpdateExerciseStatus = %+v, %v", updated, err)
	}

	mine, err := doctorAPI.DoctorPatients(ctx, doctorID)
	if err != nil || len(mine) != 1 || mine[0].ID != patientID {
		t.Fatalf("DoctorPatients = %+v, %v", mine, err)
	}

	history, err := patientAPI.PatientPredictions(ctx, patientID)
	if err != nil || len(history) != 1 {
		t.Fatalf("PatientPredictions = %+v, %v", history, err)
	}

	reviews, err := doctorAPI.DoctorReviews(ctx, doctorID, "")
	if err != nil || len(reviews) != 1 || reviews[0].Exercise.Name != "Bridge" || reviews[0].PatientID != patientID {
		t.Fatalf("DoctorReviews = %+v, %v", reviews, err)
	}
	if narrowed, err := doctorAPI.DoctorReviews(ctx, doctorID, patientID); err != nil || len(narrowed) != 1 {
		t.Fatalf("DoctorReviews for patient = %+v, %v", narrowed, err)
	}
	if byExercise, err := doctorAPI.ExercisePredictions(ctx, bridgeID); err != nil || len(byExercise) != 1 {
		t.Fatalf("ExercisePredictions = %+v, %v", byExercise, err)
	}
	if single, err := doctorAPI.Prediction(ctx, prediction.ID); err != nil || single.VideoID != prediction.VideoID {
		t.Fatalf("Prediction = %+v, %v", single, err)
	}

	videos, err := patientAPI.PatientVideos(ctx, patientID)
	if err != nil || len(videos) != 1 || videos[0].Prediction == nil || videos[0].Video.ID != prediction.VideoID {
		t.Fatalf("PatientVideos = %+v, %v", videos, err)
	}
	if video, err := doctorAPI.Video(ctx, prediction.VideoID); err != nil || video.Prediction == nil || !video.Prediction.IsMatch {
		t.Fatalf("Video = %+v, %v", video, err)
	}

	if err := patient.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if patient.CheckAuth(ctx) {
		t.Fatal("CheckAuth after logout = true")
	}
	if _, err := patientAPI.PatientExercises(ctx, patientID); client.Describe(err) == "" {
		t.Fatal("expected an error once logged out")
	}
}
