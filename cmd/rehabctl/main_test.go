package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	controller "golang-rehabtrack/controllers"
	"golang-rehabtrack/database"
	"golang-rehabtrack/helpers"
	"golang-rehabtrack/inference"
	"golang-rehabtrack/routes"

	"github.com/gin-gonic/gin"
)

type fixedPredictor struct{}

func (fixedPredictor) Predict(context.Context, string, string, io.Reader) (*inference.Result, error) {
	return &inference.Result{PredictedMotion: "Squat", ConfidenceScore: 0.8, ModelName: "fixed"}, nil
}

func setup(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	videos, err := helpers.NewDiskStorage(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	h := controller.NewHandler(database.NewMemoryStore(), helpers.NewTokenManager("cli", time.Hour), videos, fixedPredictor{}, 1<<20)
	srv := httptest.NewServer(routes.NewRouter(h, nil))
	t.Cleanup(srv.Close)

	t.Setenv("REHAB_API_URL", srv.URL+routes.APIPrefix)
	t.Setenv("REHAB_FALLBACK_URL", "")
	t.Setenv("REHAB_PASSWORD", "")
	t.Setenv("REHAB_SESSION_DIR", t.TempDir())
}

func rehabctl(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String() + stderr.String(), code
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, code := rehabctl(t, args...)
	if code != 0 {
		t.Fatalf("rehabctl %v exited %d: %s", args, code, out)
	}
	return out
}

// idOf pulls "id=<hex>" out of a command's output.
func idOf(t *testing.T, out string) string {
	t.Helper()
	i := strings.Index(out, "id=")
	if i < 0 {
		t.Fatalf("no id in %q", out)
	}
	return strings.TrimRight(strings.Fields(out[i+3:])[0], ")")
}

func TestUsage(t *testing.T) {
	setup(t)
	if _, code := rehabctl(t); code != 2 {
		t.Fatalf("no args exit = %d", code)
	}
	if out, code := rehabctl(t, "dance"); code != 2 || !strings.Contains(out, "unknown command") {
		t.Fatalf("unknown command: %d %s", code, out)
	}
	if _, code := rehabctl(t, "login", "-email", "a@b.c"); code != 2 {
		t.Fatalf("missing password exit = %d", code)
	}
	if _, code := rehabctl(t, "exercises", "-tab", "later"); code != 2 {
		t.Fatalf("bad tab exit = %d", code)
	}
}

func TestNotLoggedIn(t *testing.T) {
	setup(t)
	out, code := rehabctl(t, "whoami")
	if code != 1 || !strings.Contains(out, "Please log in first.") {
		t.Fatalf("whoami: %d %s", code, out)
	}
}

func TestDoctorAndPatientFlow(t *testing.T) {
	setup(t)
	sessions := os.Getenv("REHAB_SESSION_DIR")

	mustRun(t, "register", "-email", "doc@clinic.io", "-name", "Doc", "-role", "Doctor", "-password", "secret1", "-specialization", "Physio")
	mustRun(t, "register", "-email", "pat@clinic.io", "-name", "Pat", "-password", "secret2")

	out, code := rehabctl(t, "login", "-email", "pat@clinic.io", "-password", "nope")
	if code != 1 || !strings.Contains(out, "Incorrect email or password") {
		t.Fatalf("bad login: %d %s", code, out)
	}

	mustRun(t, "login", "-email", "pat@clinic.io", "-password", "secret2")
	patientID := idOf(t, mustRun(t, "whoami"))

	mustRun(t, "login", "-email", "doc@clinic.io", "-password", "secret1")
	if _, err := os.Stat(filepath.Join(sessions, "auth-storage.json")); err != nil {
		t.Fatalf("session file: %v", err)
	}
	if out := mustRun(t, "patients"); !strings.Contains(out, patientID) {
		t.Fatalf("patients = %s", out)
	}
	exerciseID := idOf(t, mustRun(t, "assign", "-patient", patientID, "-name", "Squat", "-due", "72h"))
	if out := mustRun(t, "patients", "-mine"); !strings.Contains(out, "Pat") {
		t.Fatalf("patients -mine = %s", out)
	}

	mustRun(t, "login", "-email", "pat@clinic.io", "-password", "secret2")
	if out := mustRun(t, "exercises"); !strings.Contains(out, "Squat") || !strings.Contains(out, "Pending") {
		t.Fatalf("exercises = %s", out)
	}

	video := filepath.Join(t.TempDir(), "squat.mp4")
	if err := os.WriteFile(video, []byte("frames"), 0o600); err != nil {
		t.Fatal(err)
	}
	if out := mustRun(t, "submit", "-exercise", exerciseID, "-file", video); !strings.Contains(out, "matches") {
		t.Fatalf("submit = %s", out)
	}
	if out := mustRun(t, "exercises", "-tab", "completed"); !strings.Contains(out, "Squat") {
		t.Fatalf("completed tab = %s", out)
	}
	if out := mustRun(t, "predictions"); !strings.Contains(out, "true") {
		t.Fatalf("predictions = %s", out)
	}
	if out := mustRun(t, "status", "-exercise", exerciseID, "-set", "In Progress"); !strings.Contains(out, "In Progress") {
		t.Fatalf("status = %s", out)
	}
	if out := mustRun(t, "videos"); !strings.Contains(out, "Squat") || !strings.Contains(out, "true") {
		t.Fatalf("videos = %s", out)
	}

	mustRun(t, "login", "-email", "doc@clinic.io", "-password", "secret1")
	if out := mustRun(t, "predictions", "-exercise", exerciseID); !strings.Contains(out, exerciseID) {
		t.Fatalf("predictions -exercise = %s", out)
	}
	if out := mustRun(t, "review", "-patient", patientID); !strings.Contains(out, patientID) || !strings.Contains(out, "Squat") {
		t.Fatalf("review = %s", out)
	}
	if out := mustRun(t, "videos", "-patient", patientID); !strings.Contains(out, "file://") {
		t.Fatalf("doctor videos = %s", out)
	}

	mustRun(t, "logout")
	if _, code := rehabctl(t, "exercises"); code != 1 {
		t.Fatalf("exercises after logout exit = %d", code)
	}
}
