package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func deadServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := api.PatientExercises(context.Background(), "p1")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("call returned after %s, want prompt timeout", elapsed)
	}
}

func TestFallbackOnConnectionFailure(t *testing.T) {
	var hits int32
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/exercises/patient/p1" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"data":[{"id":"e1","name":"Squat","status":"Pending"}]}`))
	}))
	defer fallback.Close()

	api := NewAPI(deadServerURL(t), WithFallbackURL(fallback.URL))
	exercises, err := api.PatientExercises(context.Background(), "p1")
	if err != nil {
		t.Fatalf("PatientExercises: %v", err)
	}
	if len(exercises) != 1 || atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("exercises = %+v, fallback hits = %d", exercises, hits)
	}
}

func TestNoFallbackOnHTTPError(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer primary.Close()

	var fallbackHits int32
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fallbackHits, 1)
		w.Write([]byte(`[]`))
	}))
	defer fallback.Close()

	api := NewAPI(primary.URL, WithFallbackURL(fallback.URL))
	_, err := api.Patients(context.Background())

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError || httpErr.Message != "boom" {
		t.Fatalf("err = %#v, want HTTPError 500 boom", err)
	}
	if fallbackHits != 0 {
		t.Fatal("fallback must not be tried on an HTTP error status")
	}
}

func TestNetworkErrorWithoutFallback(t *testing.T) {
	api := NewAPI(deadServerURL(t))
	_, err := api.Patients(context.Background())

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	api := NewAPI(srv.URL)
	if _, err := api.Patients(context.Background()); err == nil {
		t.Fatal("expected 401 without token")
	}
	api.SetToken("tok123")
	if _, err := api.Patients(context.Background()); err != nil {
		t.Fatalf("with token: %v", err)
	}
}

func TestLoginSendsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Query().Get("email") != "a@b.c" || r.URL.Query().Get("password") != "p&w" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"data":{"_id":"u1","email":"a@b.c","full_name":"A","role":"Patient","token":"tkn"}}`))
	}))
	defer srv.Close()

	user, token, err := NewAPI(srv.URL).Login(context.Background(), "a@b.c", "p&w")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "u1" || token != "tkn" {
		t.Fatalf("user = %+v, token = %q", user, token)
	}
}

func TestLoginMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"a@b.c","access_token":"tkn"}`))
	}))
	defer srv.Close()

	if _, _, err := NewAPI(srv.URL).Login(context.Background(), "a@b.c", "x"); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("GET /x: %w", ErrTimeout), "The server took too long to respond. Please try again."},
		{&NetworkError{URL: "http://x", Err: errors.New("refused")}, "Cannot reach the server. Check your connection and the API URL."},
		{&HTTPError{StatusCode: 400, Message: "Email already exists"}, "Email already exists"},
		{&HTTPError{StatusCode: 503}, "The server had a problem. Please try again later."},
		{fmt.Errorf("%w: bad", ErrMalformedResponse), "The server sent an unexpected response."},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := Describe(tc.err); got != tc.want {
			t.Errorf("Describe(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestSubmitVideoResendsFileOnFallback(t *testing.T) {
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("video_file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if r.FormValue("exercise_id") != "e1" || header.Header.Get("Content-Type") != "video/mp4" || string(data) != "frames" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"bad upload"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"prediction":{"id":"p1","predicted_motion":"Squat","is_match":true,"status":"Completed"}}`))
	}))
	defer fallback.Close()

	api := NewAPI(deadServerURL(t), WithFallbackURL(fallback.URL))
	api.SetToken("tok")
	p, err := api.SubmitVideo(context.Background(), "u1", "e1", "clips/squat.mp4", strings.NewReader("frames"))
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}
	if p.ID != "p1" || !p.IsMatch {
		t.Fatalf("prediction = %+v", p)
	}
}
