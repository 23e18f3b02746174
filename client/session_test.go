package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

type fakeBackend struct {
	srv      *httptest.Server
	meHits   int32
	validTok string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{validTok: "good-token"}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/login":
			if r.URL.Query().Get("password") != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Incorrect email or password"}`))
				return
			}
			w.Write([]byte(`{"id":"u1","email":"pat@clinic.io","full_name":"Pat","role":"Patient","access_token":"good-token","token_type":"bearer"}`))
		case "/users/me":
			atomic.AddInt32(&b.meHits, 1)
			if r.Header.Get("Authorization") != "Bearer "+b.validTok {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"the token has expired"}`))
				return
			}
			w.Write([]byte(`{"_id":"u1","email":"pat@clinic.io","full_name":"Pat Renamed","role":"Patient"}`))
		case "/users/":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"u2","email":"new@clinic.io","full_name":"New","role":"Doctor"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func TestCheckAuthWithoutTokenMakesNoRequest(t *testing.T) {
	backend := newFakeBackend(t)
	svc := NewService(NewAPI(backend.srv.URL), NewMemoryRepository(), nil)

	if svc.CheckAuth(context.Background()) {
		t.Fatal("CheckAuth without token = true")
	}
	if hits := atomic.LoadInt32(&backend.meHits); hits != 0 {
		t.Fatalf("CheckAuth issued %d requests", hits)
	}
	if cur := svc.Current(); cur.IsLoggedIn || cur.User != nil || cur.State != StateUnauthenticated {
		t.Fatalf("session = %+v", cur)
	}
}

func TestLoginAndCheckAuth(t *testing.T) {
	backend := newFakeBackend(t)
	repo := NewMemoryRepository()
	api := NewAPI(backend.srv.URL)
	svc := NewService(api, repo, nil)
	ctx := context.Background()

	if err := svc.Login(ctx, "pat@clinic.io", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	cur := svc.Current()
	if !cur.IsLoggedIn || cur.User.ID != "u1" || cur.Token != "good-token" || cur.State != StateAuthenticated {
		t.Fatalf("session after login = %+v", cur)
	}
	if api.Token() != "good-token" {
		t.Fatalf("api token = %q", api.Token())
	}

	saved, _ := repo.Load(ctx)
	if saved == nil || !saved.IsLoggedIn || saved.UserRole != RolePatient || saved.AccessToken != "good-token" {
		t.Fatalf("persisted = %+v", saved)
	}

	if !svc.CheckAuth(ctx) {
		t.Fatal("CheckAuth with valid token = false")
	}
	if svc.Current().User.FullName != "Pat Renamed" {
		t.Fatalf("user not refreshed: %+v", svc.Current().User)
	}
}

func TestLoginFailureKeepsPriorState(t *testing.T) {
	backend := newFakeBackend(t)
	svc := NewService(NewAPI(backend.srv.URL), NewMemoryRepository(), nil)
	ctx := context.Background()

	if err := svc.Login(ctx, "pat@clinic.io", "secret"); err != nil {
		t.Fatal(err)
	}
	before := svc.Current()

	err := svc.Login(ctx, "pat@clinic.io", "wrong")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
	after := svc.Current()
	if after.IsLoggedIn != before.IsLoggedIn || after.Token != before.Token || after.State != before.State {
		t.Fatalf("state changed on failed login: before %+v after %+v", before, after)
	}
}

func TestCheckAuthExpiredTokenLogsOut(t *testing.T) {
	backend := newFakeBackend(t)
	repo := NewMemoryRepository()
	repo.Save(context.Background(), PersistedSession{
		IsLoggedIn:  true,
		UserRole:    RolePatient,
		User:        &User{ID: "u1", Email: "pat@clinic.io", Role: RolePatient},
		AccessToken: "stale-token",
	})

	svc := NewService(NewAPI(backend.srv.URL), repo, nil)
	if err := svc.Rehydrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !svc.Current().IsLoggedIn {
		t.Fatal("rehydrated session should be logged in")
	}

	if svc.CheckAuth(context.Background()) {
		t.Fatal("CheckAuth with expired token = true")
	}
	cur := svc.Current()
	if cur.IsLoggedIn || cur.User != nil || cur.Token != "" {
		t.Fatalf("session after failed check = %+v", cur)
	}
	if saved, _ := repo.Load(context.Background()); saved != nil {
		t.Fatalf("persisted session not cleared: %+v", saved)
	}
}

func TestLogoutThenCheckAuth(t *testing.T) {
	backend := newFakeBackend(t)
	repo := NewFileRepository(t.TempDir())
	svc := NewService(NewAPI(backend.srv.URL), repo, nil)
	ctx := context.Background()

	if err := svc.Login(ctx, "pat@clinic.io", "secret"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	hitsBefore := atomic.LoadInt32(&backend.meHits)

	if svc.CheckAuth(ctx) {
		t.Fatal("CheckAuth after logout = true")
	}
	if cur := svc.Current(); cur.IsLoggedIn || cur.User != nil {
		t.Fatalf("session after logout = %+v", cur)
	}
	if atomic.LoadInt32(&backend.meHits) != hitsBefore {
		t.Fatal("CheckAuth after logout should not call the backend")
	}
	if saved, _ := repo.Load(ctx); saved != nil {
		t.Fatalf("file still holds %+v", saved)
	}
}

func TestRegisterDoesNotTouchSession(t *testing.T) {
	backend := newFakeBackend(t)
	svc := NewService(NewAPI(backend.srv.URL), NewMemoryRepository(), nil)

	err := svc.Register(context.Background(), RegisterRequest{Email: "new@clinic.io", FullName: "New", Role: RoleDoctor, Password: "pw1234"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if svc.Current().IsLoggedIn {
		t.Fatal("Register must not log in")
	}
}

type failingRepo struct{ MemoryRepository }

func (f *failingRepo) Clear(context.Context) error { return errors.New("disk gone") }

func TestLogoutResetsEvenWhenStorageFails(t *testing.T) {
	backend := newFakeBackend(t)
	svc := NewService(NewAPI(backend.srv.URL), &failingRepo{}, nil)
	ctx := context.Background()

	if err := svc.Login(ctx, "pat@clinic.io", "secret"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx); err == nil {
		t.Fatal("expected storage error from Logout")
	}
	if svc.Current().IsLoggedIn {
		t.Fatal("in-memory session not reset")
	}
}

func TestFileRepositoryReadsWrappedState(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileRepository(dir)
	if filepath.Base(repo.Path()) != "auth-storage.json" {
		t.Fatalf("path = %s", repo.Path())
	}

	if s, err := repo.Load(context.Background()); s != nil || err != nil {
		t.Fatalf("empty repo Load = %v, %v", s, err)
	}

	want := PersistedSession{IsLoggedIn: true, UserRole: RoleDoctor, User: &User{ID: "d1", Role: RoleDoctor}, AccessToken: "t"}
	if err := repo.Save(context.Background(), want); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Load(context.Background())
	if err != nil || got.User.ID != "d1" || got.AccessToken != "t" {
		t.Fatalf("Load = %+v, %v", got, err)
	}

	wrapped := `{"state":{"isLoggedIn":true,"userRole":"Patient","user":{"_id":"p9","email":"p@x.io","full_name":"P","role":"Patient"},"accessToken":"w"},"version":0}`
	if err := os.WriteFile(repo.Path(), []byte(wrapped), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err = repo.Load(context.Background())
	if err != nil || got.User.ID != "p9" || got.AccessToken != "w" || !got.IsLoggedIn {
		t.Fatalf("wrapped Load = %+v, %v", got, err)
	}
}
