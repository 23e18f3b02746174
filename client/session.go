package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
)

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is a snapshot of the current authentication.
// IsLoggedIn implies User and Token are set.
type Session struct {
	State      State
	IsLoggedIn bool
	User       *User
	Token      string
}

type SessionService interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, in RegisterRequest) error
	Logout(ctx context.Context) error
	CheckAuth(ctx context.Context) bool
	Current() Session
}

// Service owns the session and keeps the API's bearer token in step with it.
// Concurrent calls are memory safe; racing updates resolve last-write-wins.
type Service struct {
	api    *API
	repo   SessionRepository
	logger *log.Logger

	mu      sync.Mutex
	session Session
}

var _ SessionService = (*Service)(nil)

func NewService(api *API, repo SessionRepository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{api: api, repo: repo, logger: logger}
}

// Rehydrate restores the session saved by a previous process.
// A stored blob claiming to be logged in without a user or token is treated as logged out.
func (s *Service) Rehydrate(ctx context.Context) error {
	saved, err := s.repo.Load(ctx)
	if err != nil {
		s.set(Session{})
		return err
	}
	if saved == nil {
		s.set(Session{})
		return nil
	}

	session := Session{User: saved.User, Token: saved.AccessToken}
	if saved.IsLoggedIn && saved.User != nil && saved.AccessToken != "" {
		session.IsLoggedIn = true
		session.State = StateAuthenticated
	}
	s.set(session)
	s.logger.Printf("session rehydrated: %s", session.State)
	return nil
}

// Login authenticates and persists the session. On failure the prior session is kept.
func (s *Service) Login(ctx context.Context, email, password string) error {
	prior := s.transition(StateAuthenticating)

	user, token, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.set(prior)
		return err
	}

	session := Session{State: StateAuthenticated, IsLoggedIn: true, User: user, Token: token}
	s.set(session)
	return s.persist(ctx, session)
}

// Register creates an account. It never changes the session.
func (s *Service) Register(ctx context.Context, in RegisterRequest) error {
	_, err := s.api.Register(ctx, in)
	return err
}

// Logout clears storage first and then the in-memory session. The session is
// reset even when clearing storage fails.
func (s *Service) Logout(ctx context.Context) error {
	err := s.repo.Clear(ctx)
	s.set(Session{})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// CheckAuth validates the stored token against the backend. Without a token it
// returns false and makes no request. Any failure ends the session.
func (s *Service) CheckAuth(ctx context.Context) bool {
	prior := s.transition(StateAuthenticating)
	if prior.Token == "" {
		s.reset(ctx)
		return false
	}

	user, err := s.api.Me(ctx, prior.Token)
	if err != nil {
		s.logger.Printf("auth check failed: %v", err)
		s.reset(ctx)
		return false
	}

	session := Session{State: StateAuthenticated, IsLoggedIn: true, User: user, Token: prior.Token}
	s.set(session)
	if err := s.persist(ctx, session); err != nil {
		s.logger.Printf("%v", err)
	}
	return true
}

func (s *Service) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(s.session)
}

// transition moves to state and returns the session as it was before.
func (s *Service) transition(state State) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prior := copySession(s.session)
	s.session.State = state
	return prior
}

func (s *Service) set(session Session) {
	s.mu.Lock()
	s.session = copySession(session)
	s.mu.Unlock()
	s.api.SetToken(session.Token)
}

func (s *Service) reset(ctx context.Context) {
	s.set(Session{})
	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Printf("clear session: %v", err)
	}
}

func (s *Service) persist(ctx context.Context, session Session) error {
	saved := PersistedSession{
		IsLoggedIn:  session.IsLoggedIn,
		User:        session.User,
		AccessToken: session.Token,
	}
	if session.User != nil {
		saved.UserRole = session.User.Role
	}
	if err := s.repo.Save(ctx, saved); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func copySession(in Session) Session {
	out := in
	if in.User != nil {
		user := *in.User
		out.User = &user
	}
	return out
}
