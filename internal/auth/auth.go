// Package auth mantiene el estado de sesion del dispositivo contra el BaaS.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taste-test/internal/domain"
)

type State int

const (
	StateSignedOut State = iota
	StateSignedIn
)

func (s State) String() string {
	if s == StateSignedIn {
		return "signed_in"
	}
	return "signed_out"
}

// ErrMissingFields se muestra tal cual debajo del formulario.
var ErrMissingFields = errors.New("Please fill in all fields.")

type SignUpRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Backend es el subconjunto del BaaS que usa la app.
type Backend interface {
	SignUp(ctx context.Context, req SignUpRequest) (domain.AuthSession, error)
	SignIn(ctx context.Context, email, password string) (domain.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	SetSession(ctx context.Context, accessToken, refreshToken string) (domain.AuthSession, error)
	InsertProfile(ctx context.Context, accessToken string, profile domain.Profile) error
	GetProfile(ctx context.Context, accessToken, userID string) (domain.Profile, error)
}

// SessionStore guarda un unico blob de sesion en el dispositivo.
type SessionStore interface {
	Save(ctx context.Context, session domain.AuthSession) error
	Load(ctx context.Context) (domain.AuthSession, bool, error)
	Clear(ctx context.Context) error
}

type Service struct {
	logger  *zap.Logger
	backend Backend
	store   SessionStore

	mu      sync.RWMutex
	state   State
	session domain.AuthSession
	profile *domain.Profile
}

func NewService(logger *zap.Logger, backend Backend, store SessionStore) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger:  logger,
		backend: backend,
		store:   store,
		state:   StateSignedOut,
	}
}

// SignUp registra la cuenta, guarda la sesion y escribe la fila de profiles.
func (s *Service) SignUp(ctx context.Context, firstName, lastName, email, password string) error {
	req := SignUpRequest{
		Email:     strings.TrimSpace(email),
		Password:  password,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return ErrMissingFields
	}

	session, err := s.backend.SignUp(ctx, req)
	if err != nil {
		s.logger.Warn("sign up failed", zap.Error(err))
		return fmt.Errorf("Sign up failed: %w", err)
	}
	s.persist(ctx, session)

	profile := domain.Profile{
		ID:        session.User.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	}
	if err := s.backend.InsertProfile(ctx, session.AccessToken, profile); err != nil {
		s.logger.Warn("insert profile failed", zap.Error(err), zap.String("user_id", session.User.ID))
		s.signedIn(session, nil)
		return nil
	}
	s.signedIn(session, &profile)
	s.logger.Info("user signed up", zap.String("user_id", session.User.ID))
	return nil
}

// SignIn autentica, guarda la sesion y carga el perfil.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingFields
	}

	session, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn("sign in failed", zap.Error(err))
		return fmt.Errorf("Sign in failed: %w", err)
	}
	s.persist(ctx, session)
	s.signedIn(session, s.loadProfile(ctx, session))
	s.logger.Info("user signed in", zap.String("user_id", session.User.ID))
	return nil
}

// SignOut siempre termina en SignedOut aunque falle el BaaS.
func (s *Service) SignOut(ctx context.Context) {
	s.mu.Lock()
	token := s.session.AccessToken
	s.state = StateSignedOut
	s.session = domain.AuthSession{}
	s.profile = nil
	s.mu.Unlock()

	if token != "" {
		if err := s.backend.SignOut(ctx, token); err != nil {
			s.logger.Warn("remote sign out failed", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Warn("clear stored session failed", zap.Error(err))
		}
	}
}

// RestoreSession reutiliza la sesion guardada. Devuelve true si quedo SignedIn.
func (s *Service) RestoreSession(ctx context.Context) bool {
	if s.store == nil {
		return false
	}
	stored, ok, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("load stored session failed", zap.Error(err))
		return false
	}
	if !ok || stored.AccessToken == "" {
		return false
	}

	session, err := s.backend.SetSession(ctx, stored.AccessToken, stored.RefreshToken)
	if err != nil {
		s.logger.Info("failed to restore session", zap.Error(err))
		return false
	}
	s.persist(ctx, session)
	s.signedIn(session, s.loadProfile(ctx, session))
	return true
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) Session() (domain.AuthSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.state == StateSignedIn
}

func (s *Service) Profile() (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return domain.Profile{}, false
	}
	return *s.profile, true
}

func (s *Service) persist(ctx context.Context, session domain.AuthSession) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, session); err != nil {
		s.logger.Warn("store session failed", zap.Error(err))
	}
}

func (s *Service) loadProfile(ctx context.Context, session domain.AuthSession) *domain.Profile {
	profile, err := s.backend.GetProfile(ctx, session.AccessToken, session.User.ID)
	if err != nil {
		s.logger.Warn("load profile failed", zap.Error(err), zap.String("user_id", session.User.ID))
		return nil
	}
	return &profile
}

func (s *Service) signedIn(session domain.AuthSession, profile *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSignedIn
	s.session = session
	s.profile = profile
}
