package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"taste-test/internal/domain"
)

type fakeBackend struct {
	session    domain.AuthSession
	signUpErr  error
	signInErr  error
	signOutErr error
	setErr     error
	insertErr  error
	profile    domain.Profile
	profileErr error

	signUpReq    SignUpRequest
	inserted     []domain.Profile
	signedOut    []string
	setSession   [][2]string
	profileCalls int
}

func (f *fakeBackend) SignUp(_ context.Context, req SignUpRequest) (domain.AuthSession, error) {
	f.signUpReq = req
	if f.signUpErr != nil {
		return domain.AuthSession{}, f.signUpErr
	}
	return f.session, nil
}

func (f *fakeBackend) SignIn(_ context.Context, _, _ string) (domain.AuthSession, error) {
	if f.signInErr != nil {
		return domain.AuthSession{}, f.signInErr
	}
	return f.session, nil
}

func (f *fakeBackend) SignOut(_ context.Context, accessToken string) error {
	f.signedOut = append(f.signedOut, accessToken)
	return f.signOutErr
}

func (f *fakeBackend) SetSession(_ context.Context, accessToken, refreshToken string) (domain.AuthSession, error) {
	f.setSession = append(f.setSession, [2]string{accessToken, refreshToken})
	if f.setErr != nil {
		return domain.AuthSession{}, f.setErr
	}
	return f.session, nil
}

func (f *fakeBackend) InsertProfile(_ context.Context, _ string, profile domain.Profile) error {
	f.inserted = append(f.inserted, profile)
	return f.insertErr
}

func (f *fakeBackend) GetProfile(_ context.Context, _, _ string) (domain.Profile, error) {
	f.profileCalls++
	return f.profile, f.profileErr
}

type failingStore struct {
	MemoryStore
	loadErr error
}

func (f *failingStore) Load(ctx context.Context) (domain.AuthSession, bool, error) {
	if f.loadErr != nil {
		return domain.AuthSession{}, false, f.loadErr
	}
	return f.MemoryStore.Load(ctx)
}

func testSession() domain.AuthSession {
	return domain.AuthSession{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         domain.SessionUser{ID: "user-1", Email: "jeff@example.com"},
	}
}

func TestSignUp_MissingFields(t *testing.T) {
	backend := &fakeBackend{session: testSession()}
	svc := NewService(zap.NewNop(), backend, NewMemoryStore())

	cases := [][4]string{
		{"", "Winkle", "jeff@example.com", "secret1"},
		{"Jeff", "", "jeff@example.com", "secret1"},
		{"Jeff", "Winkle", "  ", "secret1"},
		{"Jeff", "Winkle", "jeff@example.com", ""},
	}
	for _, c := range cases {
		err := svc.SignUp(context.Background(), c[0], c[1], c[2], c[3])
		if !errors.Is(err, ErrMissingFields) {
			t.Fatalf("expected ErrMissingFields for %v, got %v", c, err)
		}
	}
	if err := ErrMissingFields; err.Error() != "Please fill in all fields." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if svc.State() != StateSignedOut {
		t.Fatalf("expected signed out")
	}
	if backend.signUpReq.Email != "" {
		t.Fatalf("backend should not be called")
	}
}

func TestSignUp_Success(t *testing.T) {
	backend := &fakeBackend{session: testSession()}
	store := NewMemoryStore()
	svc := NewService(zap.NewNop(), backend, store)

	if err := svc.SignUp(context.Background(), "Jeff", "Winkle", "jeff@example.com", "secret1"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if svc.State() != StateSignedIn {
		t.Fatalf("expected signed in")
	}
	if len(backend.inserted) != 1 {
		t.Fatalf("expected profile insert, got %d", len(backend.inserted))
	}
	got := backend.inserted[0]
	if got.ID != "user-1" || got.FirstName != "Jeff" || got.LastName != "Winkle" || got.Email != "jeff@example.com" {
		t.Fatalf("unexpected profile %+v", got)
	}
	stored, ok, _ := store.Load(context.Background())
	if !ok || stored.AccessToken != "access-1" {
		t.Fatalf("expected persisted session, got %+v", stored)
	}
	profile, ok := svc.Profile()
	if !ok || profile.FullName() != "Jeff Winkle" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestSignUp_ProfileInsertFailureStillSignsIn(t *testing.T) {
	backend := &fakeBackend{session: testSession(), insertErr: errors.New("rls denied")}
	svc := NewService(zap.NewNop(), backend, NewMemoryStore())

	if err := svc.SignUp(context.Background(), "Jeff", "Winkle", "jeff@example.com", "secret1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if svc.State() != StateSignedIn {
		t.Fatalf("expected signed in")
	}
	if _, ok := svc.Profile(); ok {
		t.Fatalf("expected no profile")
	}
}

func TestSignUp_BackendFailure(t *testing.T) {
	backend := &fakeBackend{signUpErr: errors.New("User already registered")}
	store := NewMemoryStore()
	svc := NewService(zap.NewNop(), backend, store)

	err := svc.SignUp(context.Background(), "Jeff", "Winkle", "jeff@example.com", "secret1")
	if err == nil || !strings.Contains(err.Error(), "User already registered") {
		t.Fatalf("expected backend error, got %v", err)
	}
	if svc.State() != StateSignedOut {
		t.Fatalf("expected signed out")
	}
	if _, ok, _ := store.Load(context.Background()); ok {
		t.Fatalf("no session should be stored")
	}
}

func TestSignIn_Success(t *testing.T) {
	backend := &fakeBackend{
		session: testSession(),
		profile: domain.Profile{ID: "user-1", FirstName: "Jeff", LastName: "Winkle"},
	}
	store := NewMemoryStore()
	svc := NewService(zap.NewNop(), backend, store)

	if err := svc.SignIn(context.Background(), "jeff@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if svc.State() != StateSignedIn {
		t.Fatalf("expected signed in")
	}
	if backend.profileCalls != 1 {
		t.Fatalf("expected profile load")
	}
	if _, ok, _ := store.Load(context.Background()); !ok {
		t.Fatalf("expected stored session")
	}
}

func TestSignIn_Failure(t *testing.T) {
	backend := &fakeBackend{signInErr: errors.New("Invalid login credentials")}
	svc := NewService(zap.NewNop(), backend, NewMemoryStore())

	err := svc.SignIn(context.Background(), "jeff@example.com", "bad")
	if err == nil || err.Error() != "Sign in failed: Invalid login credentials" {
		t.Fatalf("unexpected error %v", err)
	}
	if svc.State() != StateSignedOut {
		t.Fatalf("expected signed out")
	}
	if err := svc.SignIn(context.Background(), "", "bad"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestSignIn_ProfileFailureIsNotFatal(t *testing.T) {
	backend := &fakeBackend{session: testSession(), profileErr: errors.New("boom")}
	svc := NewService(zap.NewNop(), backend, NewMemoryStore())
	if err := svc.SignIn(context.Background(), "jeff@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if svc.State() != StateSignedIn {
		t.Fatalf("expected signed in")
	}
}

func TestSignOut_AlwaysClears(t *testing.T) {
	backend := &fakeBackend{session: testSession(), signOutErr: errors.New("network down")}
	store := NewMemoryStore()
	svc := NewService(zap.NewNop(), backend, store)
	if err := svc.SignIn(context.Background(), "jeff@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	svc.SignOut(context.Background())

	if svc.State() != StateSignedOut {
		t.Fatalf("expected signed out")
	}
	if len(backend.signedOut) != 1 || backend.signedOut[0] != "access-1" {
		t.Fatalf("expected remote sign out with token, got %v", backend.signedOut)
	}
	if _, ok, _ := store.Load(context.Background()); ok {
		t.Fatalf("expected cleared store")
	}
	if _, ok := svc.Session(); ok {
		t.Fatalf("expected no session")
	}
}

func TestRestoreSession(t *testing.T) {
	refreshed := testSession()
	refreshed.AccessToken = "access-2"
	backend := &fakeBackend{session: refreshed}
	store := NewMemoryStore()
	_ = store.Save(context.Background(), testSession())

	svc := NewService(zap.NewNop(), backend, store)
	if !svc.RestoreSession(context.Background()) {
		t.Fatalf("expected restore")
	}
	if svc.State() != StateSignedIn {
		t.Fatalf("expected signed in")
	}
	if len(backend.setSession) != 1 || backend.setSession[0] != [2]string{"access-1", "refresh-1"} {
		t.Fatalf("unexpected setSession calls %v", backend.setSession)
	}
	stored, _, _ := store.Load(context.Background())
	if stored.AccessToken != "access-2" {
		t.Fatalf("expected refreshed session persisted, got %q", stored.AccessToken)
	}
}

func TestRestoreSession_NoSessionOrFailure(t *testing.T) {
	backend := &fakeBackend{setErr: errors.New("refresh token revoked")}
	svc := NewService(zap.NewNop(), backend, NewMemoryStore())
	if svc.RestoreSession(context.Background()) {
		t.Fatalf("expected false without stored session")
	}
	if len(backend.setSession) != 0 {
		t.Fatalf("backend should not be called")
	}

	store := NewMemoryStore()
	_ = store.Save(context.Background(), testSession())
	svc = NewService(zap.NewNop(), backend, store)
	if svc.RestoreSession(context.Background()) {
		t.Fatalf("expected false on backend failure")
	}
	if len(backend.setSession) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(backend.setSession))
	}
	if svc.State() != StateSignedOut {
		t.Fatalf("expected signed out")
	}

	broken := &failingStore{loadErr: errors.New("corrupt blob")}
	svc = NewService(zap.NewNop(), backend, broken)
	if svc.RestoreSession(context.Background()) {
		t.Fatalf("expected false on load error")
	}
}

func TestStateString(t *testing.T) {
	if StateSignedIn.String() != "signed_in" || StateSignedOut.String() != "signed_out" {
		t.Fatalf("unexpected state names")
	}
}
