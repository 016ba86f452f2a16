package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taste-test/internal/domain"
)

func TestJWTService_IssueParseAccess(t *testing.T) {
	svc := NewJWTService("secret", 15*time.Minute, time.Hour, nil)
	user := domain.User{ID: "u1", Email: "user@example.com"}

	pair, err := svc.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.ExpiresIn != 900 {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.UserID != "u1" || claims.Email != "user@example.com" || claims.SessionID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("refresh token must not be accepted as access token, got %v", err)
	}
}

func TestJWTService_RefreshRotation(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, time.Hour, NewMemoryRefreshTokenStore())
	pair, err := svc.IssuePair(ctx, domain.User{ID: "u1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	refreshed, err := svc.RefreshPair(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh pair: %v", err)
	}
	if refreshed.RefreshToken == pair.RefreshToken {
		t.Fatalf("expected a rotated refresh token")
	}
	if _, err := svc.RefreshPair(ctx, pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected reused refresh token to fail, got %v", err)
	}
}

func TestJWTService_RevokeSession(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService("secret", 15*time.Minute, time.Hour, nil)
	pair, _ := svc.IssuePair(ctx, domain.User{ID: "u1"})
	claims, _ := svc.ParseAccessToken(pair.AccessToken)

	if err := svc.RevokeSession(ctx, claims.SessionID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.RefreshPair(ctx, pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected refresh after logout to fail, got %v", err)
	}
	if err := svc.RevokeSession(ctx, ""); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected empty session id to be invalid, got %v", err)
	}
}

func TestJWTService_ExpiredAccessToken(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour, nil)
	now := time.Now().UTC()
	svc.now = func() time.Time { return now }
	pair, _ := svc.IssuePair(context.Background(), domain.User{ID: "u1"})

	svc.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTService_RejectsForeignTokens(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour, nil)
	other := NewJWTService("other-secret", time.Minute, time.Hour, nil)
	pair, _ := other.IssuePair(context.Background(), domain.User{ID: "u1"})
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected signature mismatch to be invalid, got %v", err)
	}

	claims := Claims{
		UserID:    "u1",
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := svc.ParseAccessToken(signed); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected wrong issuer to be invalid, got %v", err)
	}

	if _, err := NewJWTService("", time.Minute, time.Hour, nil).IssuePair(context.Background(), domain.User{ID: "u1"}); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected missing secret to fail")
	}
}

type slowRefreshStore struct {
	RefreshTokenStore
	delay time.Duration
}

func (s slowRefreshStore) Consume(ctx context.Context, jti string) (bool, error) {
	time.Sleep(s.delay)
	return s.RefreshTokenStore.Consume(ctx, jti)
}

func TestJWTService_ConcurrentRefreshRedeemsOnce(t *testing.T) {
	ctx := context.Background()
	store := slowRefreshStore{RefreshTokenStore: NewMemoryRefreshTokenStore(), delay: 5 * time.Millisecond}
	svc := NewJWTService("secret", 15*time.Minute, time.Hour, store)
	pair, err := svc.IssuePair(ctx, domain.User{ID: "u1", Email: "user@example.com"})
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RefreshPair(ctx, pair.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one successful refresh, got %d", wins)
	}
}
