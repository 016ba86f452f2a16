package baas

import (
	"time"

	"taste-test/internal/domain"
)

// sessionResponse es el cuerpo de sesion que devuelve GoTrue.
type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

type profileRow struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (r sessionResponse) toDomain(now time.Time) domain.AuthSession {
	var expiresAt time.Time
	switch {
	case r.ExpiresAt > 0:
		expiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	case r.ExpiresIn > 0:
		expiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	return domain.AuthSession{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         r.User.toDomain(),
	}
}

func (u userResponse) toDomain() domain.SessionUser {
	return domain.SessionUser{ID: u.ID, Email: u.Email}
}

func (r profileRow) toDomain() domain.Profile {
	return domain.Profile{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
	}
}
