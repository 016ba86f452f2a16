package domain

import "time"

// SessionUser es la identidad asociada a una sesion del BaaS.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession es el blob que se persiste localmente entre ejecuciones.
type AuthSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
	User         SessionUser `json:"user"`
}

// Expired indica si el access token ya vencio respecto a now.
func (s AuthSession) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
