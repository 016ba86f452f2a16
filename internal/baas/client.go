// Package baas habla con un backend compatible con Supabase (GoTrue + PostgREST).
package baas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"taste-test/internal/auth"
	"taste-test/internal/domain"
)

var (
	ErrNoSession       = errors.New("no session returned, the email may still need confirmation")
	ErrProfileNotFound = errors.New("profile not found")
	ErrMissingToken    = errors.New("missing token")
)

// APIError es la respuesta de error del BaaS. Error() devuelve el mensaje legible.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("baas http error: status=%d", e.Status)
	}
	return e.Message
}

// Client implementa auth.Backend.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
	now    func() time.Time
}

var _ auth.Backend = (*Client)(nil)

func NewClient(baseURL, anonKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("apikey", anonKey).
		SetAuthToken(anonKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	return &Client{
		http:   client,
		logger: logger,
		now:    time.Now,
	}
}

func (c *Client) SignUp(ctx context.Context, req auth.SignUpRequest) (domain.AuthSession, error) {
	body := map[string]interface{}{
		"email":    req.Email,
		"password": req.Password,
		"data": map[string]string{
			"first_name": req.FirstName,
			"last_name":  req.LastName,
		},
	}
	var resp sessionResponse
	if err := c.post(ctx, "/auth/v1/signup", "", body, &resp); err != nil {
		return domain.AuthSession{}, err
	}
	if resp.AccessToken == "" {
		return domain.AuthSession{}, ErrNoSession
	}
	return resp.toDomain(c.now()), nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (domain.AuthSession, error) {
	body := map[string]string{"email": email, "password": password}
	var resp sessionResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return domain.AuthSession{}, err
	}
	if resp.AccessToken == "" {
		return domain.AuthSession{}, ErrNoSession
	}
	return resp.toDomain(c.now()), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrMissingToken
	}
	return c.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

// SetSession valida el access token guardado y lo refresca si vencio o fue rechazado.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (domain.AuthSession, error) {
	if accessToken == "" || refreshToken == "" {
		return domain.AuthSession{}, ErrMissingToken
	}

	session := domain.AuthSession{AccessToken: accessToken, RefreshToken: refreshToken}
	if exp, ok := tokenExpiry(accessToken); ok {
		session.ExpiresAt = exp
	}
	if session.Expired(c.now()) {
		return c.refresh(ctx, refreshToken)
	}

	var user userResponse
	err := c.get(ctx, "/auth/v1/user", accessToken, &user)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return c.refresh(ctx, refreshToken)
	}
	if err != nil {
		return domain.AuthSession{}, err
	}
	session.User = user.toDomain()
	return session, nil
}

func (c *Client) InsertProfile(ctx context.Context, accessToken string, profile domain.Profile) error {
	row := profileRow{
		ID:        profile.ID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("Prefer", "return=minimal").
		SetBody(row).
		Post("/rest/v1/profiles")
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	return c.check(res)
}

func (c *Client) GetProfile(ctx context.Context, accessToken, userID string) (domain.Profile, error) {
	var rows []profileRow
	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParam("id", "eq."+userID).
		SetQueryParam("select", "*").
		Get("/rest/v1/profiles")
	if err != nil {
		return domain.Profile{}, fmt.Errorf("do request: %w", err)
	}
	if err := c.check(res); err != nil {
		return domain.Profile{}, err
	}
	if err := json.Unmarshal(res.Body(), &rows); err != nil {
		return domain.Profile{}, fmt.Errorf("unmarshal profiles: %w", err)
	}
	if len(rows) == 0 {
		return domain.Profile{}, ErrProfileNotFound
	}
	return rows[0].toDomain(), nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (domain.AuthSession, error) {
	var resp sessionResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return domain.AuthSession{}, err
	}
	if resp.AccessToken == "" {
		return domain.AuthSession{}, ErrNoSession
	}
	return resp.toDomain(c.now()), nil
}

func (c *Client) post(ctx context.Context, path, token string, body, out interface{}) error {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	res, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	return c.decode(res, out)
}

func (c *Client) get(ctx context.Context, path, token string, out interface{}) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(path)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	return c.decode(res, out)
}

func (c *Client) decode(res *resty.Response, out interface{}) error {
	if err := c.check(res); err != nil {
		return err
	}
	if out == nil || len(res.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) check(res *resty.Response) error {
	if res.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: res.StatusCode(), Message: errorMessage(res.Body())}
	c.logger.Debug("baas error status",
		zap.String("url", res.Request.URL),
		zap.Int("status", apiErr.Status),
		zap.String("message", apiErr.Message),
	)
	return apiErr
}

// errorMessage entiende los formatos de error de GoTrue y PostgREST.
func errorMessage(body []byte) string {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, candidate := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// tokenExpiry lee el claim exp sin verificar la firma; eso lo hace el servidor.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
