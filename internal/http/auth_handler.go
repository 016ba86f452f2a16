package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"taste-test/internal/domain"
	"taste-test/internal/repository"
	"taste-test/internal/service"
)

// AuthHandler expone el subconjunto de GoTrue y PostgREST que usa la app.
type AuthHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	jwtServ  *service.JWTService
	profiles repository.ProfileRepository
}

func NewAuthHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService, profiles repository.ProfileRepository) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		userServ: userServ,
		jwtServ:  jwtServ,
		profiles: profiles,
	}
}

type userBody struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

type sessionBody struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         userBody `json:"user"`
}

func newUserBody(user domain.User) userBody {
	return userBody{
		ID:    user.ID,
		Email: user.Email,
		UserMetadata: map[string]string{
			"first_name": user.FirstName,
			"last_name":  user.LastName,
		},
		CreatedAt: user.CreatedAt,
	}
}

func newSessionBody(pair service.TokenPair, user domain.User) sessionBody {
	return sessionBody{
		AccessToken:  pair.AccessToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		ExpiresAt:    pair.ExpiresAt,
		RefreshToken: pair.RefreshToken,
		User:         newUserBody(user),
	}
}

func authError(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{"error": code, "error_description": description})
}

// SignUp maneja POST /auth/v1/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Data     struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
		} `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid signup request", zap.Error(err))
		authError(c, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}

	user, err := h.userServ.SignUp(c.Request.Context(), service.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.Data.FirstName,
		LastName:  req.Data.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			authError(c, http.StatusBadRequest, "validation_failed", "Unable to validate email address: invalid format")
		case errors.Is(err, service.ErrWeakPassword):
			authError(c, http.StatusUnprocessableEntity, "weak_password", "Password should be at least 6 characters.")
		case errors.Is(err, service.ErrEmailTaken):
			authError(c, http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
		default:
			h.logger.Error("signup failed", zap.Error(err))
			authError(c, http.StatusInternalServerError, "unexpected_failure", "could not create user")
		}
		return
	}

	h.respondSession(c, user)
}

// Token maneja POST /auth/v1/token?grant_type=password|refresh_token.
func (h *AuthHandler) Token(c *gin.Context) {
	switch c.Query("grant_type") {
	case "password":
		h.passwordGrant(c)
	case "refresh_token":
		h.refreshGrant(c)
	default:
		authError(c, http.StatusBadRequest, "unsupported_grant_type", "unsupported grant type")
	}
}

func (h *AuthHandler) passwordGrant(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		authError(c, http.StatusBadRequest, "invalid_request", "invalid request")
		return
	}

	user, err := h.userServ.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			authError(c, http.StatusBadRequest, "invalid_grant", "Invalid login credentials")
		case errors.Is(err, service.ErrRateLimited):
			authError(c, http.StatusTooManyRequests, "over_request_rate_limit", "Too many sign in attempts, try again later")
		default:
			h.logger.Error("login failed", zap.Error(err))
			authError(c, http.StatusInternalServerError, "unexpected_failure", "could not login")
		}
		return
	}

	h.respondSession(c, user)
}

func (h *AuthHandler) refreshGrant(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		authError(c, http.StatusBadRequest, "invalid_request", "refresh_token required")
		return
	}
	if h.jwtServ == nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "jwt not configured")
		return
	}

	pair, err := h.jwtServ.RefreshPair(c.Request.Context(), req.RefreshToken)
	if err != nil {
		authError(c, http.StatusBadRequest, "invalid_grant", "Invalid Refresh Token")
		return
	}
	claims, err := h.jwtServ.ParseAccessToken(pair.AccessToken)
	if err != nil {
		h.logger.Error("parse refreshed token failed", zap.Error(err))
		authError(c, http.StatusInternalServerError, "unexpected_failure", "could not refresh session")
		return
	}
	user, err := h.userServ.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		_ = h.jwtServ.RevokeSession(c.Request.Context(), claims.SessionID)
		authError(c, http.StatusBadRequest, "invalid_grant", "Invalid Refresh Token")
		return
	}
	c.JSON(http.StatusOK, newSessionBody(pair, user))
}

// Logout maneja POST /auth/v1/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		authError(c, http.StatusUnauthorized, "bad_jwt", "missing token")
		return
	}
	if err := h.jwtServ.RevokeSession(c.Request.Context(), claims.SessionID); err != nil {
		h.logger.Warn("revoke session failed", zap.Error(err), zap.String("user_id", claims.UserID))
	}
	c.Status(http.StatusNoContent)
}

// CurrentUser maneja GET /auth/v1/user.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		authError(c, http.StatusUnauthorized, "bad_jwt", "missing token")
		return
	}
	user, err := h.userServ.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			authError(c, http.StatusUnauthorized, "user_not_found", "User from sub claim in JWT does not exist")
			return
		}
		h.logger.Error("get user failed", zap.Error(err))
		authError(c, http.StatusInternalServerError, "unexpected_failure", "could not load user")
		return
	}
	c.JSON(http.StatusOK, newUserBody(user))
}

// InsertProfile maneja POST /rest/v1/profiles. Solo se puede escribir la fila propia.
func (h *AuthHandler) InsertProfile(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}
	var row domain.Profile
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	if row.ID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "new row violates row-level security policy for table \"profiles\""})
		return
	}
	row.CreatedAt = time.Now().UTC()

	if err := h.profiles.Create(c.Request.Context(), row); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"message": "duplicate key value violates unique constraint \"profiles_pkey\""})
			return
		}
		h.logger.Error("insert profile failed", zap.Error(err), zap.String("user_id", claims.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not insert profile"})
		return
	}

	if strings.Contains(c.GetHeader("Prefer"), "return=representation") {
		c.JSON(http.StatusCreated, []domain.Profile{row})
		return
	}
	c.Status(http.StatusCreated)
}

// ListProfiles maneja GET /rest/v1/profiles?id=eq.<id>. Filas ajenas no se ven.
func (h *AuthHandler) ListProfiles(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
		return
	}
	id := claims.UserID
	if filter := c.Query("id"); filter != "" {
		if !strings.HasPrefix(filter, "eq.") {
			c.JSON(http.StatusBadRequest, gin.H{"message": "only eq filters are supported on id"})
			return
		}
		id = strings.TrimPrefix(filter, "eq.")
	}
	if id != claims.UserID {
		c.JSON(http.StatusOK, []domain.Profile{})
		return
	}

	profile, err := h.profiles.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusOK, []domain.Profile{})
			return
		}
		h.logger.Error("get profile failed", zap.Error(err), zap.String("user_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, []domain.Profile{profile})
}

func (h *AuthHandler) respondSession(c *gin.Context, user domain.User) {
	if h.jwtServ == nil {
		authError(c, http.StatusInternalServerError, "unexpected_failure", "jwt not configured")
		return
	}
	pair, err := h.jwtServ.IssuePair(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		authError(c, http.StatusInternalServerError, "unexpected_failure", "could not issue tokens")
		return
	}
	c.JSON(http.StatusOK, newSessionBody(pair, user))
}
