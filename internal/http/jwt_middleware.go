package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taste-test/internal/service"
)

const authClaimsKey = "auth_claims"

var (
	errMissingBearer = errors.New("missing bearer token")
	errJWTDisabled   = errors.New("jwt not configured")
)

// authFailure escribe el rechazo con el formato que espera cada cliente.
type authFailure func(c *gin.Context, status int, err error)

// goTrueFailure responde como GoTrue ({"error","error_description"}).
func goTrueFailure(c *gin.Context, status int, err error) {
	code := "bad_jwt"
	if status == http.StatusInternalServerError {
		code = "unexpected_failure"
	} else if errors.Is(err, errMissingBearer) {
		code = "no_authorization"
	}
	authError(c, status, code, err.Error())
}

// postgrestFailure responde como PostgREST ({"code","message"}).
func postgrestFailure(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"code": "PGRST301", "message": err.Error()})
}

func apiFailure(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// RequireSession valida el bearer access token y deja los claims en el contexto.
func RequireSession(jwtSvc *service.JWTService, fail authFailure) gin.HandlerFunc {
	if fail == nil {
		fail = apiFailure
	}
	return func(c *gin.Context) {
		if jwtSvc == nil {
			fail(c, http.StatusInternalServerError, errJWTDisabled)
			c.Abort()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			fail(c, http.StatusUnauthorized, errMissingBearer)
			c.Abort()
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, errors.New("invalid JWT: unable to parse or verify signature, token is expired or malformed"))
			c.Abort()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
