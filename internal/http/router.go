package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taste-test/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	chatH *ChatHandler,
	allowOrigins []string,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(allowOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Superficie compatible con GoTrue.
	authV1 := r.Group("/auth/v1")
	authV1.POST("/signup", authH.SignUp)
	authV1.POST("/token", authH.Token)
	goTrueSession := RequireSession(jwtSvc, goTrueFailure)
	authV1.POST("/logout", goTrueSession, authH.Logout)
	authV1.GET("/user", goTrueSession, authH.CurrentUser)

	// Subconjunto de PostgREST para la tabla profiles.
	rest := r.Group("/rest/v1", RequireSession(jwtSvc, postgrestFailure))
	rest.POST("/profiles", authH.InsertProfile)
	rest.GET("/profiles", authH.ListProfiles)

	conversations := r.Group("/conversations", RequireSession(jwtSvc, apiFailure))
	conversations.POST("", chatH.CreateConversation)
	conversations.GET("/:id/entries", chatH.ListEntries)
	conversations.POST("/:id/messages", chatH.PostMessage)
	conversations.POST("/:id/images", chatH.PostImage)
	conversations.GET("/:id/entries/:entry_id/image", chatH.GetImage)
	conversations.GET("/:id/events", chatH.Events)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware permite cualquier origen si no se configuro ninguno.
func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "apikey", "Prefer"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowOrigins
	}
	return cors.New(cfg)
}
