package httptransport

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/rentloop/auth-service/internal/http/handler"
	"github.com/rentloop/auth-service/internal/http/middleware"
	"github.com/rentloop/auth-service/internal/ratelimit"
)

// RouterConfig carries the transport-level knobs the router needs.
type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter wires the full middleware chain and route table. The rate
// limiter only covers the unauthenticated auth endpoints; sessionMW
// guards everything that requires a validated session. limiter may be
// nil when rate limiting is disabled.
func NewRouter(
	logger *slog.Logger,
	cfg RouterConfig,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	sessionMW gin.HandlerFunc,
	limiter *ratelimit.Limiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Unauthenticated auth flows, rate limited per IP and route.
	auth := r.Group("/auth")
	if limiter != nil {
		auth.Use(middleware.RateLimit(limiter, logger))
	}
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/login", authHandler.Login)

	// Session-guarded routes.
	me := r.Group("/auth", sessionMW)
	me.POST("/logout", authHandler.Logout)
	me.GET("/me", authHandler.Me)

	profile := r.Group("/profile", sessionMW)
	profile.GET("/completion", profileHandler.Completion)
	profile.POST("/documents/:kind", profileHandler.UploadDocument)

	return r
}
