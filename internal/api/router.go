package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vwency/auth-gateway/internal/app"
	iauth "github.com/vwency/auth-gateway/internal/auth"
	"github.com/vwency/auth-gateway/internal/handlers"
	"github.com/vwency/auth-gateway/internal/kratos"
	"github.com/vwency/auth-gateway/internal/middleware"
	"github.com/vwency/auth-gateway/internal/store"
	"github.com/vwency/auth-gateway/internal/usecase"
)

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(cfg *app.Config, client *kratos.Client, jwtSvc *iauth.JWTService, users *store.UserStore) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if client == nil {
		return nil, fmt.Errorf("kratos client must be provided")
	}
	if jwtSvc == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if users == nil {
		return nil, fmt.Errorf("user store must be provided")
	}

	signupSvc, err := usecase.NewSignupService(client, users, jwtSvc)
	if err != nil {
		return nil, err
	}
	loginSvc, err := usecase.NewLoginService(client, users, jwtSvc)
	if err != nil {
		return nil, err
	}
	logoutSvc, err := usecase.NewLogoutService(client)
	if err != nil {
		return nil, err
	}
	sessionSvc, err := usecase.NewGetSessionService(client)
	if err != nil {
		return nil, err
	}
	recoverySvc, err := usecase.NewRecoveryService(client)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(signupSvc, loginSvc, logoutSvc, sessionSvc, recoverySvc, users)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	// Self-service auth routes: the provider session travels via cookies,
	// so none of these require the gateway JWT.
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authHandler.Me)
		auth.GET("/recovery", authHandler.InitRecovery)
		auth.POST("/recovery", authHandler.CompleteRecovery)
	}

	// Routes authenticated by the gateway's own JWT
	api := r.Group("/api")
	api.Use(middleware.Auth(jwtSvc))
	api.GET("/profile", authHandler.Profile)

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
