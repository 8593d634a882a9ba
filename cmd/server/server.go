// cmd/server/server.go
// HTTP server setup with dependency injection

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"tourneysync/internal/accounts"
	"tourneysync/internal/api"
	"tourneysync/internal/config"
	"tourneysync/internal/database"
	"tourneysync/internal/gathering"
	"tourneysync/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	logger *log.Logger
	server *http.Server
}

// New creates a new server with all dependencies wired from db.
func New(cfg *config.Config, db *database.Connections, logger *log.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := &api.Deps{
		Accounts: accounts.NewStore(db.MySQL),
		Sessions: accounts.NewSessionStore(db.Redis),
		SyncCfg:  cfg.Sync,
		Version:  cfg.Version,
	}
	deps.Auth = accounts.NewAuthService(deps.Accounts, deps.Sessions, cfg.Auth.BCryptCost, cfg.Auth.SessionLifetime)
	deps.Persist = gathering.NewMongoPersister(db.MongoDB)
	deps.Hall = gathering.NewHall(deps.Persist, cfg.Gathering.IdleWindow)

	router := setupRouter(cfg, deps, db, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{config: cfg, router: router, logger: logger, server: srv}
}

// setupRouter configures all routes and middleware
func setupRouter(cfg *config.Config, deps *api.Deps, db *database.Connections, logger *log.Logger) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimiter(db.Redis))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * 3600, // 12 hours
	}))

	if cfg.Features.MaintenanceMode {
		router.Use(middleware.MaintenanceMode())
	}

	router.GET("/health", api.HealthCheck(cfg))

	v1 := router.Group("/api/v1")
	{
		api.RegisterAuthRoutes(v1, deps)
		api.RegisterTournamentRoutes(v1, deps)
		api.RegisterVersionRoute(v1, deps)
	}

	return router
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Println("Shutting down server...")
	return s.server.Shutdown(ctx)
}
