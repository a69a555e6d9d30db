// Package main initializes and starts the GestiBat API server, setting up
// configuration, logging, the database connection, repositories, services,
// and HTTP handlers.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/gestibat/gestibat/internal/config"
	"github.com/gestibat/gestibat/internal/db"
	"github.com/gestibat/gestibat/internal/logger"
	"github.com/gestibat/gestibat/internal/repository"
	"github.com/gestibat/gestibat/internal/server/handler/http"
	"github.com/gestibat/gestibat/internal/service"
	"github.com/gestibat/gestibat/internal/token"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("Info"); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}

	// Purge expired refresh tokens and old soft-deleted resources.
	db.StartCleaner(context.Background(), postgresDB,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Access token signing.
	tokens, err := token.NewManager(options.AuthSecret, token.DefaultAccessTTL)
	if err != nil {
		zapLogger.Fatal("cannot init token manager", zap.Error(err))
	}

	// Initialize repositories for authentication and resources.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	resourceRepo := repository.NewPostgresResourceRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, tokens, service.DefaultRefreshTTL)
	resourceService := service.NewResourceService(resourceRepo)

	// Bootstrap the admin account for local use.
	if pw := os.Getenv("GESTIBAT_ADMIN_PASSWORD"); pw != "" {
		if err := authService.Register(context.Background(), "admin", pw); err != nil {
			zapLogger.Fatal("cannot create admin user", zap.Error(err))
		}
	}

	// Create HTTP handlers for the token and resource endpoints.
	authHandler := &http.AuthHandler{AuthService: authService, RefreshTTL: service.DefaultRefreshTTL}
	resourceHandler := &http.ResourceHandler{Service: resourceService}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, resourceHandler, tokens, zapLogger)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
	if err := server.ListenAndServe(); err != nil {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
}
