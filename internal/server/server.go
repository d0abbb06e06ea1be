package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appServices "github.com/afhamha/afhamha/internal/app/services"
	"github.com/afhamha/afhamha/internal/bootstrap"
	"github.com/afhamha/afhamha/internal/config"
	"github.com/afhamha/afhamha/internal/db"
	"github.com/afhamha/afhamha/internal/pkg/cache"
	"github.com/afhamha/afhamha/internal/pkg/helpers"
)

// Server holds the state for the HTTP server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	database *db.Database
	cache    cache.Cache
	auth     *appServices.AuthService
	logger   zerolog.Logger
	http     *http.Server

	stopCleanup context.CancelFunc
	cleanupDone chan struct{}
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(ctx context.Context) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		config:   cfg,
		router:   bootstrap.SetupRouter(cfg, deps, lgr),
		database: database,
		cache:    deps.Cache,
		auth:     deps.AuthService,
		logger:   lgr,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	// assistant runs may poll for up to the configured timeout, so writes get extra room
	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	s.startTokenCleanup()

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.closeResources()
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var shutdownErr error

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownErr = fmt.Errorf("server shutdown completed with errors: %w", err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	s.closeResources()

	s.logger.Info().Msg("Server shutdown process complete.")
	return shutdownErr
}

// startTokenCleanup sweeps expired refresh tokens in the background until closeResources stops it
func (s *Server) startTokenCleanup() {
	if s.auth == nil {
		return
	}
	interval := helpers.ParseDuration(s.config.JWT.CleanupInterval, appServices.TokenCleanupInterval)

	ctx, cancel := context.WithCancel(context.Background())
	s.stopCleanup = cancel
	s.cleanupDone = make(chan struct{})
	go func() {
		defer close(s.cleanupDone)
		s.auth.StartTokenCleanup(ctx, interval)
	}()
	s.logger.Info().Dur("interval", interval).Msg("Refresh token cleanup started")
}

func (s *Server) closeResources() {
	if s.stopCleanup != nil {
		s.stopCleanup()
		<-s.cleanupDone
		s.stopCleanup = nil
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close cache")
		}
	}

	if s.database != nil {
		s.logger.Info().Msg("Closing database connection...")
		s.database.Close()
		s.logger.Info().Msg("Database connection closed.")
	}
}
