package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"users_api/internal/config"
	"users_api/internal/handlers"
	"users_api/internal/logger"
	"users_api/internal/repository"
	"users_api/internal/repository/db"
	"users_api/internal/server"
	"users_api/internal/service"
)

// @title        users-api
// @version      1.0
// @description  User directory with claim-based access to individual records.
// @BasePath     /
// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	// load configs/config.yml and environment
	cfg, err := config.Load("configs", ".")
	if err != nil {
		logger.Get(logger.ErrorLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	// open DB
	conn, err := openDB(cfg.DB, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		TTL:    cfg.JWT.TTL,
		Issuer: cfg.JWT.Issuer,
	}, log)
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := server.New(server.Timeouts{
		ReadHeader: cfg.Server.ReadHeaderTimeout,
		Write:      cfg.Server.WriteTimeout,
		Idle:       cfg.Server.IdleTimeout,
	})
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, cfg.Server, log)
}

// openDB initializes the SQLite database and inserts the default users on an
// empty store when seeding is enabled.
func openDB(cfg config.DBConfig, log *logger.Logger) (*sql.DB, error) {
	conn, err := db.InitDB(cfg.Path)
	if err != nil {
		return nil, err
	}
	if !cfg.Seed {
		return conn, nil
	}
	n, err := db.Seed(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if n > 0 {
		log.Infow("seeded users", "count", n, "path", cfg.Path)
	}
	return conn, nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("starting server", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, cfg config.ServerConfig, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
