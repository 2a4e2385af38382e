package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory_manager/internal/config"
	"inventory_manager/internal/credential"
	"inventory_manager/internal/handlers"
	"inventory_manager/internal/logger"
	"inventory_manager/internal/repository"
	"inventory_manager/internal/repository/db"
	"inventory_manager/internal/server"
	"inventory_manager/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (default configs/config.yml)")
	flag.Parse()

	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("error reading config", "err", err)
	}
	logger.SetLevel(cfg.LogLevel)

	// the credential algorithm must work before anything can authenticate
	hasher, err := credential.New(cfg.Credential)
	if err != nil {
		log.Fatalw("credential hasher unavailable", "algorithm", cfg.Credential.Algorithm, "err", err)
	}
	log.Infow("credential hasher ready", "algorithm", hasher.Primary(), "accept_legacy", cfg.Credential.AcceptLegacy)

	// open DB
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.InitDB(ctx, cfg.DB)
	if err != nil {
		log.Fatalw("failed to init database", "driver", cfg.DB.Driver, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn, cfg.DB.Driver)
	services := service.NewService(repos, hasher, cfg.Auth, log)
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background work
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
