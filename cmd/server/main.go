// Command server runs the course planning GraphQL API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacklvd/NEU-scheduler/internal/config"
	"github.com/jacklvd/NEU-scheduler/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	logger := services.NewLogger("neu-scheduler")

	app, cleanup, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           newRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// suggestPlan may wait on the language model
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("server starting",
		"port", cfg.ServerPort,
		"environment", cfg.Environment,
		"graphql", "http://localhost:"+cfg.ServerPort+"/graphql",
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server startup failed", "error", err)
		cleanup()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return
	}
	logger.Info("server stopped gracefully")
}
