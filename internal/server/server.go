// Package server runs the HTTP and gRPC listeners until the context ends,
// then drains them.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/pehnawa/pkg/grpc"
	"github.com/shashiranjanraj/pehnawa/pkg/logger"
)

// DrainTimeout bounds how long in-flight requests get after shutdown starts.
const DrainTimeout = 30 * time.Second

type Config struct {
	Addr    string
	Handler http.Handler

	// GRPC is optional.
	GRPC     *grpc.Server
	GRPCAddr string
}

// Run serves until ctx is cancelled or a listener fails.
func Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      cfg.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		logger.Info("http: listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http: %w", err)
		}
	}()
	if cfg.GRPC != nil {
		go func() {
			if err := cfg.GRPC.Serve(ctx, cfg.GRPCAddr); err != nil {
				errs <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("server: shutting down")
	case runErr = <-errs:
		logger.Error("server: listener failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DrainTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http: forced shutdown", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	if cfg.GRPC != nil {
		cfg.GRPC.Stop()
	}
	logger.Info("server: stopped")
	return runErr
}
