package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	fluxhttp "github.com/aretw0/flux/pkg/adapters/http"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Serve runs the HTTP API on addr until ctx is done.
func Serve(ctx context.Context, stack *Stack, addr string) error {
	srv := &http.Server{
		Addr: addr,
		Handler: fluxhttp.NewHandler(stack.Manager,
			fluxhttp.WithLogger(stack.Logger),
			fluxhttp.WithGatherer(stack.Metrics),
			fluxhttp.WithMaxBodySize(int64(stack.Config.MaxInputSize)),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		stack.Logger.Info("Starting flux server", "address", addr, "backend", stack.Config.Backend)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		stack.Logger.Info("Shutdown signal received, shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			stack.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		stack.Logger.Info("Flux server stopped gracefully")
		return nil
	}
}
