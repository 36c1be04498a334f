package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/portico"
	httpAdapter "github.com/aretw0/portico/pkg/adapters/http"
	"github.com/aretw0/portico/pkg/observability"
)

// RunServe exposes the system over HTTP until ctx is cancelled.
func RunServe(ctx context.Context, opts Options, out io.Writer) error {
	logger := createLogger(opts)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(reg)

	sys, cleanup, err := createSystem(ctx, opts, logger, portico.WithLifecycleHooks(metrics.Hooks()))
	if err != nil {
		return err
	}
	defer cleanup()
	metrics.ObserveCache(sys.Cache())

	handler := httpAdapter.NewHandler(sys,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: handler,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		printSystemMessage(out, "Starting Portico Server on %s", srv.Addr)
		printSystemMessage(out, "Serving partitions from: %s", opts.Dir)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		printSystemMessage(out, "Portico Server stopped gracefully")
		return nil
	}
}
