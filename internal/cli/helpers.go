package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/portico/internal/logging"
	"github.com/aretw0/portico/pkg/domain"
)

// createLogger configures the application logger.
// It always writes to Stderr (to separate from Stdout reports).
func createLogger(opts Options) *slog.Logger {
	if opts.Debug {
		return logging.NewWithWriter(os.Stderr, slog.LevelDebug, opts.LogJSON)
	}
	if opts.LogLevel == "" {
		return logging.NewNop()
	}
	return logging.NewWithWriter(os.Stderr, logging.ParseLevel(opts.LogLevel), opts.LogJSON)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransitionStart: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Transition Start", "partition", e.Request.Destination, "portal_id", e.Request.PortalID)
		},
		OnPhaseChange: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Phase Change", "state", e.State)
		},
		OnTransitionFinish: func(ctx context.Context, e *domain.TransitionEvent) {
			if e.Err != nil {
				logger.Debug("Transition Finish (Error)", "partition", e.Request.Destination, "duration", e.Duration, "err", e.Err)
			} else {
				logger.Debug("Transition Finish (Success)", "partition", e.Request.Destination, "duration", e.Duration)
			}
		},
		OnPartitionVisit: func(ctx context.Context, e *domain.PartitionVisitEvent) {
			logger.Debug("Visit Partition", "partition", e.Partition, "index", e.Index, "total", e.Total)
		},
	}
}
