package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/portico"
	"github.com/aretw0/portico/internal/presentation/tui"
	"github.com/aretw0/portico/pkg/domain"
)

// ErrValidationFailed is returned when the portal graph has issues.
var ErrValidationFailed = errors.New("portal validation failed")

// RunValidate checks the portal graph once and writes the report to out.
// In watch mode it re-validates on every change until ctx is cancelled.
func RunValidate(ctx context.Context, opts Options, out io.Writer) error {
	logger := createLogger(opts)

	sys, cleanup, err := createSystem(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if !opts.Watch {
		report, err := validateOnce(ctx, sys, opts, out, logger)
		if err != nil {
			return err
		}
		if !report.Clean {
			return ErrValidationFailed
		}
		return nil
	}

	watchCh, err := sys.Watch(ctx)
	if err != nil {
		return fmt.Errorf("--watch unavailable: %w", err)
	}

	if !opts.JSON {
		tui.PrintBanner(out, portico.Version)
	}
	logger.Info("Starting Watcher", "path", opts.Dir)

	for {
		if _, err := validateOnce(ctx, sys, opts, out, logger); err != nil {
			logger.Error("Validation error", "err", err)
		}
		if !opts.JSON {
			printSystemMessage(out, "Waiting for changes...")
		}

		select {
		case <-ctx.Done():
			logger.Info("Stopping watcher")
			return nil
		case event, ok := <-watchCh:
			if !ok {
				return nil
			}
			logger.Info("Change detected, re-validating", "event", event)
			// Let bursts of writes settle before re-reading the tree.
			time.Sleep(100 * time.Millisecond)
			drain(watchCh)
			if !opts.JSON {
				printSystemMessage(out, "Change detected in '%s'.", event)
			}
		}
	}
}

func validateOnce(ctx context.Context, sys *portico.System, opts Options, out io.Writer, logger *slog.Logger) (*domain.ValidationReport, error) {
	report, err := sys.Validate(ctx, opts.CheckDisconnected)
	if report == nil {
		return nil, err
	}
	if err != nil {
		// Sinks failing does not invalidate the report itself.
		logger.Warn("report not published", "err", err)
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return report, enc.Encode(report)
	}

	fmt.Fprint(out, tui.RenderReport(report, isTerminal(out)))
	return report, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}

func drain(ch <-chan string) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
