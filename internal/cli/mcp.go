package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/portico/pkg/adapters/mcp"
)

// RunMCP serves the system as an MCP server over stdio or SSE.
func RunMCP(ctx context.Context, opts Options, transport string) error {
	logger := createLogger(opts)
	slog.SetDefault(logger)

	sys, cleanup, err := createSystem(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mcp.NewServer(sys)

	switch transport {
	case "stdio":
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		logger.Info("Starting Portico MCP Server (Stdio)...")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting Portico MCP Server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	}
}
