package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/portico/internal/presentation/graph"
)

// RunGraph writes a Mermaid diagram of the portal graph. With overlay set,
// portals with validation issues and the start partition are highlighted.
func RunGraph(ctx context.Context, opts Options, out io.Writer, overlay bool) error {
	logger := createLogger(opts)

	sys, cleanup, err := createSystem(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	specs, err := sys.Inspect(ctx)
	if err != nil {
		return fmt.Errorf("error inspecting partitions: %w", err)
	}

	var ov *graph.GraphOverlay
	if overlay {
		report, err := sys.Validate(ctx, opts.CheckDisconnected)
		if report == nil {
			return err
		}
		ov = &graph.GraphOverlay{
			ActivePartition: sys.ActivePartition(),
			Report:          report,
		}
	}

	fmt.Fprint(out, graph.GenerateMermaid(specs, ov))
	return nil
}
