package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/portico"
	"github.com/aretw0/portico/pkg/domain"
)

// TransitionResponse provides a unified transition view across adapters.
type TransitionResponse struct {
	InProgress      bool                      `json:"in_progress" jsonschema_description:"Whether a transition is running"`
	State           domain.TransitionState    `json:"state" jsonschema_description:"Current controller phase"`
	ActivePartition domain.PartitionKey       `json:"active_partition" jsonschema_description:"The active partition"`
	Request         *domain.TransitionRequest `json:"request,omitempty" jsonschema_description:"The latest accepted request"`
	Portal          *domain.Destination       `json:"portal,omitempty" jsonschema_description:"The destination portal, once resolved"`
	Error           string                    `json:"error,omitempty" jsonschema_description:"Why the latest transition did not fully succeed"`
}

// GateResponse reports the activation gate.
type GateResponse struct {
	Allowed bool `json:"allowed" jsonschema_description:"Whether loaded partitions may be activated"`
}

// System defines the interface required by the MCP server.
type System interface {
	Travel(ctx context.Context, dest domain.PartitionKey, portalID int) (*portico.Transition, error)
	Current() *portico.Transition
	InProgress() bool
	State() domain.TransitionState
	ActivePartition() domain.PartitionKey
	SetActivationAllowed(allowed bool)
	ActivationAllowed() bool
	Validate(ctx context.Context, checkDisconnected bool) (*domain.ValidationReport, error)
	Inspect(ctx context.Context) ([]domain.PartitionSpec, error)
}

// Server wraps a Portico System and exposes it as an MCP Server.
type Server struct {
	system    System
	mcpServer *server.MCPServer

	mu     sync.RWMutex
	report *domain.ValidationReport
}

// NewServer creates a new MCP Server instance.
func NewServer(system System) *Server {
	s := &Server{
		system:    system,
		mcpServer: server.NewMCPServer("portico-mcp", strings.TrimSpace(portico.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: begin_transition
	beginTool := mcp.NewTool("begin_transition",
		mcp.WithDescription("Move to a portal in another partition. Rejected if a transition is already running."),
		mcp.WithString("partition", mcp.Required(), mcp.Description("Destination partition key")),
		mcp.WithNumber("portal_id", mcp.Required(), mcp.Description("Destination portal id")),
		mcp.WithBoolean("wait", mcp.Description("Block until the transition finishes (default false)")),
		mcp.WithOutputSchema[TransitionResponse](),
	)
	s.mcpServer.AddTool(beginTool, mcp.NewStructuredToolHandler(s.handleBeginTransition))

	// TOOL: transition_status
	statusTool := mcp.NewTool("transition_status",
		mcp.WithDescription("Report the controller phase, the active partition and the latest transition."),
		mcp.WithOutputSchema[TransitionResponse](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleTransitionStatus))

	// TOOL: set_activation_gate
	gateTool := mcp.NewTool("set_activation_gate",
		mcp.WithDescription("Allow or hold back the activation of loaded partitions."),
		mcp.WithBoolean("allowed", mcp.Required(), mcp.Description("true to allow activation")),
		mcp.WithOutputSchema[GateResponse](),
	)
	s.mcpServer.AddTool(gateTool, mcp.NewStructuredToolHandler(s.handleSetGate))

	// TOOL: validate_portals
	validateTool := mcp.NewTool("validate_portals",
		mcp.WithDescription("Check every partition for duplicate ids, self-loops and dangling destinations."),
		mcp.WithBoolean("check_disconnected", mcp.Description("Also report portals without a destination")),
		mcp.WithOutputSchema[domain.ValidationReport](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: get_partitions
	s.mcpServer.AddTool(mcp.NewTool("get_partitions",
		mcp.WithDescription("Get every partition definition for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		specs, err := s.system.Inspect(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(specs)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleBeginTransition(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TransitionResponse, error) {
	partition, _ := args["partition"].(string)
	portalID, err := intArg(args, "portal_id")
	if err != nil {
		return TransitionResponse{}, err
	}
	wait, _ := args["wait"].(bool)

	t, err := s.system.Travel(ctx, domain.NormalizeKey(partition), portalID)
	if err != nil {
		return TransitionResponse{}, fmt.Errorf("transition rejected: %w", err)
	}
	if wait {
		// The transition's own outcome is part of the response.
		_ = t.Wait(ctx)
	}
	return s.status(t), nil
}

func (s *Server) handleTransitionStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TransitionResponse, error) {
	return s.status(s.system.Current()), nil
}

func (s *Server) handleSetGate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GateResponse, error) {
	allowed, ok := args["allowed"].(bool)
	if !ok {
		return GateResponse{}, fmt.Errorf("allowed must be a boolean")
	}
	s.system.SetActivationAllowed(allowed)
	return GateResponse{Allowed: s.system.ActivationAllowed()}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.ValidationReport, error) {
	check, _ := args["check_disconnected"].(bool)
	report, err := s.system.Validate(ctx, check)
	if report == nil {
		return domain.ValidationReport{}, fmt.Errorf("validate failed: %w", err)
	}
	if err != nil {
		slog.Warn("MCP Validate: report not published everywhere", "error", err)
	}

	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	return *report, nil
}

func (s *Server) status(t *portico.Transition) TransitionResponse {
	resp := TransitionResponse{
		InProgress:      s.system.InProgress(),
		State:           s.system.State(),
		ActivePartition: s.system.ActivePartition(),
	}
	if t == nil {
		return resp
	}
	req := t.Request()
	resp.Request = &req
	if p := t.Portal(); p != nil {
		resp.Portal = &domain.Destination{Partition: p.Partition, ID: p.ID}
	}
	if err := t.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func intArg(args map[string]interface{}, name string) (int, error) {
	switch v := args[name].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}

func (s *Server) registerResources() {
	// EXPOSE: portico://partitions
	s.mcpServer.AddResource(mcp.NewResource("portico://partitions", "Partition Definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		specs, err := s.system.Inspect(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect partitions: %w", err)
		}
		jsonBytes, _ := json.Marshal(specs)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "portico://partitions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: portico://report
	s.mcpServer.AddResource(mcp.NewResource("portico://report", "Latest Validation Report",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.RLock()
		report := s.report
		s.mu.RUnlock()
		if report == nil {
			return nil, fmt.Errorf("no validation has run yet")
		}
		jsonBytes, _ := json.Marshal(report)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "portico://report",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
