package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/internal/logging"
	graphview "github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const (
	graphURI   = "espalier://graph"
	mermaidURI = "espalier://graph/mermaid"
)

// ExecuteResponse aligns with the HTTP adapter and provides a unified structure across adapters.
type ExecuteResponse struct {
	Resolution *domain.Resolution `json:"resolution,omitempty" jsonschema_description:"Graph result merged with the direct parameters"`
	Error      string             `json:"error,omitempty" jsonschema_description:"Set when the merged parameters are incomplete or invalid"`
}

// ValidateResponse is returned by the validate_graph tool.
type ValidateResponse struct {
	Valid    bool            `json:"valid" jsonschema_description:"True when no finding is an error"`
	Findings domain.Findings `json:"findings" jsonschema_description:"Structural, field, parameter and coverage findings"`
}

// Engine is the part of the espalier engine exposed to MCP clients.
// *espalier.Engine implements it.
type Engine interface {
	Graph() *domain.Graph
	Findings() domain.Findings
	Fields() *schema.FieldSet
	Parameters() *schema.Parameters
	Resolve(rec domain.Record, direct domain.Assignments) (*domain.Resolution, error)
	Validate(g *domain.Graph) domain.Findings
}

// Server wraps the espalier Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("espalier-mcp", espalier.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and shuts it down
// when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
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
	s.mcpServer.AddTool(mcp.NewTool("describe_schema",
		mcp.WithDescription("Describe the input fields a record may carry and the output parameters the graph must assign."),
	), s.handleDescribeSchema)

	s.mcpServer.AddTool(mcp.NewTool("execute_record",
		mcp.WithDescription("Execute the loaded graph against one record and merge the direct parameters."),
		mcp.WithString("record", mcp.Required(), mcp.Description("JSON object mapping field names to values")),
		mcp.WithString("direct", mcp.Description("JSON object of direct parameters (optional)")),
		mcp.WithOutputSchema[ExecuteResponse](),
	), mcp.NewStructuredToolHandler(s.handleExecute))

	s.mcpServer.AddTool(mcp.NewTool("validate_graph",
		mcp.WithDescription("Validate a candidate graph document against the loaded schemas without replacing the loaded graph."),
		mcp.WithString("graph", mcp.Required(), mcp.Description("JSON graph document with description, entry_node_ids, components and nodes")),
		mcp.WithOutputSchema[ValidateResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("render_graph",
		mcp.WithDescription("Render the loaded graph as a Mermaid flowchart. With a record, the visited path is highlighted."),
		mcp.WithString("record", mcp.Description("JSON object of a record to trace (optional)")),
	), s.handleRenderGraph)

	s.mcpServer.AddTool(mcp.NewTool("get_findings",
		mcp.WithDescription("List the validation findings of the loaded graph."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.engine.Findings())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleDescribeSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := s.engine.Parameters().Describe()
	if fields := s.engine.Fields(); fields != nil {
		text = fields.Describe() + "\n\n" + text
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExecuteResponse, error) {
	rec, err := recordArg(args, "record")
	if err != nil {
		return ExecuteResponse{}, err
	}
	var direct domain.Assignments
	if raw, ok := args["direct"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &direct); err != nil {
			return ExecuteResponse{}, fmt.Errorf("invalid direct parameters: %w", err)
		}
	}

	resolution, err := s.engine.Resolve(rec, direct)
	if err != nil && resolution == nil {
		return ExecuteResponse{}, fmt.Errorf("execute failed: %w", err)
	}
	if err != nil {
		s.logger.Debug("MCP execute: resolution incomplete", "err", err)
		return ExecuteResponse{Resolution: resolution, Error: err.Error()}, nil
	}
	return ExecuteResponse{Resolution: resolution}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	raw, _ := args["graph"].(string)
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return ValidateResponse{}, fmt.Errorf("graph is not a JSON object: %w", err)
	}
	parsed, err := dto.DecodeGraph(doc)
	if err != nil {
		return ValidateResponse{}, err
	}
	g, err := parsed.ToDomain()
	if err != nil {
		return ValidateResponse{}, err
	}

	findings := s.engine.Validate(g)
	if findings == nil {
		findings = domain.Findings{}
	}
	return ValidateResponse{Valid: !findings.HasErrors(), Findings: findings}, nil
}

func (s *Server) handleRenderGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.engine.Graph()
	var overlay *graphview.Overlay

	args := request.GetArguments()
	if raw, ok := args["record"].(string); ok && raw != "" {
		rec, err := recordArg(args, "record")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		resolution, err := s.engine.Resolve(rec, nil)
		if resolution == nil {
			return mcp.NewToolResultError(fmt.Sprintf("execute failed: %v", err)), nil
		}
		overlay = graphview.OverlayFromTrace(resolution.Result.Trace)
	}
	return mcp.NewToolResultText(graphview.GenerateMermaid(g, overlay)), nil
}

func recordArg(args map[string]interface{}, key string) (domain.Record, error) {
	raw, _ := args[key].(string)
	if raw == "" {
		return domain.Record{}, nil
	}
	var rec domain.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	if rec == nil {
		rec = domain.Record{}
	}
	return rec, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Current Graph Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(dto.FromDomain(s.engine.Graph()))
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(mermaidURI, "Current Graph Flowchart",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      mermaidURI,
				MIMEType: "text/plain",
				Text:     graphview.GenerateMermaid(s.engine.Graph(), nil),
			},
		}, nil
	})
}
