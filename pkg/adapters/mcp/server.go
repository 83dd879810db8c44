package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/internal/idgen"
	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
	"github.com/cmusatyalab/OpenWorkflow/internal/presentation/graph"
	"github.com/cmusatyalab/OpenWorkflow/internal/presentation/tui"
	"github.com/cmusatyalab/OpenWorkflow/internal/validator"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/dsl"
	"github.com/cmusatyalab/OpenWorkflow/pkg/session"
	"github.com/cmusatyalab/OpenWorkflow/pkg/zoo"
)

// ZooURI is the resource listing the callable kinds.
const ZooURI = "openworkflow://zoo"

// DocumentInput selects a stored document.
type DocumentInput struct {
	Name string `json:"name" jsonschema_description:"Name of the stored document"`
}

// GraphInput selects a document and a diagram format.
type GraphInput struct {
	Name     string `json:"name" jsonschema_description:"Name of the stored document"`
	Format   string `json:"format,omitempty" jsonschema_description:"mermaid (default) or dot"`
	Selected string `json:"selected,omitempty" jsonschema_description:"Element to highlight"`
}

// BuildInput is the argument of build_from_instructions.
type BuildInput struct {
	Name         string   `json:"name,omitempty" jsonschema_description:"Document name, generated when empty"`
	Instructions []string `json:"instructions" jsonschema_description:"One instruction per step"`
}

// DocumentList is the result of list_documents.
type DocumentList struct {
	Documents []string `json:"documents"`
}

// DocumentResult carries a document and the name it is stored under.
type DocumentResult struct {
	Name     string               `json:"name"`
	Document *domain.StateMachine `json:"document"`
}

// ValidationResult is the result of validate_document.
type ValidationResult struct {
	Valid bool `json:"valid"`
	*validator.Report
}

// Server exposes the stored documents as MCP tools.
type Server struct {
	docs       *session.Manager
	processors *zoo.Registry
	predicates *zoo.Registry
	logger     *slog.Logger
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistries serves custom zoos.
func WithRegistries(processors, predicates *zoo.Registry) Option {
	return func(s *Server) {
		s.processors = processors
		s.predicates = predicates
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(docs *session.Manager, opts ...Option) *Server {
	s := &Server{
		docs:       docs,
		processors: zoo.Processors,
		predicates: zoo.Predicates,
		logger:     logging.NewNop(),
		mcpServer: server.NewMCPServer("openworkflow-mcp", openworkflow.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL(addr)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the names of the stored workflow documents."),
		mcp.WithOutputSchema[DocumentList](),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get a stored workflow document as JSON."),
		mcp.WithInputSchema[DocumentInput](),
		mcp.WithOutputSchema[DocumentResult](),
	), s.handleGetDocument)

	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Check a document for structural violations, unreachable states and unknown callables."),
		mcp.WithInputSchema[DocumentInput](),
		mcp.WithOutputSchema[ValidationResult](),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("graph_document",
		mcp.WithDescription("Render a document as a Mermaid or Graphviz diagram."),
		mcp.WithInputSchema[GraphInput](),
	), s.handleGraph)

	s.mcpServer.AddTool(mcp.NewTool("processor_table",
		mcp.WithDescription("Summarize the processors of every state as a Markdown table."),
		mcp.WithInputSchema[DocumentInput](),
	), s.handleTable)

	s.mcpServer.AddTool(mcp.NewTool("build_from_instructions",
		mcp.WithDescription("Create or replace a linear workflow with one step per instruction."),
		mcp.WithInputSchema[BuildInput](),
		mcp.WithOutputSchema[DocumentResult](),
	), s.handleBuild)
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.docs.List(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("list failed", err), nil
	}
	if names == nil {
		names = []string{}
	}
	return mcp.NewToolResultStructuredOnly(DocumentList{Documents: names}), nil
}

func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, input, result := s.loadDocument(ctx, request)
	if result != nil {
		return result, nil
	}
	return mcp.NewToolResultStructuredOnly(DocumentResult{Name: input.Name, Document: doc}), nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, _, result := s.loadDocument(ctx, request)
	if result != nil {
		return result, nil
	}
	report := s.analyze(doc)
	return mcp.NewToolResultStructuredOnly(ValidationResult{Valid: report.Valid(), Report: report}), nil
}

// analyze checks doc against the server's zoo.
func (s *Server) analyze(doc *domain.StateMachine) *validator.Report {
	return validator.Analyze(doc, validator.WithRegistries(s.processors, s.predicates))
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input GraphInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid graph arguments", err), nil
	}
	doc, err := s.docs.Get(ctx, input.Name)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("load failed", err), nil
	}

	switch input.Format {
	case "", "mermaid":
		overlay := &graph.Overlay{
			Selected: input.Selected,
			Dimmed:   s.analyze(doc).Unreachable,
		}
		return mcp.NewToolResultText(graph.GenerateMermaid(doc, overlay)), nil
	case "dot":
		return mcp.NewToolResultText(graph.GenerateDOT(doc)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown graph format %q", input.Format)), nil
	}
}

func (s *Server) handleTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, _, result := s.loadDocument(ctx, request)
	if result != nil {
		return result, nil
	}
	return mcp.NewToolResultText(tui.ProcessorTable(doc)), nil
}

func (s *Server) handleBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input BuildInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid build arguments", err), nil
	}
	if len(input.Instructions) == 0 {
		return mcp.NewToolResultError("at least one instruction is required"), nil
	}
	lines, err := dsl.SanitizeInstructions(input.Instructions)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid instructions", err), nil
	}
	if input.Name == "" {
		input.Name = idgen.Unique(func(name string) bool {
			_, err := s.docs.Raw(ctx, name)
			return err == nil
		})
	}

	doc, err := s.docs.Upsert(ctx, input.Name, func(ed *openworkflow.Editor) error {
		return ed.LoadInstructions(lines)
	})
	if err != nil {
		return mcp.NewToolResultErrorFromErr("build failed", err), nil
	}
	s.logger.Info("document built", "document", input.Name, "states", len(doc.States))
	return mcp.NewToolResultStructuredOnly(DocumentResult{Name: input.Name, Document: doc}), nil
}

// loadDocument binds a DocumentInput and loads it. A non-nil result is the
// error to return to the client.
func (s *Server) loadDocument(ctx context.Context, request mcp.CallToolRequest) (*domain.StateMachine, DocumentInput, *mcp.CallToolResult) {
	var input DocumentInput
	if err := request.BindArguments(&input); err != nil {
		return nil, input, mcp.NewToolResultErrorFromErr("invalid arguments", err)
	}
	doc, err := s.docs.Get(ctx, input.Name)
	if err != nil {
		return nil, input, mcp.NewToolResultErrorFromErr("load failed", err)
	}
	return doc, input, nil
}

type zooResource struct {
	Processors []zoo.Kind `json:"processors"`
	Predicates []zoo.Kind `json:"predicates"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ZooURI, "Callable zoo",
		mcp.WithResourceDescription("Processor and predicate kinds with their argument schemas and defaults"),
		mcp.WithMIMEType("application/json"),
	), s.readZoo)
}

func (s *Server) readZoo(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(zooResource{
		Processors: s.processors.Kinds(),
		Predicates: s.predicates.Kinds(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode zoo: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ZooURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
