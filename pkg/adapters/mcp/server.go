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

	"github.com/aretw0/flux"
	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/middleware"
)

// DefaultSession is the session used when a call names none.
const DefaultSession = "default"

// StateURI is the resource holding the default session tree.
const StateURI = "flux://state"

const sessionStatePrefix = "flux://sessions/"

// Sessions is the session surface exposed over MCP.
type Sessions interface {
	List(ctx context.Context) ([]string, error)
	State(ctx context.Context, sessionID string) (*domain.State, error)
	Dispatch(ctx context.Context, sessionID string, action domain.Action) (*domain.State, error)
	History(ctx context.Context, sessionID string) ([]middleware.Entry, error)
}

// SessionsResponse is the structured output of list_sessions.
type SessionsResponse struct {
	Sessions []string `json:"sessions" jsonschema_description:"Known session ids"`
}

// Server wraps the session manager and exposes it as an MCP server.
type Server struct {
	sessions       Sessions
	defaultSession string
	logger         *slog.Logger
	mcpServer      *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithDefaultSession overrides DefaultSession.
func WithDefaultSession(id string) Option {
	return func(s *Server) {
		if id != "" {
			s.defaultSession = id
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP server instance.
func NewServer(sessions Sessions, opts ...Option) *Server {
	s := &Server{
		sessions:       sessions,
		defaultSession: DefaultSession,
		logger:         logging.NewNop(),
		mcpServer: server.NewMCPServer("flux-mcp", flux.Version,
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

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
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

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Dispatch an action (or a named effect such as STORE_RESULT_ASYNC) into a session and return the resulting state."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Action type, e.g. INCREMENT, ADD, STORE_RESULT")),
		mcp.WithObject("payload", mcp.Description("Action payload, e.g. {\"val\": 5}")),
		mcp.WithString("session_id", mcp.Description("Session id (defaults to the server's default session)")),
	), s.handleDispatch)

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Return the state tree of a session."),
		mcp.WithString("session_id", mcp.Description("Session id (defaults to the server's default session)")),
	), s.handleGetState)

	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Return the actions dispatched into a session, oldest first."),
		mcp.WithString("session_id", mcp.Description("Session id (defaults to the server's default session)")),
	), s.handleGetHistory)

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List known session ids."),
		mcp.WithOutputSchema[SessionsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListSessions))
}

func (s *Server) sessionID(request mcp.CallToolRequest) string {
	return request.GetString("session_id", s.defaultSession)
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actionType, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	action := domain.Action{Type: domain.ActionType(actionType)}
	switch raw := request.GetArguments()["payload"].(type) {
	case nil:
	case map[string]any:
		action.Payload = raw
	case string:
		// Some clients send objects as JSON strings.
		if err := json.Unmarshal([]byte(raw), &action.Payload); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid payload: %v", err)), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid payload type %T", raw)), nil
	}

	id := s.sessionID(request)
	state, err := s.sessions.Dispatch(ctx, id, action)
	if err != nil {
		s.logger.Warn("MCP dispatch failed", "session_id", id, "type", action.Type, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("dispatch failed: %v", err)), nil
	}
	return jsonResult(state)
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.sessions.State(ctx, s.sessionID(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get state failed: %v", err)), nil
	}
	return jsonResult(state)
}

func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	history, err := s.sessions.History(ctx, s.sessionID(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get history failed: %v", err)), nil
	}
	if history == nil {
		history = []middleware.Entry{}
	}
	return jsonResult(history)
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (SessionsResponse, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return SessionsResponse{}, fmt.Errorf("list sessions failed: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return SessionsResponse{Sessions: ids}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Current State",
		mcp.WithResourceDescription("State tree of the default session"),
		mcp.WithMIMEType("application/json"),
	), s.readState)

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(sessionStatePrefix+"{id}/state", "Session State",
		mcp.WithTemplateDescription("State tree of a session"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readState)
}

func (s *Server) readState(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	id, err := s.sessionFromURI(uri)
	if err != nil {
		return nil, err
	}

	state, err := s.sessions.State(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) && id == s.defaultSession {
		state, err = domain.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state of %s: %w", id, err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) sessionFromURI(uri string) (string, error) {
	if uri == "" || uri == StateURI {
		return s.defaultSession, nil
	}
	rest, ok := strings.CutPrefix(uri, sessionStatePrefix)
	if ok {
		if id, ok := strings.CutSuffix(rest, "/state"); ok && id != "" && !strings.Contains(id, "/") {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown resource %s", uri)
}
