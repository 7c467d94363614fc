// Package mcp exposes the orchestrator and the retrieval backend as an MCP
// server, so agent hosts can drive conversations and search the legal corpus
// directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/orchestrator"
	"github.com/bufetemejia/counsel/pkg/ports"
)

// Service is the slice of the orchestrator the MCP tools need.
type Service interface {
	HandleTurn(ctx context.Context, req orchestrator.TurnRequest) (orchestrator.TurnResult, error)
	Transcript(ctx context.Context, handle string) ([]domain.Message, error)
	Conversations(ctx context.Context, ownerID string) ([]domain.ConversationRecord, error)
}

// TurnResponse is the structured result of the ask_counsel tool.
type TurnResponse struct {
	Answer  string `json:"answer" jsonschema_description:"The assistant's answer"`
	Handle  string `json:"handle" jsonschema_description:"The conversation handle for follow-up turns"`
	Created bool   `json:"created" jsonschema_description:"Whether this turn started a new conversation"`
}

// Server wraps the orchestrator and retriever as an MCP server.
type Server struct {
	service   Service
	retriever ports.Retriever
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server over the orchestrator and retriever.
func NewServer(service Service, retriever ports.Retriever, version string, opts ...Option) *Server {
	s := &Server{
		service:   service,
		retriever: retriever,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("counsel-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and blocks until
// ctx is cancelled or the listener fails.
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

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: ask_counsel
	askTool := mcp.NewTool("ask_counsel",
		mcp.WithDescription("Ask the legal drafting assistant a question. Pass the handle from a previous call to continue that conversation."),
		mcp.WithString("owner_id", mcp.Required(), mcp.Description("Identifier of the user asking")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask")),
		mcp.WithString("handle", mcp.Description("Conversation handle from a previous turn (omit to start fresh)")),
		mcp.WithString("country", mcp.Description("Country whose law the question concerns (optional, inferred from the question otherwise)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	// TOOL: search_legal_basis
	searchTool := mcp.NewTool("search_legal_basis",
		mcp.WithDescription("Search the legal corpus directly and return the matching statute excerpts."),
		mcp.WithString("keywords", mcp.Required(), mcp.Description("Search keywords")),
		mcp.WithString("country", mcp.Required(), mcp.Description("Country whose corpus to search")),
	)
	s.mcpServer.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		keywords := request.GetString("keywords", "")
		country := request.GetString("country", "")
		evidence, err := s.retriever.Search(ctx, keywords, country)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(evidence), nil
	})

	// TOOL: list_conversations
	s.mcpServer.AddTool(mcp.NewTool("list_conversations",
		mcp.WithDescription("List a user's conversations, most recent first."),
		mcp.WithString("owner_id", mcp.Required(), mcp.Description("Identifier of the user")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		records, err := s.service.Conversations(ctx, request.GetString("owner_id", ""))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(records)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_history
	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Read a conversation's transcript, oldest message first."),
		mcp.WithString("handle", mcp.Required(), mcp.Description("Conversation handle")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		messages, err := s.service.Transcript(ctx, request.GetString("handle", ""))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("transcript failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(messages)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	ownerID, _ := args["owner_id"].(string)
	question, _ := args["question"].(string)
	handle, _ := args["handle"].(string)
	country, _ := args["country"].(string)

	if ownerID == "" || question == "" {
		return TurnResponse{}, fmt.Errorf("owner_id and question are required")
	}

	result, err := s.service.HandleTurn(ctx, orchestrator.TurnRequest{
		OwnerID:   ownerID,
		Handle:    handle,
		Query:     question,
		ScopeHint: country,
	})
	if err != nil {
		s.logger.Warn("mcp turn failed", "owner_id", ownerID, "err", err)
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}

	return TurnResponse{
		Answer:  result.AnswerText,
		Handle:  result.Handle,
		Created: result.Created,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: counsel://scopes
	s.mcpServer.AddResource(mcp.NewResource("counsel://scopes", "Supported Retrieval Scopes",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.retriever.Scopes())
		if err != nil {
			return nil, fmt.Errorf("encoding scopes: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "counsel://scopes",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
