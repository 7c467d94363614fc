// Package http exposes the turn orchestrator over a JSON API: one endpoint
// to run a turn, read endpoints for transcripts and conversation lists, an
// SSE feed of store changes, and admin provisioning.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/orchestrator"
	"github.com/bufetemejia/counsel/pkg/ports"
)

// Service is the slice of the orchestrator the API needs.
type Service interface {
	HandleTurn(ctx context.Context, req orchestrator.TurnRequest) (orchestrator.TurnResult, error)
	Transcript(ctx context.Context, handle string) ([]domain.Message, error)
	Conversations(ctx context.Context, ownerID string) ([]domain.ConversationRecord, error)
}

// Server routes API requests to the orchestrator.
type Server struct {
	service     Service
	provisioner ports.AssistantProvisioner
	watcher     ports.WatchableStore
	registry    *prometheus.Registry
	logger      *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithProvisioner enables POST /admin/provision.
func WithProvisioner(p ports.AssistantProvisioner) Option {
	return func(s *Server) {
		s.provisioner = p
	}
}

// WithWatcher enables the GET /events SSE feed of conversation changes.
func WithWatcher(w ports.WatchableStore) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// WithRegistry enables GET /metrics over the given registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithServerLogger configures the request logger.
func WithServerLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler builds the API handler around the orchestrator.
func NewHandler(service Service, opts ...Option) http.Handler {
	s := &Server{
		service: service,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Post("/turn", s.Turn)
	r.Post("/history", s.History)
	r.Get("/conversations", s.Conversations)
	r.Get("/healthz", s.Health)
	if s.watcher != nil {
		r.Get("/events", s.SubscribeEvents)
	}
	if s.provisioner != nil {
		r.Post("/admin/provision", s.Provision)
	}
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
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

// TurnRequest is the POST /turn body.
type TurnRequest struct {
	OwnerID  string `json:"owner_id"`
	Handle   string `json:"handle,omitempty"`
	Question string `json:"question"`
	Country  string `json:"country,omitempty"`
}

// TurnResponse is the POST /turn reply.
type TurnResponse struct {
	Answer  string `json:"answer"`
	Handle  string `json:"handle"`
	Created bool   `json:"created"`
}

// Turn handles POST /turn.
func (s *Server) Turn(w http.ResponseWriter, r *http.Request) {
	var body TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("turn: invalid request body", "err", err)
		return
	}
	if body.OwnerID == "" || body.Question == "" {
		http.Error(w, "owner_id and question are required", http.StatusBadRequest)
		return
	}

	result, err := s.service.HandleTurn(r.Context(), orchestrator.TurnRequest{
		OwnerID:   body.OwnerID,
		Handle:    body.Handle,
		Query:     body.Question,
		ScopeHint: body.Country,
	})
	if err != nil {
		s.writeError(w, "Turn", err)
		return
	}

	writeJSON(w, s.logger, TurnResponse{
		Answer:  result.AnswerText,
		Handle:  result.Handle,
		Created: result.Created,
	})
}

// HistoryRequest is the POST /history body.
type HistoryRequest struct {
	Handle string `json:"handle"`
}

// HistoryResponse is the POST /history reply. Messages are ordered oldest
// to newest.
type HistoryResponse struct {
	Handle   string           `json:"handle"`
	Messages []domain.Message `json:"messages"`
}

// History handles POST /history.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	var body HistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("history: invalid request body", "err", err)
		return
	}
	if body.Handle == "" {
		http.Error(w, "handle is required", http.StatusBadRequest)
		return
	}

	messages, err := s.service.Transcript(r.Context(), body.Handle)
	if err != nil {
		s.writeError(w, "History", err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	writeJSON(w, s.logger, HistoryResponse{Handle: body.Handle, Messages: messages})
}

// ConversationsResponse is the GET /conversations reply, most recent first.
type ConversationsResponse struct {
	Conversations []domain.ConversationRecord `json:"conversations"`
}

// Conversations handles GET /conversations?owner=.
func (s *Server) Conversations(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner query parameter is required", http.StatusBadRequest)
		return
	}

	records, err := s.service.Conversations(r.Context(), owner)
	if err != nil {
		s.writeError(w, "Conversations", err)
		return
	}
	if records == nil {
		records = []domain.ConversationRecord{}
	}

	writeJSON(w, s.logger, ConversationsResponse{Conversations: records})
}

// ProvisionRequest is the POST /admin/provision body. Empty fields fall back
// to the stock assistant brief.
type ProvisionRequest struct {
	Name         string `json:"name,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// ProvisionResponse is the POST /admin/provision reply.
type ProvisionResponse struct {
	AssistantID string `json:"assistant_id"`
}

// Provision handles POST /admin/provision.
func (s *Server) Provision(w http.ResponseWriter, r *http.Request) {
	var body ProvisionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			s.logger.Warn("provision: invalid request body", "err", err)
			return
		}
	}
	if body.Name == "" {
		body.Name = domain.DefaultAssistantName
	}
	if body.Instructions == "" {
		body.Instructions = domain.DefaultAssistantInstructions
	}

	id, err := s.provisioner.ProvisionAssistant(r.Context(), body.Name, body.Instructions, []domain.Tool{domain.SearchLegalBasisTool()})
	if err != nil {
		s.writeError(w, "Provision", err)
		return
	}
	s.logger.Info("assistant provisioned", "assistant_id", id, "name", body.Name)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSONBody(w, s.logger, ProvisionResponse{AssistantID: id})
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// SubscribeEvents handles GET /events (SSE). Each conversation store change
// is pushed as one JSON event; clients refetch their list on receipt.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("events: streaming not supported")
		return
	}

	changes, err := s.watcher.Watch(r.Context())
	if err != nil {
		s.writeError(w, "Events", err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("events: client disconnected")
			return
		case change, open := <-changes:
			if !open {
				return
			}
			payload, err := json.Marshal(change)
			if err != nil {
				s.logger.Error("events: encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// writeError maps orchestration failures onto status codes. Internal detail
// stays in the log; the client sees only the operation name.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationBusy):
		http.Error(w, "Conversation is processing another message", http.StatusConflict)
	case errors.Is(err, domain.ErrConversationNotFound):
		http.Error(w, "Conversation not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrRunTimedOut):
		http.Error(w, fmt.Sprintf("%s timed out", op), http.StatusGatewayTimeout)
	default:
		http.Error(w, fmt.Sprintf("%s error", op), http.StatusInternalServerError)
		s.logger.Error(op+" failed", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	writeJSONBody(w, logger, v)
}

func writeJSONBody(w http.ResponseWriter, logger *slog.Logger, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
