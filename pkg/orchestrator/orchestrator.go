package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/observability"
	"github.com/bufetemejia/counsel/pkg/ports"
	"github.com/bufetemejia/counsel/pkg/session"
)

// TurnRequest is one user message against a conversation.
type TurnRequest struct {
	OwnerID string
	// Handle is empty on the first turn of a new conversation.
	Handle string
	Query  string
	// ScopeHint optionally pins the retrieval scope; when empty the scope is
	// inferred from the query text.
	ScopeHint string
}

// TurnResult is the completed turn's answer and its conversation handle.
type TurnResult struct {
	AnswerText string
	Handle     string
	// Created reports whether this turn started a new conversation.
	Created bool
}

// Orchestrator coordinates one turn end to end: handle and record
// management, the run lifecycle, and tool dispatch.
type Orchestrator struct {
	runtime    ports.AgentRuntime
	store      ports.ConversationStore
	retriever  ports.Retriever
	controller *Controller
	dispatcher ports.ToolDispatcher
	guard      *session.Guard
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger configures the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics configures the collectors shared across the pipeline.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithGuard substitutes the per-handle turn guard (e.g. one backed by a
// distributed locker).
func WithGuard(guard *session.Guard) Option {
	return func(o *Orchestrator) {
		o.guard = guard
	}
}

// WithController substitutes the run controller.
func WithController(c *Controller) Option {
	return func(o *Orchestrator) {
		o.controller = c
	}
}

// WithDispatcher substitutes the tool dispatcher.
func WithDispatcher(d ports.ToolDispatcher) Option {
	return func(o *Orchestrator) {
		o.dispatcher = d
	}
}

// New creates a turn orchestrator. Controller and dispatcher default to
// implementations over the given runtime and retriever; options may replace
// any collaborator.
func New(runtime ports.AgentRuntime, store ports.ConversationStore, retriever ports.Retriever, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runtime:   runtime,
		store:     store,
		retriever: retriever,
		guard:     session.NewGuard(),
		logger:    logging.NewNop(),
		metrics:   observability.NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.controller == nil {
		o.controller = NewController(runtime,
			WithControllerLogger(o.logger),
			WithControllerMetrics(o.metrics),
		)
	}
	if o.dispatcher == nil {
		o.dispatcher = NewDispatcher(retriever,
			WithDispatcherLogger(o.logger),
			WithDispatcherMetrics(o.metrics),
		)
	}
	return o
}

// HandleTurn runs one user message to completion and returns the assistant's
// answer. Concurrent turns on the same handle are rejected with
// domain.ErrConversationBusy; turns on distinct handles proceed in parallel.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	start := time.Now()
	result, err := o.handleTurn(ctx, req)

	outcome := observability.OutcomeCompleted
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConversationBusy):
		outcome = observability.OutcomeBusy
	case errors.Is(err, domain.ErrRunTimedOut):
		outcome = observability.OutcomeTimeout
	default:
		outcome = observability.OutcomeFailed
	}
	o.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
	o.metrics.TurnDuration.Observe(time.Since(start).Seconds())

	return result, err
}

func (o *Orchestrator) handleTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	scope, _ := domain.ResolveScope(req.ScopeHint, req.Query, o.retriever.Scopes())

	handle := req.Handle
	created := false
	if handle == "" {
		// Obtain the handle before taking the lock and inserting the
		// record: a conversation without a handle cannot exist.
		h, err := o.runtime.CreateThread(ctx)
		if err != nil {
			return TurnResult{}, fmt.Errorf("creating conversation: %w", err)
		}
		handle = h
		created = true
	}

	var answer string
	err := o.guard.Run(ctx, handle, func(ctx context.Context) error {
		if _, err := o.store.Ensure(ctx, req.OwnerID, handle, req.Query); err != nil {
			// A new conversation without a record would be orphaned and
			// unreachable from history, so this escalates.
			return fmt.Errorf("ensuring conversation record for %s: %w", handle, err)
		}

		snap, err := o.controller.StartTurn(ctx, handle, req.Query)
		if err != nil {
			return err
		}

		// The runtime may request further tool rounds after a resume; loop
		// until the run is terminal rather than assuming a single hop.
		for snap.Status.Actionable() {
			o.metrics.ActionRounds.Inc()
			o.logger.Info("tool round requested", "handle", handle, "run_id", snap.RunID, "invocations", len(snap.ToolCalls))

			outputs, err := o.dispatcher.Dispatch(ctx, snap.ToolCalls, scope)
			if err != nil {
				return fmt.Errorf("dispatching tool round for run %s: %w", snap.RunID, err)
			}
			snap, err = o.controller.Resume(ctx, snap, outputs)
			if err != nil {
				return err
			}
		}

		if snap.Status != domain.RunStatusCompleted {
			return fmt.Errorf("%w: run %s on %s: %s", domain.ErrRunFailed, snap.RunID, handle, snap.LastError)
		}

		answer, err = o.controller.Finalize(ctx, snap)
		if err != nil {
			return err
		}

		// Freshness reflects only successful turns; a failed touch on an
		// existing record is logged, not propagated.
		if err := o.store.Touch(ctx, handle); err != nil {
			o.logger.Warn("failed to touch conversation record", "handle", handle, "err", err)
		}
		return nil
	})
	if err != nil {
		return TurnResult{}, err
	}

	return TurnResult{AnswerText: answer, Handle: handle, Created: created}, nil
}

// Transcript returns the conversation's messages oldest to newest.
func (o *Orchestrator) Transcript(ctx context.Context, handle string) ([]domain.Message, error) {
	messages, err := o.runtime.ListMessages(ctx, handle)
	if err != nil {
		return nil, err
	}
	// The runtime lists newest-first; history reads chronologically.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Conversations lists the owner's conversations, most recent first.
func (o *Orchestrator) Conversations(ctx context.Context, ownerID string) ([]domain.ConversationRecord, error) {
	return o.store.List(ctx, ownerID)
}
