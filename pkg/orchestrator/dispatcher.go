package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/observability"
	"github.com/bufetemejia/counsel/pkg/ports"
)

// Dispatcher implements ports.ToolDispatcher over the retrieval client.
//
// Invocations in one round are independent read-only searches, so they fan
// out concurrently; the round's outputs are gathered before returning since
// the runtime accepts only complete batches. A failure in one invocation is
// confined to its own output: the model receives an explanation instead of
// evidence and the turn still completes.
type Dispatcher struct {
	retriever ports.Retriever
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger configures the dispatcher's logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithDispatcherMetrics configures the dispatcher's collectors.
func WithDispatcherMetrics(m *observability.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a tool dispatcher over the given retriever.
func NewDispatcher(retriever ports.Retriever, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		retriever: retriever,
		logger:    logging.NewNop(),
		metrics:   observability.NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves one requires-action round. An unrecognized tool name
// fails the whole round with domain.ErrUnsupportedTool before any search is
// issued; there is no output contract to answer it with.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []domain.ToolCall, fallbackScope string) ([]domain.ToolOutput, error) {
	for _, call := range calls {
		if call.Name != domain.ToolSearchLegalBasis {
			return nil, fmt.Errorf("%w: %q (invocation %s)", domain.ErrUnsupportedTool, call.Name, call.ID)
		}
	}

	outputs := make([]domain.ToolOutput, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call domain.ToolCall) {
			defer wg.Done()
			outputs[i] = d.resolve(ctx, call, fallbackScope)
		}(i, call)
	}
	wg.Wait()

	return outputs, nil
}

// resolve answers a single invocation, degrading to an error-text output on
// any per-invocation failure.
func (d *Dispatcher) resolve(ctx context.Context, call domain.ToolCall, fallbackScope string) domain.ToolOutput {
	args, err := domain.DecodeSearchArgs(call)
	if err != nil {
		return d.degraded(call, fmt.Sprintf("the tool arguments could not be understood: %v", err))
	}

	scope := args.Scope
	if scope == "" {
		scope = fallbackScope
	}
	if scope == "" {
		return d.degraded(call, "no country was specified and none could be inferred from the conversation")
	}

	evidence, err := d.retriever.Search(ctx, args.Keywords, scope)
	if err != nil {
		d.logger.Warn("retrieval failed", "invocation", call.ID, "scope", scope, "err", err)
		return d.degraded(call, fmt.Sprintf("the legal text search for %q in %q failed: %v", args.Keywords, scope, err))
	}

	d.metrics.DispatchTotal.WithLabelValues(observability.DispatchOK).Inc()
	return domain.ToolOutput{ID: call.ID, Output: evidence}
}

func (d *Dispatcher) degraded(call domain.ToolCall, reason string) domain.ToolOutput {
	d.metrics.DispatchTotal.WithLabelValues(observability.DispatchDegraded).Inc()
	return domain.ToolOutput{
		ID: call.ID,
		Output: "Search error: " + reason +
			" No supporting legal texts could be retrieved; answer from general knowledge and say so.",
	}
}
