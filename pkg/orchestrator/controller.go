package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/observability"
	"github.com/bufetemejia/counsel/pkg/ports"
)

// Default polling cadence against the reasoning runtime.
const (
	DefaultPollInterval = time.Second
	DefaultPollTimeout  = 90 * time.Second
)

// Controller owns the run lifecycle for a single turn: it posts the user's
// message, starts a run, polls it to a terminal or actionable state, and
// resumes it after tool outputs are submitted.
type Controller struct {
	runtime  ports.AgentRuntime
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// ControllerOption configures the Controller.
type ControllerOption func(*Controller)

// WithPollInterval sets the cadence of run status checks.
func WithPollInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.interval = d
	}
}

// WithPollTimeout bounds how long one poll phase may wait for a terminal or
// actionable state.
func WithPollTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithControllerLogger configures the controller's logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithControllerMetrics configures the controller's collectors.
func WithControllerMetrics(m *observability.Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// NewController creates a run controller over the given runtime.
func NewController(runtime ports.AgentRuntime, opts ...ControllerOption) *Controller {
	c := &Controller{
		runtime:  runtime,
		interval: DefaultPollInterval,
		timeout:  DefaultPollTimeout,
		logger:   logging.NewNop(),
		metrics:  observability.NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartTurn posts the utterance as a new message on the handle, starts a
// run, and polls it to the first terminal or actionable state.
func (c *Controller) StartTurn(ctx context.Context, handle, utterance string) (domain.RunSnapshot, error) {
	if err := c.runtime.AppendUserMessage(ctx, handle, utterance); err != nil {
		return domain.RunSnapshot{}, err
	}

	snap, err := c.runtime.StartRun(ctx, handle)
	if err != nil {
		return domain.RunSnapshot{}, err
	}
	c.logger.Debug("run started", "handle", handle, "run_id", snap.RunID)

	return c.Poll(ctx, snap)
}

// Poll blocks until the run reaches a terminal or actionable state, checking
// at the configured interval. Exceeding the configured timeout yields
// domain.ErrRunTimedOut; a cancelled context propagates its error. The
// waiting task is suspended between checks, never the process.
func (c *Controller) Poll(ctx context.Context, snap domain.RunSnapshot) (domain.RunSnapshot, error) {
	if snap.Status.Terminal() || snap.Status.Actionable() {
		return snap, nil
	}

	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return snap, fmt.Errorf("polling run %s on %s: %w", snap.RunID, snap.Handle, ctx.Err())
		case <-deadline.C:
			return snap, fmt.Errorf("%w: run %s on %s after %s", domain.ErrRunTimedOut, snap.RunID, snap.Handle, c.timeout)
		case <-ticker.C:
			c.metrics.PollCycles.Inc()
			next, err := c.runtime.GetRun(ctx, snap.Handle, snap.RunID)
			if err != nil {
				return snap, fmt.Errorf("polling run %s on %s: %w", snap.RunID, snap.Handle, err)
			}
			snap = next
			if snap.Status.Terminal() || snap.Status.Actionable() {
				return snap, nil
			}
		}
	}
}

// Resume submits all outputs for the current requires-action round in one
// batch and re-enters polling. The output set must be an exact id match for
// the round's invocations; anything else is rejected before touching the
// runtime, since a partial submission would wedge the run.
func (c *Controller) Resume(ctx context.Context, snap domain.RunSnapshot, outputs []domain.ToolOutput) (domain.RunSnapshot, error) {
	if !snap.Status.Actionable() {
		return snap, fmt.Errorf("resume on run %s in state %s", snap.RunID, snap.Status)
	}
	if err := matchOutputs(snap.ToolCalls, outputs); err != nil {
		return snap, err
	}

	next, err := c.runtime.SubmitToolOutputs(ctx, snap.Handle, snap.RunID, outputs)
	if err != nil {
		return snap, fmt.Errorf("resuming run %s on %s: %w", snap.RunID, snap.Handle, err)
	}
	c.logger.Debug("run resumed", "handle", snap.Handle, "run_id", snap.RunID, "outputs", len(outputs))

	return c.Poll(ctx, next)
}

// Finalize reads back the most recent assistant message for a completed run.
func (c *Controller) Finalize(ctx context.Context, snap domain.RunSnapshot) (string, error) {
	if snap.Status != domain.RunStatusCompleted {
		return "", fmt.Errorf("finalize on run %s in state %s", snap.RunID, snap.Status)
	}

	// Newest-first per the runtime's ordering; the answer is the first
	// assistant-authored entry. No assumption about total entry count.
	messages, err := c.runtime.ListMessages(ctx, snap.Handle)
	if err != nil {
		return "", fmt.Errorf("reading answer on %s: %w", snap.Handle, err)
	}
	for _, msg := range messages {
		if msg.Role == domain.RoleAssistant {
			return msg.Content, nil
		}
	}
	return "", fmt.Errorf("no assistant message on %s after completed run %s", snap.Handle, snap.RunID)
}

// matchOutputs verifies outputs are a permutation of the requested ids.
func matchOutputs(calls []domain.ToolCall, outputs []domain.ToolOutput) error {
	if len(outputs) != len(calls) {
		return fmt.Errorf("tool output count mismatch: %d outputs for %d invocations", len(outputs), len(calls))
	}

	wanted := make(map[string]bool, len(calls))
	for _, call := range calls {
		wanted[call.ID] = true
	}
	for _, out := range outputs {
		if !wanted[out.ID] {
			return fmt.Errorf("tool output for unknown invocation %q", out.ID)
		}
		delete(wanted, out.ID)
	}
	return nil
}
