// Package testutils provides scripted fakes for the external collaborators:
// a reasoning runtime whose runs walk a fixed status script, and a retriever
// answering from a canned corpus.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bufetemejia/counsel/pkg/domain"
)

// RunStep is one scripted state the fake runtime reports for a run.
type RunStep struct {
	Status    domain.RunStatus
	ToolCalls []domain.ToolCall
	LastError string
}

// FakeRuntime implements ports.AgentRuntime against an in-memory script.
//
// Each call to StartRun consumes the next script from Scripts. Within a run,
// every GetRun (or the snapshot returned by StartRun/SubmitToolOutputs)
// advances one RunStep; the final step repeats once reached.
type FakeRuntime struct {
	mu sync.Mutex

	// Scripts are consumed in order, one per started run.
	Scripts [][]RunStep

	// Answers are appended as assistant messages when a run's script reaches
	// a completed state; consumed in order.
	Answers []string

	threadSeq  int
	runSeq     int
	messages   map[string][]domain.Message // newest-first, per handle
	runs       map[string]*fakeRun
	submitted  map[string][][]domain.ToolOutput
	StartErr   error
	MessageErr error
}

type fakeRun struct {
	handle string
	script []RunStep
	pos    int
}

// NewFakeRuntime creates an empty fake runtime.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{
		messages:  make(map[string][]domain.Message),
		runs:      make(map[string]*fakeRun),
		submitted: make(map[string][][]domain.ToolOutput),
	}
}

// CreateThread issues handles thread-1, thread-2, ...
func (f *FakeRuntime) CreateThread(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threadSeq++
	handle := fmt.Sprintf("thread-%d", f.threadSeq)
	f.messages[handle] = nil
	return handle, nil
}

// AppendUserMessage records the message newest-first.
func (f *FakeRuntime) AppendUserMessage(ctx context.Context, handle, text string) error {
	if f.MessageErr != nil {
		return f.MessageErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepend(handle, domain.RoleUser, text)
	return nil
}

// StartRun consumes the next script and returns its first step.
func (f *FakeRuntime) StartRun(ctx context.Context, handle string) (domain.RunSnapshot, error) {
	if f.StartErr != nil {
		return domain.RunSnapshot{}, f.StartErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Scripts) == 0 {
		return domain.RunSnapshot{}, fmt.Errorf("fake runtime: no script for run on %s", handle)
	}
	script := f.Scripts[0]
	f.Scripts = f.Scripts[1:]

	f.runSeq++
	runID := fmt.Sprintf("run-%d", f.runSeq)
	run := &fakeRun{handle: handle, script: script}
	f.runs[runID] = run

	return f.snapshot(runID, run), nil
}

// GetRun advances the run's script one step.
func (f *FakeRuntime) GetRun(ctx context.Context, handle, runID string) (domain.RunSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	run, ok := f.runs[runID]
	if !ok {
		return domain.RunSnapshot{}, fmt.Errorf("fake runtime: unknown run %s", runID)
	}
	run.advance()
	return f.snapshot(runID, run), nil
}

// SubmitToolOutputs records the batch and advances past the action step.
func (f *FakeRuntime) SubmitToolOutputs(ctx context.Context, handle, runID string, outputs []domain.ToolOutput) (domain.RunSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	run, ok := f.runs[runID]
	if !ok {
		return domain.RunSnapshot{}, fmt.Errorf("fake runtime: unknown run %s", runID)
	}
	f.submitted[runID] = append(f.submitted[runID], outputs)
	run.advance()
	return f.snapshot(runID, run), nil
}

// ListMessages returns the handle's transcript newest-first.
func (f *FakeRuntime) ListMessages(ctx context.Context, handle string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Message, len(f.messages[handle]))
	copy(out, f.messages[handle])
	return out, nil
}

// Submitted returns the tool output batches recorded for a run.
func (f *FakeRuntime) Submitted(runID string) [][]domain.ToolOutput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted[runID]
}

func (f *FakeRuntime) prepend(handle, role, text string) {
	msgs := f.messages[handle]
	msg := domain.Message{ID: fmt.Sprintf("msg-%d", len(msgs)+1), Role: role, Content: text}
	f.messages[handle] = append([]domain.Message{msg}, msgs...)
}

// snapshot renders the run's current step; completing a run appends the next
// canned answer to the transcript. Callers hold f.mu.
func (f *FakeRuntime) snapshot(runID string, run *fakeRun) domain.RunSnapshot {
	step := run.script[run.pos]
	if step.Status == domain.RunStatusCompleted && len(f.Answers) > 0 {
		f.prepend(run.handle, domain.RoleAssistant, f.Answers[0])
		f.Answers = f.Answers[1:]
	}
	return domain.RunSnapshot{
		RunID:     runID,
		Handle:    run.handle,
		Status:    step.Status,
		ToolCalls: step.ToolCalls,
		LastError: step.LastError,
	}
}

func (r *fakeRun) advance() {
	if r.pos < len(r.script)-1 {
		r.pos++
	}
}

// FakeRetriever implements ports.Retriever over a canned corpus keyed by scope.
type FakeRetriever struct {
	mu sync.Mutex

	// Evidence maps scope -> evidence block returned for any query.
	Evidence map[string]string

	// Fail marks scopes whose backend is down.
	Fail map[string]bool

	// Queries records every search issued.
	Queries []string
}

// Scopes returns the configured scope names.
func (f *FakeRetriever) Scopes() []string {
	scopes := make([]string, 0, len(f.Evidence))
	for scope := range f.Evidence {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Search answers from the corpus.
func (f *FakeRetriever) Search(ctx context.Context, query, scope string) (string, error) {
	f.mu.Lock()
	f.Queries = append(f.Queries, query)
	f.mu.Unlock()

	if f.Fail[scope] {
		return "", fmt.Errorf("%w: scope %q: connection refused", domain.ErrRetrievalUnavailable, scope)
	}
	evidence, ok := f.Evidence[scope]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownScope, scope)
	}
	return evidence, nil
}
