package ports

import (
	"context"

	"github.com/bufetemejia/counsel/pkg/domain"
)

// AgentRuntime exposes the reasoning runtime's thread, message and run
// primitives. The runtime owns all conversation state; the orchestrator only
// drives transitions and reads snapshots back.
type AgentRuntime interface {
	// CreateThread obtains a fresh conversation handle from the runtime.
	CreateThread(ctx context.Context) (string, error)

	// AppendUserMessage posts one user utterance onto the handle's thread.
	AppendUserMessage(ctx context.Context, handle, text string) error

	// StartRun starts a run over the thread's accumulated messages.
	StartRun(ctx context.Context, handle string) (domain.RunSnapshot, error)

	// GetRun re-reads the current snapshot of a run. Used by the poll loop.
	GetRun(ctx context.Context, handle, runID string) (domain.RunSnapshot, error)

	// SubmitToolOutputs answers a requires-action round. All outputs for the
	// round must be submitted in one call; the runtime rejects partial sets.
	SubmitToolOutputs(ctx context.Context, handle, runID string, outputs []domain.ToolOutput) (domain.RunSnapshot, error)

	// ListMessages returns the thread transcript newest-first, matching the
	// runtime's native ordering. Callers wanting chronology must reverse.
	ListMessages(ctx context.Context, handle string) ([]domain.Message, error)
}

// AssistantProvisioner registers the assistant and its capability descriptor
// with the runtime. Invoked by admin tooling, never on the turn hot path.
type AssistantProvisioner interface {
	ProvisionAssistant(ctx context.Context, name, instructions string, tools []domain.Tool) (string, error)
}
