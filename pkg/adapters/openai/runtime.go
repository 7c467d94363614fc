// Package openai adapts the OpenAI Assistants API to the ports.AgentRuntime
// contract: threads map to conversation handles, assistant runs to run
// snapshots, and requires_action payloads to domain tool calls.
package openai

import (
	"context"
	"fmt"

	"github.com/bufetemejia/counsel/pkg/domain"
	sdk "github.com/sashabaranov/go-openai"
)

// Runtime implements ports.AgentRuntime and ports.AssistantProvisioner.
type Runtime struct {
	client      *sdk.Client
	assistantID string
	model       string
}

// Option configures the Runtime.
type Option func(*Runtime)

// WithModel overrides the model used when provisioning the assistant.
func WithModel(model string) Option {
	return func(r *Runtime) {
		r.model = model
	}
}

// WithClient substitutes a pre-built SDK client (custom base URL, test server).
func WithClient(client *sdk.Client) Option {
	return func(r *Runtime) {
		r.client = client
	}
}

// NewRuntime creates a runtime adapter for the given credential and
// registered assistant id.
func NewRuntime(apiKey, assistantID string, opts ...Option) *Runtime {
	r := &Runtime{
		client:      sdk.NewClient(apiKey),
		assistantID: assistantID,
		model:       sdk.GPT4o,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateThread obtains a fresh conversation handle.
func (r *Runtime) CreateThread(ctx context.Context) (string, error) {
	thread, err := r.client.CreateThread(ctx, sdk.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("creating thread: %w", err)
	}
	return thread.ID, nil
}

// AppendUserMessage posts one user utterance onto the thread.
func (r *Runtime) AppendUserMessage(ctx context.Context, handle, text string) error {
	_, err := r.client.CreateMessage(ctx, handle, sdk.MessageRequest{
		Role:    sdk.ChatMessageRoleUser,
		Content: text,
	})
	if err != nil {
		return fmt.Errorf("posting message on %s: %w", handle, err)
	}
	return nil
}

// StartRun starts an assistant run over the thread.
func (r *Runtime) StartRun(ctx context.Context, handle string) (domain.RunSnapshot, error) {
	run, err := r.client.CreateRun(ctx, handle, sdk.RunRequest{AssistantID: r.assistantID})
	if err != nil {
		return domain.RunSnapshot{}, fmt.Errorf("starting run on %s: %w", handle, err)
	}
	return mapRun(handle, run), nil
}

// GetRun re-reads the run snapshot.
func (r *Runtime) GetRun(ctx context.Context, handle, runID string) (domain.RunSnapshot, error) {
	run, err := r.client.RetrieveRun(ctx, handle, runID)
	if err != nil {
		return domain.RunSnapshot{}, fmt.Errorf("retrieving run %s on %s: %w", runID, handle, err)
	}
	return mapRun(handle, run), nil
}

// SubmitToolOutputs answers a requires-action round in one batch.
func (r *Runtime) SubmitToolOutputs(ctx context.Context, handle, runID string, outputs []domain.ToolOutput) (domain.RunSnapshot, error) {
	payload := make([]sdk.ToolOutput, 0, len(outputs))
	for _, out := range outputs {
		payload = append(payload, sdk.ToolOutput{
			ToolCallID: out.ID,
			Output:     out.Output,
		})
	}

	run, err := r.client.SubmitToolOutputs(ctx, handle, runID, sdk.SubmitToolOutputsRequest{
		ToolOutputs: payload,
	})
	if err != nil {
		return domain.RunSnapshot{}, fmt.Errorf("submitting tool outputs for run %s on %s: %w", runID, handle, err)
	}

	// Right after submission the API reports queued/in_progress again; until
	// polling observes a real state the run is resuming.
	snap := mapRun(handle, run)
	if !snap.Status.Terminal() && !snap.Status.Actionable() {
		snap.Status = domain.RunStatusResuming
	}
	return snap, nil
}

// ListMessages returns the transcript newest-first (the API's native order).
func (r *Runtime) ListMessages(ctx context.Context, handle string) ([]domain.Message, error) {
	list, err := r.client.ListMessage(ctx, handle, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing messages on %s: %w", handle, err)
	}

	messages := make([]domain.Message, 0, len(list.Messages))
	for _, msg := range list.Messages {
		messages = append(messages, domain.Message{
			ID:      msg.ID,
			Role:    msg.Role,
			Content: firstText(msg),
		})
	}
	return messages, nil
}

// ProvisionAssistant registers the assistant with its capability descriptors.
func (r *Runtime) ProvisionAssistant(ctx context.Context, name, instructions string, tools []domain.Tool) (string, error) {
	assistantTools := make([]sdk.AssistantTool, 0, len(tools))
	for _, tool := range tools {
		assistantTools = append(assistantTools, sdk.AssistantTool{
			Type: sdk.AssistantToolTypeFunction,
			Function: &sdk.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	assistant, err := r.client.CreateAssistant(ctx, sdk.AssistantRequest{
		Model:        r.model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        assistantTools,
	})
	if err != nil {
		return "", fmt.Errorf("creating assistant: %w", err)
	}
	return assistant.ID, nil
}

// mapRun translates the SDK's run status vocabulary into the domain's.
func mapRun(handle string, run sdk.Run) domain.RunSnapshot {
	snap := domain.RunSnapshot{
		RunID:  run.ID,
		Handle: handle,
	}

	switch run.Status {
	case sdk.RunStatusQueued:
		snap.Status = domain.RunStatusCreated
	case sdk.RunStatusInProgress, sdk.RunStatusCancelling:
		snap.Status = domain.RunStatusRunning
	case sdk.RunStatusRequiresAction:
		snap.Status = domain.RunStatusRequiresAction
		snap.ToolCalls = mapToolCalls(run)
	case sdk.RunStatusCompleted:
		snap.Status = domain.RunStatusCompleted
	default:
		// failed, cancelled, expired and anything the API adds later.
		snap.Status = domain.RunStatusFailed
		if run.LastError != nil {
			snap.LastError = fmt.Sprintf("%s: %s", run.LastError.Code, run.LastError.Message)
		} else {
			snap.LastError = string(run.Status)
		}
	}
	return snap
}

func mapToolCalls(run sdk.Run) []domain.ToolCall {
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		return nil
	}

	calls := make([]domain.ToolCall, 0, len(run.RequiredAction.SubmitToolOutputs.ToolCalls))
	for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
		calls = append(calls, domain.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return calls
}

func firstText(msg sdk.Message) string {
	for _, part := range msg.Content {
		if part.Text != nil {
			return part.Text.Value
		}
	}
	return ""
}
