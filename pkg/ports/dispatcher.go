package ports

import (
	"context"

	"github.com/bufetemejia/counsel/pkg/domain"
)

// ToolDispatcher resolves one requires-action round into the outputs the
// runtime needs to resume. Implementations must return exactly one output
// per call, matched by id; per-call failures become error-text outputs so
// the round can still resume. Only an unrecognized tool name aborts the
// round with domain.ErrUnsupportedTool.
//
// fallbackScope is the turn-level scope (explicit hint or inferred from the
// utterance) used when an invocation omits its own; empty means none.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, calls []domain.ToolCall, fallbackScope string) ([]domain.ToolOutput, error)
}
