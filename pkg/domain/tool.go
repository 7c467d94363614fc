package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ToolSearchLegalBasis is the single capability this orchestrator answers.
// The reasoning runtime is provisioned with exactly this function and the
// dispatcher treats any other name as ErrUnsupportedTool.
const ToolSearchLegalBasis = "searchLegalBasis"

// ToolCall represents a request from the reasoning runtime to the host to
// perform a side-effect before the run can continue.
// Compatible with OpenAI function-call payloads.
type ToolCall struct {
	// ID is the runtime-issued invocation id. The matching ToolOutput must
	// carry it back verbatim.
	ID string `json:"id"`

	// Name is the function name requested by the runtime.
	Name string `json:"name"`

	// Arguments is the raw JSON argument blob as emitted by the runtime.
	// It is decoded lazily so a malformed blob fails only its own
	// invocation, not the whole round.
	Arguments string `json:"arguments"`
}

// ToolOutput is the host's answer to one ToolCall, submitted back by id.
type ToolOutput struct {
	ID     string `json:"id"`
	Output string `json:"output"`
}

// SearchLegalBasisArgs is the decoded argument variant for ToolSearchLegalBasis.
type SearchLegalBasisArgs struct {
	Keywords string `mapstructure:"keywords"`
	Scope    string `mapstructure:"country"`
}

// DecodeSearchArgs decodes a ToolCall's arguments into the search variant.
// The call's name selects the variant; an unrecognized name is
// ErrUnsupportedTool. Malformed or incomplete arguments are plain errors the
// dispatcher turns into a per-invocation error output.
func DecodeSearchArgs(call ToolCall) (SearchLegalBasisArgs, error) {
	var args SearchLegalBasisArgs
	if call.Name != ToolSearchLegalBasis {
		return args, fmt.Errorf("%w: %q", ErrUnsupportedTool, call.Name)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &raw); err != nil {
		return args, fmt.Errorf("invalid tool arguments for call %s: %w", call.ID, err)
	}
	if err := mapstructure.Decode(raw, &args); err != nil {
		return args, fmt.Errorf("decoding tool arguments for call %s: %w", call.ID, err)
	}

	// Scope may be absent; the dispatcher falls back to the turn's resolved
	// scope. Keywords have no fallback.
	if args.Keywords == "" {
		return args, fmt.Errorf("tool call %s: missing required argument %q", call.ID, "keywords")
	}
	return args, nil
}

// Tool describes a capability for provisioning with the reasoning runtime.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// SearchLegalBasisTool returns the capability descriptor registered with the
// runtime at provisioning time. The argument contract mirrors
// SearchLegalBasisArgs.
func SearchLegalBasisTool() Tool {
	return Tool{
		Name:        ToolSearchLegalBasis,
		Description: "Searches for relevant legal texts based on keywords and country",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"keywords": map[string]any{
					"type":        "string",
					"description": "Keywords to search legal content for",
				},
				"country": map[string]any{
					"type":        "string",
					"description": "Country to restrict the legal search (e.g., El Salvador)",
				},
			},
			"required": []string{"keywords", "country"},
		},
	}
}
