package domain_test

import (
	"errors"
	"testing"

	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSearchArgs(t *testing.T) {
	call := domain.ToolCall{
		ID:        "call_1",
		Name:      domain.ToolSearchLegalBasis,
		Arguments: `{"keywords": "trademark registration", "country": "El Salvador"}`,
	}

	args, err := domain.DecodeSearchArgs(call)
	require.NoError(t, err)
	assert.Equal(t, "trademark registration", args.Keywords)
	assert.Equal(t, "El Salvador", args.Scope)
}

func TestDecodeSearchArgs_UnsupportedTool(t *testing.T) {
	call := domain.ToolCall{ID: "call_2", Name: "deleteEverything", Arguments: `{}`}

	_, err := domain.DecodeSearchArgs(call)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedTool))
}

func TestDecodeSearchArgs_Malformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `{"keywords": `,
		"missing keywords": `{"country": "El Salvador"}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			call := domain.ToolCall{ID: "call_3", Name: domain.ToolSearchLegalBasis, Arguments: raw}
			_, err := domain.DecodeSearchArgs(call)
			require.Error(t, err)
			// Malformed arguments are plain errors, never the fatal unsupported-tool case.
			assert.False(t, errors.Is(err, domain.ErrUnsupportedTool))
		})
	}
}

func TestDecodeSearchArgs_MissingCountryAllowed(t *testing.T) {
	// Scope falls back to the turn's resolved scope downstream, so its
	// absence is not a decode error.
	call := domain.ToolCall{ID: "call_4", Name: domain.ToolSearchLegalBasis, Arguments: `{"keywords": "trademarks"}`}
	args, err := domain.DecodeSearchArgs(call)
	require.NoError(t, err)
	assert.Empty(t, args.Scope)
}

func TestSearchLegalBasisTool_Descriptor(t *testing.T) {
	tool := domain.SearchLegalBasisTool()
	assert.Equal(t, domain.ToolSearchLegalBasis, tool.Name)

	params := tool.Parameters
	require.NotNil(t, params)
	assert.Equal(t, "object", params["type"])
	assert.ElementsMatch(t, []string{"keywords", "country"}, params["required"])
}
