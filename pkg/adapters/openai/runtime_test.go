package openai

import (
	"testing"

	"github.com/bufetemejia/counsel/pkg/domain"
	sdk "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRun_StatusVocabulary(t *testing.T) {
	cases := []struct {
		sdkStatus sdk.RunStatus
		want      domain.RunStatus
	}{
		{sdk.RunStatusQueued, domain.RunStatusCreated},
		{sdk.RunStatusInProgress, domain.RunStatusRunning},
		{sdk.RunStatusRequiresAction, domain.RunStatusRequiresAction},
		{sdk.RunStatusCompleted, domain.RunStatusCompleted},
		{sdk.RunStatusFailed, domain.RunStatusFailed},
		{sdk.RunStatusExpired, domain.RunStatusFailed},
		{sdk.RunStatusCancelled, domain.RunStatusFailed},
	}

	for _, tc := range cases {
		snap := mapRun("thread-1", sdk.Run{ID: "run-1", Status: tc.sdkStatus})
		assert.Equal(t, tc.want, snap.Status, "status %s", tc.sdkStatus)
		assert.Equal(t, "thread-1", snap.Handle)
	}
}

func TestMapRun_ExtractsToolCalls(t *testing.T) {
	run := sdk.Run{
		ID:     "run-1",
		Status: sdk.RunStatusRequiresAction,
		RequiredAction: &sdk.RunRequiredAction{
			Type: sdk.RequiredActionTypeSubmitToolOutputs,
			SubmitToolOutputs: &sdk.SubmitToolOutputs{
				ToolCalls: []sdk.ToolCall{
					{
						ID:   "call_1",
						Type: sdk.ToolTypeFunction,
						Function: sdk.FunctionCall{
							Name:      domain.ToolSearchLegalBasis,
							Arguments: `{"keywords":"trademarks","country":"El Salvador"}`,
						},
					},
				},
			},
		},
	}

	snap := mapRun("thread-1", run)
	require.Len(t, snap.ToolCalls, 1)
	assert.Equal(t, "call_1", snap.ToolCalls[0].ID)
	assert.Equal(t, domain.ToolSearchLegalBasis, snap.ToolCalls[0].Name)
	assert.Contains(t, snap.ToolCalls[0].Arguments, "El Salvador")
}

func TestMapRun_FailureCarriesLastError(t *testing.T) {
	run := sdk.Run{
		ID:     "run-1",
		Status: sdk.RunStatusFailed,
		LastError: &sdk.RunLastError{
			Code:    "rate_limit_exceeded",
			Message: "try again later",
		},
	}

	snap := mapRun("thread-1", run)
	assert.Equal(t, domain.RunStatusFailed, snap.Status)
	assert.Contains(t, snap.LastError, "rate_limit_exceeded")
}
