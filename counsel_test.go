package counsel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bufetemejia/counsel"
	"github.com/bufetemejia/counsel/internal/config"
	"github.com/bufetemejia/counsel/internal/testutils"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/orchestrator"
)

func TestNew_MemoryBackedTurn(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	rt.Scripts = [][]testutils.RunStep{{{Status: domain.RunStatusCompleted}}}
	rt.Answers = []string{"assembled answer"}

	retriever := &testutils.FakeRetriever{Evidence: map[string]string{"El Salvador": "e"}}

	app := counsel.New(config.Default(),
		counsel.WithRuntime(rt),
		counsel.WithRetriever(retriever),
	)
	defer app.Close()

	result, err := app.Orchestrator.HandleTurn(context.Background(), orchestrator.TurnRequest{
		OwnerID: "owner-1",
		Query:   "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "assembled answer", result.AnswerText)
	assert.True(t, result.Created)

	// The record landed in the default in-memory store.
	records, err := app.Store.List(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.Handle, records[0].Handle)

	// Collectors are registered and have observations to report.
	families, err := app.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNew_FakeRuntimeHasNoProvisioner(t *testing.T) {
	app := counsel.New(config.Default(),
		counsel.WithRuntime(testutils.NewFakeRuntime()),
		counsel.WithRetriever(&testutils.FakeRetriever{}),
	)
	defer app.Close()

	assert.Nil(t, app.Provisioner)
	assert.NotNil(t, app.Watcher)
}
