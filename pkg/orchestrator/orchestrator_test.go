package orchestrator_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bufetemejia/counsel/internal/testutils"
	"github.com/bufetemejia/counsel/pkg/adapters/memory"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastController(rt *testutils.FakeRuntime) *orchestrator.Controller {
	return orchestrator.NewController(rt,
		orchestrator.WithPollInterval(time.Millisecond),
		orchestrator.WithPollTimeout(2*time.Second),
	)
}

func TestHandleTurn_FirstMessageWithRetrieval(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	rt.Scripts = [][]testutils.RunStep{{
		{Status: domain.RunStatusCreated},
		{Status: domain.RunStatusRunning},
		{Status: domain.RunStatusRequiresAction, ToolCalls: []domain.ToolCall{{
			ID:        "call_1",
			Name:      domain.ToolSearchLegalBasis,
			Arguments: `{"keywords":"Article 12 trademarks","country":"El Salvador"}`,
		}}},
		{Status: domain.RunStatusRunning},
		{Status: domain.RunStatusCompleted},
	}}
	rt.Answers = []string{"Article 12 provides that trademarks..."}

	retriever := &testutils.FakeRetriever{
		Evidence: map[string]string{"El Salvador": "1. law_title: Ley de Marcas, ... article_number: 12 ..."},
	}
	store := memory.NewStore()
	o := orchestrator.New(rt, store, retriever, orchestrator.WithController(fastController(rt)))

	query := "What does Article 12 say about trademarks in El Salvador?"
	result, err := o.HandleTurn(context.Background(), orchestrator.TurnRequest{
		OwnerID: "owner-1",
		Query:   query,
	})
	require.NoError(t, err)

	// A fresh handle was issued and the answer came back against it.
	assert.True(t, result.Created)
	assert.Equal(t, "thread-1", result.Handle)
	assert.Contains(t, result.AnswerText, "Article 12")

	// The record exists with the derived title.
	rec, err := store.Get(context.Background(), result.Handle)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", rec.OwnerID)
	assert.Equal(t, domain.DeriveTitle(query), rec.Title)

	// The retrieval round actually ran with the invocation's keywords.
	require.Len(t, retriever.Queries, 1)
	assert.Equal(t, "Article 12 trademarks", retriever.Queries[0])

	// All outputs were submitted in one batch.
	batches := rt.Submitted("run-1")
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "call_1", batches[0][0].ID)
}

func TestHandleTurn_ExistingConversationTouchesRecord(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	rt.Scripts = [][]testutils.RunStep{
		{{Status: domain.RunStatusCompleted}},
		{{Status: domain.RunStatusCompleted}},
	}
	rt.Answers = []string{"first answer", "second answer"}

	store := memory.NewStore()
	retriever := &testutils.FakeRetriever{Evidence: map[string]string{"El Salvador": "e"}}
	o := orchestrator.New(rt, store, retriever, orchestrator.WithController(fastController(rt)))
	ctx := context.Background()

	first, err := o.HandleTurn(ctx, orchestrator.TurnRequest{OwnerID: "owner-1", Query: "hello"})
	require.NoError(t, err)

	recAfterFirst, err := store.Get(ctx, first.Handle)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := o.HandleTurn(ctx, orchestrator.TurnRequest{
		OwnerID: "owner-1",
		Handle:  first.Handle,
		Query:   "follow-up",
	})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Handle, second.Handle)
	assert.Equal(t, "second answer", second.AnswerText)

	// Monotonic freshness across completed turns.
	recAfterSecond, err := store.Get(ctx, first.Handle)
	require.NoError(t, err)
	assert.False(t, recAfterSecond.UpdatedAt.Before(recAfterFirst.UpdatedAt))

	// Still a single record; the second Ensure was a no-op.
	records, err := store.List(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestHandleTurn_MultipleActionRounds(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	rt.Scripts = [][]testutils.RunStep{{
		{Status: domain.RunStatusRequiresAction, ToolCalls: []domain.ToolCall{{
			ID: "call_1", Name: domain.ToolSearchLegalBasis,
			Arguments: `{"keywords":"trademarks","country":"El Salvador"}`,
		}}},
		{Status: domain.RunStatusRequiresAction, ToolCalls: []domain.ToolCall{{
			ID: "call_2", Name: domain.ToolSearchLegalBasis,
			Arguments: `{"keywords":"registration procedure","country":"El Salvador"}`,
		}}},
		{Status: domain.RunStatusCompleted},
	}}
	rt.Answers = []string{"done"}

	retriever := &testutils.FakeRetriever{Evidence: map[string]string{"El Salvador": "e"}}
	o := orchestrator.New(rt, memory.NewStore(), retriever, orchestrator.WithController(fastController(rt)))

	result, err := o.HandleTurn(context.Background(), orchestrator.TurnRequest{OwnerID: "owner-1", Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "done", result.AnswerText)

	// Two rounds, two batches.
	assert.Len(t, rt.Submitted("run-1"), 2)
	assert.Len(t, retriever.Queries, 2)
}

func TestHandleTurn_DegradedRetrievalStillCompletes(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	rt.Scripts = [][]testutils.RunStep{{
		{Status: domain.RunStatusRequiresAction, ToolCalls: []domain.ToolCall{
			{ID: "call_1", Name: domain.ToolSearchLegalBasis, Arguments: `{"keywords":"a","country":"El Salvador"}`},
			{ID: "call_2", Name: domain.ToolSearchLegalBasis, Arguments: `{"keywords":"b","country":"Costa Rica"}`},
		}},
		{Status: domain.RunStatusCompleted},
	}}
	rt.Answers = []string{"partial-evidence answer"}

	retriever := &testutils.FakeRetriever{
		Evidence: map[string]string{"El Salvador": "good evidence"},
		Fail:     map[string]bool{"Costa Rica": true},
	}
	o := orchestrator.New(rt, memory.NewStore(), retriever, orchestrator.WithController(fastController(rt)))

	result, err := o.HandleTurn(context.Background(), orchestrator.TurnRequest{OwnerID: "owner-1", Query: "q"})
	require.NoError(t, err, "degraded retrieval must still complete the turn")
	assert.Equal(t, "partial-evidence answer", result.AnswerText)

	batches := rt.Submitted("run-1")
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
}

func TestHandleTurn_UnsupportedToolFailsTurn(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	rt.Scripts = [][]testutils.RunStep{{
		{Status: domain.RunStatusRequiresAction, ToolCalls: []domain.ToolCall{
			{ID: "call_1", Name: "transferFunds", Arguments: `{}`},
		}},
	}}

	retriever := &testutils.FakeRetriever{Evidence: map[string]string{"El Salvador": "e"}}
	o := orchestrator.New(rt, memory.NewStore(), retriever, orchestrator.WithController(fastController(rt)))

	_, err := o.HandleTurn(context.Background(), orchestrator.TurnRequest{OwnerID: "owner-1", Query: "q"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedTool)
	assert.Empty(t, rt.Submitted("run-1"), "nothing may be submitted without an output contract")
}

func TestHandleTurn_TimeoutReleasesLockAndSkipsTouch(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	rt.Scripts = [][]testutils.RunStep{
		{{Status: domain.RunStatusRunning}}, // never progresses
		{{Status: domain.RunStatusCompleted}},
	}
	rt.Answers = []string{"recovered"}

	store := memory.NewStore()
	retriever := &testutils.FakeRetriever{Evidence: map[string]string{"El Salvador": "e"}}
	controller := orchestrator.NewController(rt,
		orchestrator.WithPollInterval(2*time.Millisecond),
		orchestrator.WithPollTimeout(15*time.Millisecond),
	)
	o := orchestrator.New(rt, store, retriever, orchestrator.WithController(controller))
	ctx := context.Background()

	_, err := o.HandleTurn(ctx, orchestrator.TurnRequest{OwnerID: "owner-1", Query: "hang"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRunTimedOut)

	// The record was inserted but never touched after the failure.
	rec, err := store.Get(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	// The handle's lock was released: a retry proceeds.
	result, err := o.HandleTurn(ctx, orchestrator.TurnRequest{OwnerID: "owner-1", Handle: "thread-1", Query: "retry"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.AnswerText)
}

func TestHandleTurn_ConcurrentSameHandleRejected(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	// First run crawls through many running steps to hold the handle.
	steps := make([]testutils.RunStep, 0, 60)
	for i := 0; i < 59; i++ {
		steps = append(steps, testutils.RunStep{Status: domain.RunStatusRunning})
	}
	steps = append(steps, testutils.RunStep{Status: domain.RunStatusCompleted})
	rt.Scripts = [][]testutils.RunStep{steps}
	rt.Answers = []string{"slow answer"}

	store := memory.NewStore()
	retriever := &testutils.FakeRetriever{Evidence: map[string]string{"El Salvador": "e"}}
	controller := orchestrator.NewController(rt,
		orchestrator.WithPollInterval(5*time.Millisecond),
		orchestrator.WithPollTimeout(5*time.Second),
	)
	o := orchestrator.New(rt, store, retriever, orchestrator.WithController(controller))
	ctx := context.Background()

	// Seed the conversation so both turns target the same handle.
	handle, err := rt.CreateThread(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := o.HandleTurn(ctx, orchestrator.TurnRequest{OwnerID: "owner-1", Handle: handle, Query: "slow"})
		firstErr <- err
	}()

	time.Sleep(30 * time.Millisecond)
	_, err = o.HandleTurn(ctx, orchestrator.TurnRequest{OwnerID: "owner-1", Handle: handle, Query: "concurrent"})
	assert.ErrorIs(t, err, domain.ErrConversationBusy)

	wg.Wait()
	assert.NoError(t, <-firstErr)
}

func TestTranscript_OldestFirst(t *testing.T) {
	rt := testutils.NewFakeRuntime()
	ctx := context.Background()

	handle, err := rt.CreateThread(ctx)
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		require.NoError(t, rt.AppendUserMessage(ctx, handle, fmt.Sprintf("message %d", i)))
	}

	retriever := &testutils.FakeRetriever{}
	o := orchestrator.New(rt, memory.NewStore(), retriever)

	messages, err := o.Transcript(ctx, handle)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "message 1", messages[0].Content)
	assert.Equal(t, "message 3", messages[2].Content)
}
