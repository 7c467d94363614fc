/*
Package orchestrator drives one conversational turn to completion.

The Controller owns the run-and-poll state machine against the reasoning
runtime; the Dispatcher resolves requires-action rounds by fanning tool
invocations out to the retrieval client; the Orchestrator coordinates both
around the conversation store and the per-handle turn guard.

A turn flows: ensure handle and record, post the utterance, start a run,
poll until terminal or actionable, dispatch and resume for as many action
rounds as the runtime asks, then read back the final assistant message and
touch the record. Everything here is request-local; the runtime is the
source of truth for run state.
*/
package orchestrator
