/*
Package ports defines the driven ports (interfaces) for the conversation
orchestrator.

These interfaces decouple the turn orchestration core from external
collaborators, allowing the reasoning runtime, the retrieval backend and the
record store to be swapped without touching the control loop.

# Key Interfaces

  - AgentRuntime: thread/message/run primitives of the reasoning runtime.
  - Retriever: maps (query, scope) to a formatted evidence block.
  - ConversationStore: durable conversation metadata with change notification.
  - DistributedLocker: cross-replica serialization of turns per handle.
  - ToolDispatcher: resolves a requires-action round into tool outputs.
*/
package ports
