/*
Package domain contains the core domain models for the conversation
orchestrator.

It defines the fundamental entities of a tool-augmented turn: the
ConversationRecord persisted per dialogue, the RunSnapshot lifecycle
observed against the reasoning runtime, ToolCall/ToolOutput pairs exchanged
during a requires-action round, and retrieval Hits with their evidence
formatting. This package is kept pure and free of external dependencies
like I/O or vendor SDKs, following Hexagonal Architecture principles.

# Key Entities

  - ConversationRecord: Durable metadata for one dialogue (owner, title, handle).
  - RunSnapshot: A point-in-time view of a run on the reasoning runtime.
  - ToolCall / ToolOutput: The requires-action contract between runtime and host.
  - Hit: One retrieval result with its legal-citation hierarchy.
  - Scope: The jurisdiction partition selecting a retrieval index.
*/
package domain
