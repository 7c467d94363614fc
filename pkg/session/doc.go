// Package session serializes turns per conversation handle.
//
// The external reasoning runtime rejects concurrent runs on one handle, so
// at most one turn may be in flight per handle at a time. The Guard
// enforces this in-process with refcounted try-locks and, optionally,
// across replicas through a distributed locker. A second turn arriving
// while one is in flight fails fast with domain.ErrConversationBusy.
package session
