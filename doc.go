/*
Package counsel is a conversation orchestration engine for a tool-augmented
legal drafting assistant.

It drives multi-turn dialogues against a reasoning runtime (OpenAI
Assistants), answering the runtime's tool rounds with evidence retrieved
from per-country legal corpora (Meilisearch), and files each conversation
under its owner in a record store (Redis or in-memory).

# Architecture

The core is hexagonal: pkg/orchestrator holds the turn lifecycle, pkg/ports
defines the runtime, retriever, store and locker contracts, and
pkg/adapters provides the production implementations. Turns on the same
conversation are serialized by pkg/session; a second message while one is
in flight is rejected, not queued.

# Usage

Assemble the service from configuration and run turns:

	package main

	import (
		"context"
		"log"

		"github.com/bufetemejia/counsel"
		"github.com/bufetemejia/counsel/internal/config"
		"github.com/bufetemejia/counsel/pkg/orchestrator"
	)

	func main() {
		cfg, err := config.Load("counsel.yaml")
		if err != nil {
			log.Fatal(err)
		}

		app := counsel.New(cfg)
		defer app.Close()

		result, err := app.Orchestrator.HandleTurn(context.Background(), orchestrator.TurnRequest{
			OwnerID: "user-1",
			Query:   "What does Article 12 say about trademarks in El Salvador?",
		})
		if err != nil {
			log.Fatal(err)
		}

		log.Println(result.AnswerText)
	}

Subsequent turns pass result.Handle back to continue the same conversation.
*/
package counsel
