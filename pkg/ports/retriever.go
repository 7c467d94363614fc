package ports

import "context"

// Retriever maps a (query, scope) pair to a formatted evidence block by
// querying the scope's document index.
//
// Errors: domain.ErrUnknownScope when the scope has no configured index,
// domain.ErrRetrievalUnavailable (wrapped) on backend or network failure.
type Retriever interface {
	Search(ctx context.Context, query, scope string) (string, error)

	// Scopes enumerates the configured scope names, in a stable order.
	// Used for scope inference over free text.
	Scopes() []string
}
