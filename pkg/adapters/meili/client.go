// Package meili implements the retrieval port against Meilisearch, the
// hosted hybrid lexical/semantic index holding the legal corpora.
package meili

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bufetemejia/counsel/internal/logging"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/meilisearch/meilisearch-go"
	"github.com/mitchellh/mapstructure"
)

// resultLimit caps evidence at five hits per search. The evidence block is
// injected into the model's context, so more hits mean more prompt and
// little extra recall.
const resultLimit = 5

// Client implements ports.Retriever over one Meilisearch deployment hosting
// one index per scope.
type Client struct {
	service  meilisearch.ServiceManager
	indexes  map[string]string // scope name -> index UID
	scopes   []string          // sorted scope names
	embedder string
	logger   *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithEmbedder overrides the embedder used for the semantic leg of the search.
func WithEmbedder(name string) Option {
	return func(c *Client) {
		c.embedder = name
	}
}

// WithLogger configures a logger for per-search diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a retrieval client for the given host. indexes maps each
// supported scope to its index UID.
func NewClient(host, apiKey string, indexes map[string]string, opts ...Option) *Client {
	scopes := make([]string, 0, len(indexes))
	for scope := range indexes {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)

	c := &Client{
		service:  meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
		indexes:  indexes,
		scopes:   scopes,
		embedder: "default",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scopes returns the configured scope names in a stable order.
func (c *Client) Scopes() []string {
	return c.scopes
}

// Search runs a pure-semantic hybrid search against the scope's index and
// returns the formatted evidence block. Semantic ratio is pinned to 1:
// legal phrasing varies too much for lexical matching to pull its weight.
func (c *Client) Search(ctx context.Context, query, scope string) (string, error) {
	uid, ok := c.indexes[scope]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownScope, scope)
	}

	res, err := c.service.Index(uid).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit: resultLimit,
		Hybrid: &meilisearch.SearchRequestHybrid{
			SemanticRatio: 1,
			Embedder:      c.embedder,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: scope %q: %v", domain.ErrRetrievalUnavailable, scope, err)
	}

	hits, err := decodeHits(res.Hits)
	if err != nil {
		return "", fmt.Errorf("decoding hits for scope %q: %w", scope, err)
	}

	c.logger.Debug("retrieval complete", "scope", scope, "hits", len(hits))
	return domain.FormatEvidence(hits), nil
}

// decodeHits maps raw index documents onto the citation-hierarchy shape.
// Weak typing absorbs numeric article/section numbers stored as numbers.
func decodeHits(raw []any) ([]domain.Hit, error) {
	hits := make([]domain.Hit, 0, len(raw))
	for i, doc := range raw {
		var hit domain.Hit
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &hit,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(doc); err != nil {
			return nil, fmt.Errorf("hit %d: %w", i, err)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
