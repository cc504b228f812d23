// Package indexer drives bulk ingestion: it pairs document text with
// embeddings from the external provider and feeds the vector store.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"coderag/internal/domain"
	"coderag/internal/vectorstore"
)

// DefaultBatchSize bounds the number of texts sent to the embedding
// provider in a single request.
const DefaultBatchSize = 32

// Indexer turns documents into store entries. Batches are embedded
// strictly sequentially; the first failure aborts the run.
type Indexer struct {
	embedder  domain.Embedder
	store     *vectorstore.Store
	batchSize int
	logger    *zap.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithBatchSize overrides the embedding batch size.
func WithBatchSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithLogger sets a logger for progress reporting.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

// New creates an indexer writing into the given store.
func New(embedder domain.Embedder, store *vectorstore.Store, opts ...Option) *Indexer {
	ix := &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index embeds the documents in batches and appends each (vector,
// metadata) pair to the store in input order. It returns the number of
// documents stored. An empty document list is an error, not a no-op, so
// callers can tell "nothing to index" apart from a successful run.
func (ix *Indexer) Index(ctx context.Context, docs []domain.Document) (int, error) {
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: no documents to index", domain.ErrEmptyInput)
	}

	stored := 0
	for start := 0; start < len(docs); start += ix.batchSize {
		end := start + ix.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.Text
		}

		vectors, err := ix.embedder.EmbedMany(ctx, texts)
		if err != nil {
			return stored, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}

		for i, vec := range vectors {
			if err := ix.store.Add(vec, batch[i].Meta); err != nil {
				return stored, fmt.Errorf("store %s: %w", batch[i].Meta.File, err)
			}
			stored++
		}

		ix.logger.Info("indexed batch",
			zap.Int("processed", end),
			zap.Int("total", len(docs)),
		)
	}
	return stored, nil
}
