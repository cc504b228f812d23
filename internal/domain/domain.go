// Package domain holds the core types and error kinds shared across the
// code search engine.
package domain

import "context"

// Metadata describes one indexed unit, typically a single file of a
// repository. Extra carries provider- or caller-specific fields without
// widening the record.
type Metadata struct {
	File     string
	Repo     string
	Code     string
	Language string
	Extra    map[string]string
}

// Document pairs the text to be embedded with the metadata stored
// alongside the resulting vector.
type Document struct {
	Meta Metadata
	Text string
}

// SearchResult is a matching entry with its cosine similarity score.
type SearchResult struct {
	Meta  Metadata
	Score float64
}

// Embedder converts text into fixed-length numeric vectors. Implementations
// are remote services; both calls block on a network round trip.
type Embedder interface {
	EmbedOne(ctx context.Context, text string) ([]float64, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float64, error)
}
