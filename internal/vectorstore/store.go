// Package vectorstore implements a flat, append-only vector store with
// brute-force cosine similarity search and optional single-file
// persistence.
package vectorstore

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"coderag/internal/domain"
)

const defaultTopK = 5

// Store holds L2-normalized embedding vectors and parallel metadata
// records in insertion order. Entries at the same position in the two
// sequences belong together; that is the only ordering guarantee.
type Store struct {
	mu             sync.RWMutex
	path           string
	persistOnWrite bool
	embeddings     [][]float64
	metadata       []domain.Metadata
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithPersistOnWrite controls whether every successful Add rewrites the
// snapshot before returning. Defaults to on; callers doing bulk loads can
// disable it and call Save once at the end.
func WithPersistOnWrite(on bool) Option {
	return func(s *Store) { s.persistOnWrite = on }
}

// Open creates a store backed by the snapshot file at path. If the file
// exists it is loaded; otherwise the store starts empty. An empty path
// yields a purely in-memory store.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, persistOnWrite: true}
	for _, opt := range opts {
		opt(s)
	}
	if path == "" {
		return s, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("stat snapshot: %w", err)
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Add normalizes the embedding to unit L2 norm and appends it together
// with its metadata. When persistence is configured the whole store is
// rewritten before Add returns, so every successful call is durable.
// Re-adding the same file appends a duplicate; nothing is replaced.
func (s *Store) Add(embedding []float64, meta domain.Metadata) error {
	normalized, err := normalize(embedding)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = append(s.embeddings, normalized)
	s.metadata = append(s.metadata, meta)
	if s.path != "" && s.persistOnWrite {
		return s.saveLocked()
	}
	return nil
}

// Search returns the topK stored entries closest to the query by cosine
// similarity, highest first. Equal scores are broken by insertion order,
// earlier entry first, so results are reproducible. An empty store yields
// an empty result set and no error. topK larger than the store is clamped;
// topK <= 0 falls back to a default of 5.
func (s *Store) Search(query []float64, topK int) ([]domain.SearchResult, error) {
	normalized, err := normalize(query)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.embeddings) == 0 {
		return []domain.SearchResult{}, nil
	}
	if topK > len(s.embeddings) {
		topK = len(s.embeddings)
	}

	// Partial top-k selection: keep the k best seen so far in a min-heap
	// instead of sorting the whole score slice.
	h := make(candidateHeap, 0, topK)
	for i := range s.embeddings {
		c := candidate{score: dot(s.embeddings[i], normalized), index: i}
		if len(h) < topK {
			heap.Push(&h, c)
			continue
		}
		if h.beats(c) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	cands := []candidate(h)
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].index < cands[j].index
	})
	results := make([]domain.SearchResult, 0, len(cands))
	for _, c := range cands {
		results = append(results, domain.SearchResult{Meta: s.metadata[c.index], Score: c.score})
	}
	return results, nil
}

// Save serializes the current state to the configured snapshot path. It is
// a no-op for in-memory stores.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Clear empties the store and removes the snapshot file if one exists.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = nil
	s.metadata = nil
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}

// Size returns the number of stored entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.embeddings)
}

// Metadata returns a copy of the metadata sequence in insertion order.
func (s *Store) Metadata() []domain.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Metadata, len(s.metadata))
	copy(out, s.metadata)
	return out
}

// Path returns the configured snapshot path, empty for in-memory stores.
func (s *Store) Path() string { return s.path }

func normalize(v []float64) ([]float64, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: zero-length embedding", domain.ErrInvalidVector)
	}
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: embedding has no finite non-zero norm", domain.ErrInvalidVector)
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out, nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

type candidate struct {
	score float64
	index int
}

// candidateHeap is a min-heap keyed on score; among equal scores the later
// insertion index is considered worse, so earlier entries survive when the
// heap is full.
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }
func (h candidateHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].index > h[j].index
}
func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// beats reports whether c should replace the current worst entry.
func (h candidateHeap) beats(c candidate) bool {
	worst := h[0]
	if c.score != worst.score {
		return c.score > worst.score
	}
	return c.index < worst.index
}
