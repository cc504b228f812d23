// Package service orchestrates indexing, searching, and retrieval over the
// per-repository snapshot stores. It is the surface consumed by both the
// CLI and the MCP tool adapter.
package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"coderag/internal/domain"
	"coderag/internal/gitclone"
	"coderag/internal/indexer"
	"coderag/internal/scanner"
	"coderag/internal/vectorstore"
)

const snapshotExt = ".gob"

// Config holds the directories and tunables the service operates with.
type Config struct {
	IndicesDir     string
	ReposDir       string
	BatchSize      int
	DefaultTopK    int
	PersistOnWrite bool
}

// Service coordinates the vector stores (one snapshot per repository,
// mirroring the clone layout), the embedder, and the cloner.
type Service struct {
	cfg      Config
	embedder domain.Embedder
	cloner   *gitclone.Cloner
	scanner  *scanner.Scanner
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a service.
func New(embedder domain.Embedder, cfg Config, opts ...Option) *Service {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	s := &Service{
		cfg:      cfg,
		embedder: embedder,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cloner = gitclone.New(cfg.ReposDir, gitclone.WithLogger(s.logger))
	s.scanner = scanner.New(scanner.WithLogger(s.logger))
	return s
}

// Clone clones a GitHub repository under the configured repos directory
// and returns its local path.
func (s *Service) Clone(ctx context.Context, url, branch string) (string, error) {
	return s.cloner.Clone(ctx, url, branch)
}

// UpdateIndex scans the repository working copy at repoPath, embeds every
// indexable file, and appends the entries to the repository's snapshot
// store. Re-indexing appends; existing entries are never replaced. It
// returns the repository identifier and the number of files indexed.
func (s *Service) UpdateIndex(ctx context.Context, repoPath string) (string, int, error) {
	info, err := os.Stat(repoPath)
	if err != nil {
		return "", 0, fmt.Errorf("repository path: %w", err)
	}
	if !info.IsDir() {
		return "", 0, fmt.Errorf("repository path %s is not a directory", repoPath)
	}

	repo := s.repoName(repoPath)
	store, err := s.openStore(repo)
	if err != nil {
		return repo, 0, err
	}

	docs, err := s.scanner.Scan(repoPath, repo)
	if err != nil {
		return repo, 0, fmt.Errorf("scan %s: %w", repoPath, err)
	}
	if len(docs) == 0 {
		return repo, 0, fmt.Errorf("%w: no indexable files in %s", domain.ErrEmptyInput, repoPath)
	}

	ix := indexer.New(s.embedder, store,
		indexer.WithBatchSize(s.cfg.BatchSize),
		indexer.WithLogger(s.logger),
	)
	count, err := ix.Index(ctx, docs)
	if err != nil {
		return repo, count, err
	}
	if !s.cfg.PersistOnWrite {
		if err := store.Save(); err != nil {
			return repo, count, err
		}
	}
	s.logger.Info("index updated", zap.String("repo", repo), zap.Int("files", count))
	return repo, count, nil
}

// Search embeds the query once and runs it against every selected
// repository store, merging the per-store rankings into one list,
// descending by similarity. With a repoFilter only that repository is
// searched; otherwise all snapshots are. Ties keep the per-store order.
func (s *Service) Search(ctx context.Context, query string, topK int, repoFilter string) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}

	paths, err := s.selectSnapshots(repoFilter)
	if err != nil {
		return nil, err
	}

	vec, err := s.embedder.EmbedOne(ctx, query)
	if err != nil {
		return nil, err
	}

	var merged []domain.SearchResult
	for _, path := range paths {
		store, err := vectorstore.Open(path)
		if err != nil {
			return nil, err
		}
		if store.Size() == 0 {
			continue
		}
		results, err := store.Search(vec, topK)
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

// FindFiles returns stored metadata whose file path contains the query,
// case-insensitively, up to limit entries.
func (s *Service) FindFiles(query string, limit int, repoFilter string) ([]domain.Metadata, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultTopK
	}
	paths, err := s.selectSnapshots(repoFilter)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []domain.Metadata
	for _, path := range paths {
		store, err := vectorstore.Open(path)
		if err != nil {
			return nil, err
		}
		for _, meta := range store.Metadata() {
			if strings.Contains(strings.ToLower(meta.File), needle) {
				matches = append(matches, meta)
				if len(matches) == limit {
					return matches, nil
				}
			}
		}
	}
	return matches, nil
}

// GetEntry returns the stored metadata record for a file in a repository.
// With duplicate entries for the same path, the earliest one wins.
func (s *Service) GetEntry(repo, filePath string) (domain.Metadata, error) {
	path := s.snapshotPath(repo)
	if _, err := os.Stat(path); err != nil {
		return domain.Metadata{}, fmt.Errorf("%w: %s", domain.ErrRepoNotIndexed, repo)
	}
	store, err := vectorstore.Open(path)
	if err != nil {
		return domain.Metadata{}, err
	}
	for _, meta := range store.Metadata() {
		if meta.File == filePath {
			return meta, nil
		}
	}
	return domain.Metadata{}, fmt.Errorf("%w: %s in %s", domain.ErrEntryNotFound, filePath, repo)
}

// repoName derives the repository identifier from a working-copy path:
// the path relative to the repos directory when the clone lives there
// (owner/repo), the directory base name otherwise.
func (s *Service) repoName(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return filepath.Base(repoPath)
	}
	reposAbs, err := filepath.Abs(s.cfg.ReposDir)
	if err == nil {
		if rel, err := filepath.Rel(reposAbs, abs); err == nil &&
			rel != "." && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(abs)
}

func (s *Service) snapshotPath(repo string) string {
	return filepath.Join(s.cfg.IndicesDir, repo+snapshotExt)
}

func (s *Service) openStore(repo string) (*vectorstore.Store, error) {
	path := s.snapshotPath(repo)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create indices dir: %w", err)
	}
	return vectorstore.Open(path, vectorstore.WithPersistOnWrite(s.cfg.PersistOnWrite))
}

// selectSnapshots returns the snapshot files to search. A repoFilter must
// name an indexed repository; without one, every snapshot under the
// indices directory is returned.
func (s *Service) selectSnapshots(repoFilter string) ([]string, error) {
	if repoFilter != "" {
		path := s.snapshotPath(repoFilter)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrRepoNotIndexed, repoFilter)
		}
		return []string{path}, nil
	}

	var paths []string
	err := filepath.WalkDir(s.cfg.IndicesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, snapshotExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(paths) == 0 {
		return nil, domain.ErrNoIndexes
	}
	sort.Strings(paths)
	return paths, nil
}
