package vectorstore

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"coderag/internal/domain"
)

// snapshotVersion is bumped when the on-disk layout changes. Version 1 is a
// gob-encoded snapshot value: the two parallel sequences plus the version
// tag itself.
const snapshotVersion = 1

type snapshot struct {
	Version    int
	Embeddings [][]float64
	Metadata   []domain.Metadata
}

// saveLocked writes the whole store state to the snapshot path. The write
// goes to a temporary file in the same directory followed by an atomic
// rename, so a failed write never truncates a readable snapshot. Callers
// must hold the write lock.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	snap := snapshot{
		Version:    snapshotVersion,
		Embeddings: s.embeddings,
		Metadata:   s.metadata,
	}
	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// load hydrates the parallel sequences from the snapshot file. A file that
// exists but does not decode into two equal-length sequences is surfaced as
// corruption, never as an empty store.
func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrStorageCorruption, s.path, err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("%w: unsupported snapshot version %d in %s", domain.ErrStorageCorruption, snap.Version, s.path)
	}
	if len(snap.Embeddings) != len(snap.Metadata) {
		return fmt.Errorf("%w: %s holds %d embeddings but %d metadata records",
			domain.ErrStorageCorruption, s.path, len(snap.Embeddings), len(snap.Metadata))
	}
	s.embeddings = snap.Embeddings
	s.metadata = snap.Metadata
	return nil
}
