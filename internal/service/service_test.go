package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coderag/internal/domain"
)

// axisEmbedder maps known texts onto fixed axes so similarity ordering in
// tests is predictable. Unknown texts share a distinct fallback axis.
type axisEmbedder struct {
	axes map[string]int
}

func (e *axisEmbedder) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vecs, err := e.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *axisEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v := make([]float64, 8)
		if axis, ok := e.axes[t]; ok {
			v[axis] = 1
		} else {
			v[7] = 1
		}
		out[i] = v
	}
	return out, nil
}

func writeRepo(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newService(t *testing.T, emb domain.Embedder) (*Service, string) {
	t.Helper()
	base := t.TempDir()
	cfg := Config{
		IndicesDir:     filepath.Join(base, "indices"),
		ReposDir:       filepath.Join(base, "github_repos"),
		BatchSize:      2,
		DefaultTopK:    5,
		PersistOnWrite: true,
	}
	return New(emb, cfg), cfg.ReposDir
}

func TestUpdateIndexAndSearch(t *testing.T) {
	emb := &axisEmbedder{axes: map[string]int{
		"func main() {}":   0,
		"def main(): pass": 1,
	}}
	svc, reposDir := newService(t, emb)

	repoDir := filepath.Join(reposDir, "owner", "repo")
	writeRepo(t, repoDir, map[string]string{
		"main.go": "func main() {}",
		"main.py": "def main(): pass",
	})

	repo, count, err := svc.UpdateIndex(context.Background(), repoDir)
	require.NoError(t, err)
	assert.Equal(t, "owner/repo", repo)
	assert.Equal(t, 2, count)

	// Query text embeds onto axis 0, so the Go file must rank first.
	emb.axes["entry point"] = 0
	results, err := svc.Search(context.Background(), "entry point", 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "main.go", results[0].Meta.File)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestUpdateIndexEmptyRepo(t *testing.T) {
	svc, reposDir := newService(t, &axisEmbedder{})
	repoDir := filepath.Join(reposDir, "owner", "empty")
	require.NoError(t, os.MkdirAll(repoDir, 0o755))

	_, _, err := svc.UpdateIndex(context.Background(), repoDir)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestSearchNoIndexes(t *testing.T) {
	svc, _ := newService(t, &axisEmbedder{})
	_, err := svc.Search(context.Background(), "anything", 5, "")
	assert.ErrorIs(t, err, domain.ErrNoIndexes)
}

func TestSearchUnknownRepoFilter(t *testing.T) {
	svc, _ := newService(t, &axisEmbedder{})
	_, err := svc.Search(context.Background(), "anything", 5, "owner/missing")
	assert.ErrorIs(t, err, domain.ErrRepoNotIndexed)
}

func TestSearchRepoFilter(t *testing.T) {
	emb := &axisEmbedder{axes: map[string]int{
		"alpha": 0,
		"beta":  1,
		"query": 0,
	}}
	svc, reposDir := newService(t, emb)

	repoA := filepath.Join(reposDir, "owner", "a")
	repoB := filepath.Join(reposDir, "owner", "b")
	writeRepo(t, repoA, map[string]string{"a.go": "alpha"})
	writeRepo(t, repoB, map[string]string{"b.go": "beta"})

	_, _, err := svc.UpdateIndex(context.Background(), repoA)
	require.NoError(t, err)
	_, _, err = svc.UpdateIndex(context.Background(), repoB)
	require.NoError(t, err)

	results, err := svc.Search(context.Background(), "query", 5, "owner/b")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b.go", results[0].Meta.File)
	assert.Equal(t, "owner/b", results[0].Meta.Repo)
}

func TestGetEntry(t *testing.T) {
	emb := &axisEmbedder{axes: map[string]int{"content": 0}}
	svc, reposDir := newService(t, emb)

	repoDir := filepath.Join(reposDir, "owner", "repo")
	writeRepo(t, repoDir, map[string]string{"pkg/util.go": "content"})
	_, _, err := svc.UpdateIndex(context.Background(), repoDir)
	require.NoError(t, err)

	meta, err := svc.GetEntry("owner/repo", "pkg/util.go")
	require.NoError(t, err)
	assert.Equal(t, "content", meta.Code)
	assert.Equal(t, "go", meta.Language)

	_, err = svc.GetEntry("owner/repo", "nope.go")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	_, err = svc.GetEntry("owner/other", "pkg/util.go")
	assert.ErrorIs(t, err, domain.ErrRepoNotIndexed)
}

func TestFindFiles(t *testing.T) {
	emb := &axisEmbedder{}
	svc, reposDir := newService(t, emb)

	repoDir := filepath.Join(reposDir, "owner", "repo")
	writeRepo(t, repoDir, map[string]string{
		"cmd/main.go":    "package main",
		"pkg/handler.go": "package pkg",
	})
	_, _, err := svc.UpdateIndex(context.Background(), repoDir)
	require.NoError(t, err)

	matches, err := svc.FindFiles("HANDLER", 10, "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "pkg/handler.go", matches[0].File)
}

func TestReindexAppends(t *testing.T) {
	emb := &axisEmbedder{axes: map[string]int{"alpha": 0}}
	svc, reposDir := newService(t, emb)

	repoDir := filepath.Join(reposDir, "owner", "repo")
	writeRepo(t, repoDir, map[string]string{"a.go": "alpha"})

	_, count, err := svc.UpdateIndex(context.Background(), repoDir)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Second pass appends a duplicate entry rather than replacing.
	_, _, err = svc.UpdateIndex(context.Background(), repoDir)
	require.NoError(t, err)

	matches, err := svc.FindFiles("a.go", 10, "owner/repo")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
