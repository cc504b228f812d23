// Package scanner walks a repository working copy and turns its readable
// text files into documents ready for indexing.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"coderag/internal/domain"
)

// ignoredParts are path segments that mark a file as not worth indexing,
// whether they appear as a directory name or a file suffix.
var ignoredParts = map[string]struct{}{
	".git":         {},
	"__pycache__":  {},
	"node_modules": {},
	"venv":         {},
	".venv":        {},
	".env":         {},
}

var ignoredExts = map[string]struct{}{
	".pyc": {}, ".pyo": {}, ".pyd": {},
	".so": {}, ".dll": {}, ".dylib": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {},
	".pdf": {}, ".zip": {},
}

var extToLanguage = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".cpp":  "cpp",
	".c":    "c",
	".go":   "go",
	".rs":   "rust",
	".rb":   "ruby",
	".php":  "php",
	".cs":   "csharp",
	".html": "html",
	".css":  "css",
	".sql":  "sql",
}

// Scanner reads repository files into documents. Unreadable or non-text
// files are logged and skipped rather than failing the scan.
type Scanner struct {
	logger *zap.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a logger for skipped-file reporting.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks root and returns one document per indexable file, with paths
// relative to root and the given repository identifier attached.
func (s *Scanner) Scan(root, repo string) ([]domain.Document, error) {
	var docs []domain.Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := ignoredParts[d.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldIgnore(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !utf8.Valid(data) {
			s.logger.Debug("skipping binary file", zap.String("path", path))
			return nil
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		docs = append(docs, domain.Document{
			Meta: domain.Metadata{
				File:     filepath.ToSlash(rel),
				Repo:     repo,
				Code:     content,
				Language: GuessLanguage(path),
			},
			Text: content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func shouldIgnore(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if _, skip := ignoredParts[part]; skip {
			return true
		}
	}
	_, skip := ignoredExts[strings.ToLower(filepath.Ext(path))]
	return skip
}

// GuessLanguage maps a file extension to a language tag, best effort.
// Unknown extensions yield an empty tag.
func GuessLanguage(path string) string {
	return extToLanguage[strings.ToLower(filepath.Ext(path))]
}
