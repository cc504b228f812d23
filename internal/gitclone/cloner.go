// Package gitclone clones GitHub repositories into a local working
// directory using the external git binary.
package gitclone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"coderag/internal/domain"
)

var (
	httpsPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
	sshPattern   = regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// ParseRepoURL validates a GitHub HTTPS or SSH URL and extracts the owner
// and repository name.
func ParseRepoURL(url string) (owner, repo string, err error) {
	if m := httpsPattern.FindStringSubmatch(url); m != nil {
		return m[1], m[2], nil
	}
	if m := sshPattern.FindStringSubmatch(url); m != nil {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("%w: %q (expected https://github.com/owner/repo or git@github.com:owner/repo)",
		domain.ErrInvalidRepoURL, url)
}

// Cloner clones repositories under a base directory as <owner>/<repo>.
type Cloner struct {
	reposDir string
	logger   *zap.Logger
}

// Option configures a Cloner.
type Option func(*Cloner)

// WithLogger sets a logger for clone progress.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cloner) { c.logger = l }
}

// New creates a cloner rooted at reposDir.
func New(reposDir string, opts ...Option) *Cloner {
	c := &Cloner{reposDir: reposDir, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone runs `git clone` for the given URL, optionally at a specific
// branch, and returns the local path. An already-cloned repository is an
// error rather than a silent reuse.
func (c *Cloner) Clone(ctx context.Context, url, branch string) (string, error) {
	owner, repo, err := ParseRepoURL(url)
	if err != nil {
		return "", err
	}

	clonePath := filepath.Join(c.reposDir, owner, repo)
	if _, err := os.Stat(clonePath); err == nil {
		return "", fmt.Errorf("%w at %s", domain.ErrRepoExists, clonePath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat clone path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(clonePath), 0o755); err != nil {
		return "", fmt.Errorf("create clone dir: %w", err)
	}

	args := []string{"clone"}
	if branch != "" {
		args = append(args, "-b", branch)
	}
	args = append(args, url, clonePath)

	c.logger.Info("cloning repository",
		zap.String("url", url),
		zap.String("path", clonePath),
	)

	cmd := exec.CommandContext(ctx, "git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		// Clean up the partial clone so a retry starts fresh.
		_ = os.RemoveAll(clonePath)
		return "", fmt.Errorf("git clone %s: %w: %s", url, err, out)
	}
	return clonePath, nil
}

// ReposDir returns the base directory clones are placed under.
func (c *Cloner) ReposDir() string { return c.reposDir }
