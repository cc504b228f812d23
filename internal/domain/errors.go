package domain

import "errors"

// Error kinds surfaced by the core. Callers match them with errors.Is; the
// core never retries or swallows any of them. The single non-error empty
// case is searching an empty store, which returns an empty result set.
var (
	// ErrInvalidVector marks a zero-length or zero-norm vector, which
	// cannot be normalized.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrEmptyInput marks an embed or index call with nothing to process.
	ErrEmptyInput = errors.New("empty input")

	// ErrStorageCorruption marks a snapshot file that exists but cannot be
	// decoded into the expected shape.
	ErrStorageCorruption = errors.New("storage corruption")

	// ErrTransport marks a network or HTTP failure talking to the
	// embedding provider.
	ErrTransport = errors.New("embedding transport failure")

	// ErrMalformedResponse marks a provider response that parsed but does
	// not have the expected vector shape.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrRepoNotIndexed marks an operation against a repository with no
	// snapshot on disk.
	ErrRepoNotIndexed = errors.New("repository not indexed")

	// ErrEntryNotFound marks a file lookup that matched no stored entry.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrNoIndexes marks a search when no repository has been indexed yet.
	ErrNoIndexes = errors.New("no indexes found")

	// ErrRepoExists marks a clone into a directory that already holds the
	// repository.
	ErrRepoExists = errors.New("repository already exists")

	// ErrInvalidRepoURL marks a repository URL that is not a recognized
	// GitHub HTTPS or SSH form.
	ErrInvalidRepoURL = errors.New("invalid repository URL")
)
