package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the named artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// Backend stores named artifacts. Names are slash-separated and relative to
// the backend root, e.g. "mitzvot/001.json".
type Backend interface {
	// Put writes data under name, replacing any previous content. A reader
	// never observes a partially written artifact.
	Put(ctx context.Context, name string, data []byte) error
	// Get returns the artifact content or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes the artifact. Deleting a missing artifact is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the base names of the artifacts directly under dir.
	List(ctx context.Context, dir string) ([]string, error)
	// Location describes where artifacts live, for logs and CLI output.
	Location() string
}
