package content

import (
	"context"
	"errors"
)

// Entry is one item in a remote directory listing.
type Entry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

const (
	// EntryTypeFile marks a regular file entry.
	EntryTypeFile = "file"
	// EntryTypeDir marks a subdirectory entry.
	EntryTypeDir = "dir"
)

// ErrNotFound reports that a path is absent at the source or access to it
// was denied. Callers map it to a not-found outcome; every other error is
// an upstream or decoding failure.
var ErrNotFound = errors.New("content not found")

// Host is the remote content collaborator: it lists directory entries and
// returns raw file content for a path.
type Host interface {
	List(ctx context.Context, path string) ([]Entry, error)
	Read(ctx context.Context, path string) (string, error)
}
