package blobstore

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// ErrInvalidName is returned for blob names that are empty or escape the
// store's root.
var ErrInvalidName = errors.New("invalid blob name")

// Store holds named, immutable snapshot blobs.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the full content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// CleanName validates a blob name and returns it in canonical
// slash-separated form.
func CleanName(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	clean := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))[1:]
	if clean == "" || clean != strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/") {
		return "", ErrInvalidName
	}
	return clean, nil
}
