// Package blobstore reads and writes objects in the survey bucket.
package blobstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is a flat key/value object store. Keys use "/" separators.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body io.Reader) error
	// List returns the object keys directly under prefix, not descending
	// into deeper "directories".
	List(ctx context.Context, prefix string) ([]string, error)
	Copy(ctx context.Context, src, dst string) error
}

// Base returns the last element of key.
func Base(key string) string {
	return path.Base(key)
}

// directChild reports whether key sits immediately under prefix and is not a
// folder marker.
func directChild(prefix, key string) bool {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok || rest == "" {
		return false
	}
	return !strings.Contains(rest, "/")
}
