package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound reports that a requested key does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrNoArtifacts reports an empty listing when the newest artifact
	// was requested.
	ErrNoArtifacts = errors.New("no artifacts found")

	// ErrInvalidKey reports a logical name that would escape the
	// configured subfolder.
	ErrInvalidKey = errors.New("invalid object key")
)

// TransferError wraps a network, auth, or permission failure talking to
// the storage backend.
type TransferError struct {
	Op  string
	Key string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// ObjectInfo describes one stored artifact. Key is the logical name,
// relative to the store's configured subfolder.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// PutOptions carries optional upload behavior.
type PutOptions struct {
	// ChecksumSHA256 is a base64-encoded SHA-256 digest of the file.
	// When set, the backend verifies the received content against it.
	ChecksumSHA256 string
}

// Store is the object storage gateway: uniform put/get/list against one
// bucket (or directory), namespaced under an optional subfolder.
type Store interface {
	Name() string

	// Put streams the file at srcPath into the bucket under key and
	// returns the destination location for display.
	Put(ctx context.Context, key, srcPath string, opts PutOptions) (string, error)

	// Get streams the object at key into dstPath, which must already
	// exist, and returns the byte count written.
	Get(ctx context.Context, key, dstPath string) (int64, error)

	// List returns every object whose logical name starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ResolveNewest lists prefix and returns the object with the greatest
// last-modified time. Ties go to the last object seen in listing order.
func ResolveNewest(ctx context.Context, st Store, prefix string) (ObjectInfo, error) {
	objects, err := st.List(ctx, prefix)
	if err != nil {
		return ObjectInfo{}, err
	}
	if len(objects) == 0 {
		return ObjectInfo{}, fmt.Errorf("%w under prefix %q", ErrNoArtifacts, prefix)
	}

	newest := objects[0]
	for _, o := range objects[1:] {
		if !o.LastModified.Before(newest.LastModified) {
			newest = o
		}
	}
	return newest, nil
}
