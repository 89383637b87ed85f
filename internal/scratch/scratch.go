package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Allocate creates an empty staging file named filename inside a fresh
// process-private temp directory and returns its absolute path. The
// directory is 0700 and the file is created 0600, so the contents are
// never readable by other local users, not even between creation and the
// first write.
func Allocate(filename string) (string, error) {
	dir, err := os.MkdirTemp("", "snapvault-")
	if err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}

	p := filepath.Join(dir, filepath.Base(filename))
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		_ = os.Remove(dir)
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		_ = os.Remove(dir)
		return "", fmt.Errorf("close scratch file: %w", err)
	}
	return p, nil
}

// Release deletes a file returned by Allocate along with its private
// directory. A file that is already gone is not an error; anything else
// is surfaced so the caller can warn without aborting other releases.
func Release(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release scratch file %s: %w", path, err)
	}
	// Best effort on the wrapper dir; it is empty unless the caller put
	// something else there.
	_ = os.Remove(filepath.Dir(path))
	return nil
}
