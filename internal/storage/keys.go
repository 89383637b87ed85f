package storage

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// JoinKey prepends the configured subfolder (if any) to a logical object
// name. Names with a parent-directory segment or a leading separator are
// rejected before any network call so a key can never escape the
// subfolder.
func JoinKey(subfolder, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidKey)
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidKey, name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q contains a parent segment", ErrInvalidKey, name)
		}
	}

	if subfolder = strings.Trim(subfolder, "/"); subfolder != "" {
		return path.Join(subfolder, name), nil
	}
	return name, nil
}

// FileSHA256 streams the file once end-to-end and returns the
// base64-encoded SHA-256 digest, the form upload requests attach so the
// backend can reject corrupted transfers.
func FileSHA256(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("digest %s: %w", p, err)
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
