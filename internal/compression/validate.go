package compression

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrInvalidArchive marks a file that is not a usable gzip archive:
// missing or corrupt header, truncated stream, or zero bytes of
// decompressed content. Match with errors.Is.
var ErrInvalidArchive = errors.New("invalid or empty gzip archive")

// Validate confirms path holds a well-formed gzip stream with at least
// one byte of decompressed content. A zero exit from the tool that
// produced the file proves nothing about the archive; this check does.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}
	defer gr.Close()

	var b [1]byte
	if _, err := io.ReadFull(gr, b[:]); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArchive, path, err)
	}
	return nil
}
