package compression

import (
	"compress/gzip"
	"io"
)

// Gzip compresses src into dst and returns the number of uncompressed
// bytes consumed.
func Gzip(dst io.Writer, src io.Reader) (int64, error) {
	gz := gzip.NewWriter(dst)

	n, err := io.Copy(gz, src)
	if err != nil {
		_ = gz.Close()
		return n, err
	}

	// gzip writes its trailer on Close.
	if err := gz.Close(); err != nil {
		return n, err
	}

	return n, nil
}
