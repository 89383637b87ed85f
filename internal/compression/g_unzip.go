package compression

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

// Gunzip decompresses src into dst and returns the number of
// decompressed bytes written.
func Gunzip(dst io.Writer, src io.Reader) (int64, error) {
	gr, err := gzip.NewReader(src)
	if err != nil {
		return 0, fmt.Errorf("gzip reader: %w", err)
	}
	defer gr.Close()

	n, err := io.Copy(dst, gr)
	if err != nil {
		return n, fmt.Errorf("gunzip copy: %w", err)
	}
	return n, nil
}

// GunzipFile decompresses srcPath into dstPath. dstPath must already
// exist; its permissions are left untouched. The output is synced before
// returning so the next stage reads fully durable bytes.
func GunzipFile(srcPath, dstPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dstPath, err)
	}

	n, err := Gunzip(dst, src)
	if err != nil {
		_ = dst.Close()
		return n, err
	}

	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		return n, fmt.Errorf("sync %s: %w", dstPath, err)
	}
	return n, dst.Close()
}
