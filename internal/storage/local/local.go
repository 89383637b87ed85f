package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dev-tams/snapvault/internal/storage"
)

// Store keeps artifacts in a directory tree. It exists for development
// and for exercising the pipelines without a bucket; it honors the same
// gateway contract as the s3 backend, including subfolder namespacing
// and digest verification on put.
type Store struct {
	name      string
	base      string
	subfolder string
}

func New(name, basePath, subfolder string) *Store {
	return &Store{name: name, base: basePath, subfolder: subfolder}
}

func (s *Store) Name() string { return s.name }

func (s *Store) Put(ctx context.Context, key, srcPath string, opts storage.PutOptions) (string, error) {
	full, err := storage.JoinKey(s.subfolder, key)
	if err != nil {
		return "", err
	}

	if opts.ChecksumSHA256 != "" {
		sum, err := storage.FileSHA256(srcPath)
		if err != nil {
			return "", err
		}
		if sum != opts.ChecksumSHA256 {
			return "", &storage.TransferError{
				Op:  "put",
				Key: full,
				Err: fmt.Errorf("checksum mismatch: got %s want %s", sum, opts.ChecksumSHA256),
			}
		}
	}

	finalPath := filepath.Join(s.base, filepath.FromSlash(full))
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", &storage.TransferError{Op: "put", Key: full, Err: err}
	}

	// Write to a tmp sibling and rename so readers never see a partial
	// object.
	tmpPath := finalPath + ".tmp"
	if err := copyFile(srcPath, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", &storage.TransferError{Op: "put", Key: full, Err: err}
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", &storage.TransferError{Op: "put", Key: full, Err: err}
	}
	return finalPath, nil
}

func (s *Store) Get(ctx context.Context, key, dstPath string) (int64, error) {
	full, err := storage.JoinKey(s.subfolder, key)
	if err != nil {
		return 0, err
	}

	src, err := os.Open(filepath.Join(s.base, filepath.FromSlash(full)))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", storage.ErrNotFound, full)
		}
		return 0, &storage.TransferError{Op: "get", Key: full, Err: err}
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, &storage.TransferError{Op: "get", Key: full, Err: err}
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		_ = dst.Close()
		return n, &storage.TransferError{Op: "get", Key: full, Err: err}
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		return n, &storage.TransferError{Op: "get", Key: full, Err: err}
	}
	return n, dst.Close()
}

func (s *Store) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	root := s.base
	if sub := strings.Trim(s.subfolder, "/"); sub != "" {
		root = filepath.Join(root, filepath.FromSlash(sub))
	}

	var out []storage.ObjectInfo
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, storage.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, &storage.TransferError{Op: "list", Key: prefix, Err: err}
	}
	return out, nil
}

func copyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
