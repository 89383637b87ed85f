package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dev-tams/snapvault/internal/compression"
	"github.com/dev-tams/snapvault/internal/pgtools"
	"github.com/dev-tams/snapvault/internal/storage"
)

func TestRunRestoreUsesNewestArtifact(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)
	base := time.Now().Add(-3 * time.Hour)
	putArtifact(t, dir, st, "backup-2025-01-01T00-00-00-000Z.tar.gz", []byte("old dump"), base)
	putArtifact(t, dir, st, "backup-2025-01-02T00-00-00-000Z.tar.gz", []byte("new dump"), base.Add(time.Hour))

	restorer := &fakeRestorer{}
	before := countScratchDirs(t)

	if err := RunRestore(context.Background(), testConfig(dir), st, restorer, nil, false); err != nil {
		t.Fatalf("RunRestore() unexpected error: %v", err)
	}

	if restorer.calls != 1 {
		t.Fatalf("restore tool invoked %d times, want 1", restorer.calls)
	}
	if !bytes.Equal(restorer.archive, []byte("new dump")) {
		t.Fatalf("restored %q, want newest artifact content", restorer.archive)
	}
	if strings.HasSuffix(restorer.archivePath, ".gz") {
		t.Fatalf("restore tool handed a compressed file: %s", restorer.archivePath)
	}

	if _, err := os.Stat(restorer.archivePath); !os.IsNotExist(err) {
		t.Fatalf("decompressed scratch file survived: %v", err)
	}
	if got := countScratchDirs(t); got != before {
		t.Fatalf("scratch dirs leaked: %d -> %d", before, got)
	}
}

func TestRunRestoreExplicitKeyWins(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)
	base := time.Now().Add(-3 * time.Hour)
	putArtifact(t, dir, st, "backup-2025-01-01T00-00-00-000Z.tar.gz", []byte("old dump"), base)
	putArtifact(t, dir, st, "backup-2025-01-02T00-00-00-000Z.tar.gz", []byte("new dump"), base.Add(time.Hour))

	cfg := testConfig(dir)
	cfg.RestoreKey = "backup-2025-01-01T00-00-00-000Z.tar.gz"
	cfg.RestoreOptions = "--exit-on-error"
	restorer := &fakeRestorer{}

	if err := RunRestore(context.Background(), cfg, st, restorer, nil, false); err != nil {
		t.Fatalf("RunRestore() unexpected error: %v", err)
	}

	if !bytes.Equal(restorer.archive, []byte("old dump")) {
		t.Fatalf("restored %q, want explicitly selected artifact", restorer.archive)
	}
	if restorer.dsn != cfg.RestoreDatabaseURL || restorer.options != "--exit-on-error" {
		t.Fatalf("restorer saw dsn=%q options=%q", restorer.dsn, restorer.options)
	}
}

func TestRunRestoreExplicitKeyAcceptsSubfolderPrefix(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)
	putArtifact(t, dir, st, "backup-2025-01-01T00-00-00-000Z.tar.gz", []byte("old dump"), time.Now())

	// A key pasted from the backup destination line carries the bucket
	// subfolder; it must resolve to the same object as the bare key.
	cfg := testConfig(dir)
	cfg.RestoreKey = "db/backup-2025-01-01T00-00-00-000Z.tar.gz"
	restorer := &fakeRestorer{}

	if err := RunRestore(context.Background(), cfg, st, restorer, nil, false); err != nil {
		t.Fatalf("RunRestore() unexpected error: %v", err)
	}
	if !bytes.Equal(restorer.archive, []byte("old dump")) {
		t.Fatalf("restored %q, want the selected artifact", restorer.archive)
	}
}

func TestRunRestoreMissingTargetIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)
	putArtifact(t, dir, st, "backup-2025-01-01T00-00-00-000Z.tar.gz", []byte("dump"), time.Now())

	cfg := testConfig(dir)
	cfg.RestoreDatabaseURL = ""
	restorer := &fakeRestorer{}
	before := countScratchDirs(t)

	err := RunRestore(context.Background(), cfg, st, restorer, nil, false)
	if err == nil || !strings.Contains(err.Error(), "RESTORE_DATABASE_URL") {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if restorer.calls != 0 {
		t.Fatal("restore tool invoked despite configuration error")
	}
	if got := countScratchDirs(t); got != before {
		t.Fatalf("scratch allocated despite configuration error: %d -> %d", before, got)
	}
}

func TestRunRestoreNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	restorer := &fakeRestorer{}

	err := RunRestore(context.Background(), testConfig(dir), testStore(dir), restorer, nil, false)
	if !errors.Is(err, storage.ErrNoArtifacts) {
		t.Fatalf("expected ErrNoArtifacts, got %v", err)
	}
	if restorer.calls != 0 {
		t.Fatal("restore tool invoked with no artifacts")
	}
}

func TestRunRestoreMissingExplicitKey(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.RestoreKey = "backup-2030-01-01T00-00-00-000Z.tar.gz"

	err := RunRestore(context.Background(), cfg, testStore(dir), &fakeRestorer{}, nil, false)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunRestoreRejectsZeroByteDownload(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)

	// seed a zero-byte object directly
	src := filepath.Join(t.TempDir(), "empty")
	if err := os.WriteFile(src, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	key := "backup-2025-01-01T00-00-00-000Z.tar.gz"
	if _, err := st.Put(context.Background(), key, src, storage.PutOptions{}); err != nil {
		t.Fatalf("seed Put(): %v", err)
	}

	restorer := &fakeRestorer{}
	before := countScratchDirs(t)

	err := RunRestore(context.Background(), testConfig(dir), st, restorer, nil, false)
	if !errors.Is(err, compression.ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}
	if restorer.calls != 0 {
		t.Fatal("restore tool invoked on an invalid download")
	}
	if got := countScratchDirs(t); got != before {
		t.Fatalf("scratch dirs leaked: %d -> %d", before, got)
	}
}

func TestRunRestoreToolFailurePropagatesAndCleans(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)
	putArtifact(t, dir, st, "backup-2025-01-01T00-00-00-000Z.tar.gz", []byte("dump"), time.Now())

	restorer := &fakeRestorer{
		err: &pgtools.ToolError{Tool: "pg_restore", Stderr: "relation exists", Err: errors.New("exit status 1")},
	}
	before := countScratchDirs(t)

	err := RunRestore(context.Background(), testConfig(dir), st, restorer, nil, false)

	var te *pgtools.ToolError
	if !errors.As(err, &te) || te.Tool != "pg_restore" {
		t.Fatalf("expected pg_restore ToolError, got %v", err)
	}
	if !strings.Contains(err.Error(), "relation exists") {
		t.Fatalf("diagnostics lost: %v", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("credentials leaked into error: %v", err)
	}

	if _, statErr := os.Stat(restorer.archivePath); !os.IsNotExist(statErr) {
		t.Fatalf("scratch file survived the failed run: %v", statErr)
	}
	if got := countScratchDirs(t); got != before {
		t.Fatalf("scratch dirs leaked: %d -> %d", before, got)
	}
}
