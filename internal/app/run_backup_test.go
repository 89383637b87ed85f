package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/dev-tams/snapvault/internal/compression"
	"github.com/dev-tams/snapvault/internal/naming"
	"github.com/dev-tams/snapvault/internal/pgtools"
	"github.com/dev-tams/snapvault/internal/storage"
)

func TestRunBackupUploadsArtifactAndReleasesScratch(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.BackupOptions = "--no-owner"
	st := testStore(dir)
	dumper := &fakeDumper{payload: []byte("pg_dump tar stream")}

	before := countScratchDirs(t)

	art, err := RunBackup(context.Background(), cfg, st, dumper, nil, false)
	if err != nil {
		t.Fatalf("RunBackup() unexpected error: %v", err)
	}

	if art == nil || art.SizeBytes == 0 {
		t.Fatalf("unexpected artifact: %+v", art)
	}
	if _, ok := naming.Time("backup", art.Key); !ok {
		t.Fatalf("artifact key %q does not carry a timestamp", art.Key)
	}
	if dumper.dsn != cfg.BackupDatabaseURL || dumper.options != "--no-owner" {
		t.Fatalf("dumper saw dsn=%q options=%q", dumper.dsn, dumper.options)
	}

	objects, err := st.List(context.Background(), "backup-")
	if err != nil {
		t.Fatalf("List(): %v", err)
	}
	if len(objects) != 1 || objects[0].Key != art.Key {
		t.Fatalf("stored objects = %+v, want one %q", objects, art.Key)
	}

	if _, err := os.Stat(dumper.dstPath); !os.IsNotExist(err) {
		t.Fatalf("scratch file survived the run: %v", err)
	}
	if got := countScratchDirs(t); got != before {
		t.Fatalf("scratch dirs leaked: %d -> %d", before, got)
	}
}

func TestRunBackupDumpFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)
	dumper := &fakeDumper{
		err: &pgtools.ToolError{Tool: "pg_dump", Stderr: "connection refused", Err: errors.New("exit status 1")},
	}

	before := countScratchDirs(t)

	_, err := RunBackup(context.Background(), testConfig(dir), st, dumper, nil, false)

	var te *pgtools.ToolError
	if !errors.As(err, &te) || te.Tool != "pg_dump" {
		t.Fatalf("expected pg_dump ToolError, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("diagnostics lost: %v", err)
	}

	objects, listErr := st.List(context.Background(), "backup-")
	if listErr != nil {
		t.Fatalf("List(): %v", listErr)
	}
	if len(objects) != 0 {
		t.Fatalf("failed run must not upload, got %+v", objects)
	}

	if _, statErr := os.Stat(dumper.dstPath); !os.IsNotExist(statErr) {
		t.Fatalf("scratch file survived the failed run: %v", statErr)
	}
	if got := countScratchDirs(t); got != before {
		t.Fatalf("scratch dirs leaked: %d -> %d", before, got)
	}
}

func TestRunBackupRejectsUnusableArchiveDespiteZeroExit(t *testing.T) {
	dir := t.TempDir()
	st := testStore(dir)
	// tool "succeeded" but produced nothing usable
	dumper := &fakeDumper{raw: []byte{}}

	_, err := RunBackup(context.Background(), testConfig(dir), st, dumper, nil, false)
	if !errors.Is(err, compression.ErrInvalidArchive) {
		t.Fatalf("expected ErrInvalidArchive, got %v", err)
	}

	objects, listErr := st.List(context.Background(), "backup-")
	if listErr != nil {
		t.Fatalf("List(): %v", listErr)
	}
	if len(objects) != 0 {
		t.Fatalf("invalid archive must not be uploaded, got %+v", objects)
	}
	if _, statErr := os.Stat(dumper.dstPath); !os.IsNotExist(statErr) {
		t.Fatalf("scratch file survived: %v", statErr)
	}
}

func TestRunBackupAttachesDigestWhenEnabled(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.AttachChecksum = true
	st := testStore(dir)

	// the local backend verifies the digest, so success means it matched
	art, err := RunBackup(context.Background(), cfg, st, &fakeDumper{payload: []byte("content")}, nil, false)
	if err != nil {
		t.Fatalf("RunBackup() unexpected error: %v", err)
	}

	if _, err := storage.ResolveNewest(context.Background(), st, "backup-"); err != nil {
		t.Fatalf("artifact missing after digest upload: %v", err)
	}
	if art.Dest == "" {
		t.Fatal("artifact missing destination")
	}
}

func TestRunBackupConfigurationErrorBeforeAnyWork(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.BackupDatabaseURL = ""
	dumper := &fakeDumper{payload: []byte("x")}

	_, err := RunBackup(context.Background(), cfg, testStore(dir), dumper, nil, false)
	if err == nil || !strings.Contains(err.Error(), "BACKUP_DATABASE_URL") {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if dumper.calls != 0 {
		t.Fatalf("dump tool invoked despite configuration error")
	}
}

func TestRunBackupNeverLogsCredentials(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	dumper := &fakeDumper{
		err: &pgtools.ToolError{Tool: "pg_dump", Stderr: "fatal", Err: errors.New("exit status 1")},
	}

	_, err := RunBackup(context.Background(), cfg, testStore(dir), dumper, nil, false)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("credentials leaked into error: %v", err)
	}
}
