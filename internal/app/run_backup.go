package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dev-tams/snapvault/internal/compression"
	"github.com/dev-tams/snapvault/internal/config"
	"github.com/dev-tams/snapvault/internal/naming"
	"github.com/dev-tams/snapvault/internal/notify"
	"github.com/dev-tams/snapvault/internal/pgtools"
	"github.com/dev-tams/snapvault/internal/scratch"
	"github.com/dev-tams/snapvault/internal/storage"
)

// Artifact is one stored snapshot, reported after a successful upload.
type Artifact struct {
	Key       string
	SizeBytes int64
	CreatedAt time.Time
	Dest      string
}

// RunBackup executes the dump pipeline: derive key, allocate scratch,
// dump+compress, validate, optionally digest, upload, release scratch.
// Stages run strictly in order; scratch release happens on every exit
// path.
func RunBackup(
	ctx context.Context,
	cfg *config.Config,
	st storage.Store,
	dumper pgtools.Dumper,
	dispatcher *notify.Dispatcher,
	verbose bool,
) (art *Artifact, err error) {
	started := time.Now().UTC()
	defer func() {
		notifyOutcome(ctx, dispatcher, "backup", art, started, err, verbose)
	}()

	if err := cfg.ValidateBackup(); err != nil {
		return nil, err
	}

	key := naming.Key(cfg.Prefix, started)

	if verbose {
		fmt.Printf(
			"backup pipeline: source=%s key=%s storage=%s checksum=%v\n",
			config.RedactDSN(cfg.BackupDatabaseURL),
			key,
			st.Name(),
			cfg.AttachChecksum,
		)
	}

	scratchPath, err := scratch.Allocate(key)
	if err != nil {
		return nil, err
	}
	var cl cleanup
	cl.add(scratchPath)
	defer cl.run()

	diag, err := dumper.Dump(ctx, cfg.BackupDatabaseURL, cfg.BackupOptions, scratchPath)
	if diag != "" {
		fmt.Fprintf(os.Stderr, "warning: pg_dump: %s\n", diag)
	}
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", config.RedactDSN(cfg.BackupDatabaseURL), err)
	}

	// A zero pg_dump exit does not prove a usable archive.
	if err := compression.Validate(scratchPath); err != nil {
		return nil, fmt.Errorf("validate archive: %w", err)
	}

	info, err := os.Stat(scratchPath)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	var opts storage.PutOptions
	if cfg.AttachChecksum {
		sum, err := storage.FileSHA256(scratchPath)
		if err != nil {
			return nil, err
		}
		opts.ChecksumSHA256 = sum
	}

	dest, err := st.Put(ctx, key, scratchPath, opts)
	if err != nil {
		return nil, err
	}

	art = &Artifact{
		Key:       key,
		SizeBytes: info.Size(),
		CreatedAt: started,
		Dest:      dest,
	}

	fmt.Printf(
		"backup OK: key=%s bytes=%d dest=%s duration=%s\n",
		key,
		info.Size(),
		dest,
		time.Since(started).Round(time.Millisecond),
	)
	return art, nil
}
