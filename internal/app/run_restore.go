package app

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/dev-tams/snapvault/internal/compression"
	"github.com/dev-tams/snapvault/internal/config"
	"github.com/dev-tams/snapvault/internal/naming"
	"github.com/dev-tams/snapvault/internal/notify"
	"github.com/dev-tams/snapvault/internal/pgtools"
	"github.com/dev-tams/snapvault/internal/scratch"
	"github.com/dev-tams/snapvault/internal/storage"
)

// RunRestore executes the restore pipeline: resolve source key, download
// to scratch, validate, decompress to a second scratch file, pg_restore,
// release both scratch files. A missing restore target is a
// configuration error surfaced before any disk or network activity.
func RunRestore(
	ctx context.Context,
	cfg *config.Config,
	st storage.Store,
	restorer pgtools.Restorer,
	dispatcher *notify.Dispatcher,
	verbose bool,
) (err error) {
	started := time.Now().UTC()
	var art *Artifact
	defer func() {
		notifyOutcome(ctx, dispatcher, "restore", art, started, err, verbose)
	}()

	if err := cfg.ValidateRestore(); err != nil {
		return err
	}

	key := cfg.RestoreKey
	if key != "" {
		// Get re-applies the bucket subfolder itself, so a key pasted
		// from a backup destination line must not carry it twice.
		if sub := strings.Trim(cfg.Storage.Subfolder, "/"); sub != "" {
			key = strings.TrimPrefix(key, sub+"/")
		}
	}
	if key == "" {
		obj, err := storage.ResolveNewest(ctx, st, cfg.Prefix+"-")
		if err != nil {
			return err
		}
		key = obj.Key
	}
	createdAt, _ := naming.Time(cfg.Prefix, key)

	if verbose {
		fmt.Printf(
			"restore pipeline: key=%s target=%s storage=%s\n",
			key,
			config.RedactDSN(cfg.RestoreDatabaseURL),
			st.Name(),
		)
	}

	base := path.Base(key)

	gzPath, err := scratch.Allocate(base)
	if err != nil {
		return err
	}
	var cl cleanup
	cl.add(gzPath)
	defer cl.run()

	n, err := st.Get(ctx, key, gzPath)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}

	// Guards against partial or corrupted downloads before anything
	// touches the target database.
	if err := compression.Validate(gzPath); err != nil {
		return fmt.Errorf("validate download %s: %w", key, err)
	}

	tarPath, err := scratch.Allocate(strings.TrimSuffix(base, ".gz"))
	if err != nil {
		return err
	}
	cl.add(tarPath)

	if _, err := compression.GunzipFile(gzPath, tarPath); err != nil {
		return fmt.Errorf("decompress %s: %w", key, err)
	}

	diag, err := restorer.Restore(ctx, cfg.RestoreDatabaseURL, cfg.RestoreOptions, tarPath)
	if diag != "" {
		fmt.Fprintf(os.Stderr, "warning: pg_restore: %s\n", diag)
	}
	if err != nil {
		return fmt.Errorf("restore into %s: %w", config.RedactDSN(cfg.RestoreDatabaseURL), err)
	}

	art = &Artifact{Key: key, SizeBytes: n, CreatedAt: createdAt}

	fmt.Printf(
		"restore OK: key=%s bytes=%d target=%s duration=%s\n",
		key,
		n,
		config.RedactDSN(cfg.RestoreDatabaseURL),
		time.Since(started).Round(time.Millisecond),
	)
	return nil
}
