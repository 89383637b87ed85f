package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dev-tams/snapvault/internal/config"
	"github.com/dev-tams/snapvault/internal/notify"
	"github.com/dev-tams/snapvault/internal/pgtools"
	"github.com/dev-tams/snapvault/internal/schedule"
	"github.com/dev-tams/snapvault/internal/storage"
)

// RunDaemon runs the backup pipeline on a cron schedule. RUN_ON_STARTUP
// triggers an immediate run; SINGLE_SHOT_MODE exits after the first run.
// One run at a time: the loop blocks on each pipeline, so scheduled
// triggers never overlap.
func RunDaemon(
	ctx context.Context,
	cfg *config.Config,
	st storage.Store,
	dumper pgtools.Dumper,
	dispatcher *notify.Dispatcher,
	verbose bool,
) error {
	if err := cfg.ValidateDaemon(); err != nil {
		return err
	}

	if cfg.RunOnStartup {
		if verbose {
			fmt.Println("daemon: startup backup run")
		}
		if _, err := RunBackup(ctx, cfg, st, dumper, dispatcher, verbose); err != nil {
			return fmt.Errorf("startup run: %w", err)
		}
		if cfg.SingleShot {
			return nil
		}
	}

	raw := strings.TrimSpace(cfg.Schedule)
	if raw == "" {
		// only reachable as startup+single-shot, handled above
		return nil
	}
	spec, err := schedule.ParseCronSpec(raw)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", raw, err)
	}

	if verbose {
		fmt.Printf("daemon: started with schedule %q\n", raw)
	}

	lastMinute := time.Time{}

	for {
		select {
		case <-ctx.Done():
			if verbose {
				fmt.Println("daemon: shutdown requested")
			}
			return nil
		default:
		}

		now := time.Now().UTC()
		currentMinute := now.Truncate(time.Minute)
		if currentMinute.Equal(lastMinute) {
			sleepUntilNextPoll(ctx, 500*time.Millisecond)
			continue
		}
		lastMinute = currentMinute

		if !spec.Matches(currentMinute) {
			continue
		}

		if verbose {
			fmt.Printf("daemon: triggering backup at %s UTC\n", currentMinute.Format(time.RFC3339))
		}

		if _, err := RunBackup(ctx, cfg, st, dumper, dispatcher, verbose); err != nil {
			return fmt.Errorf("scheduled run: %w", err)
		}
		if cfg.SingleShot {
			return nil
		}
	}
}

func sleepUntilNextPoll(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
