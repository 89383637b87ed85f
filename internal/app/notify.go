package app

import (
	"context"
	"fmt"
	"time"

	"github.com/dev-tams/snapvault/internal/notify"
)

const notificationTimeout = 5 * time.Second

func notifyOutcome(
	ctx context.Context,
	dispatcher *notify.Dispatcher,
	operation string,
	art *Artifact,
	started time.Time,
	runErr error,
	verbose bool,
) {
	if dispatcher == nil {
		return
	}

	event := notify.Event{
		Operation: operation,
		Status:    notify.StatusSuccess,
		Duration:  time.Since(started).Round(time.Millisecond).String(),
	}
	if runErr != nil {
		event.Status = notify.StatusFailure
		event.Error = runErr.Error()
	}
	if art != nil {
		event.Key = art.Key
		event.Bytes = art.SizeBytes
		event.Dest = art.Dest
	}

	notifyCtx, cancel := notificationContext(ctx)
	defer cancel()

	if err := dispatcher.Notify(notifyCtx, event); err != nil && verbose {
		fmt.Printf("notification failed: op=%s status=%s err=%v\n", operation, event.Status, err)
	}
}

// notificationContext detaches from the run's cancellation so a failed
// or canceled run can still be reported, while keeping values and
// applying its own timeout.
func notificationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), notificationTimeout)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
}
