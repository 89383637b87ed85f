package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dev-tams/snapvault/internal/config"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Event is the notification payload shared by all notifier
// implementations. It must stay credential-free: keys, counts and
// redacted targets only.
type Event struct {
	Operation string `json:"operation"`
	Status    string `json:"status"`
	Key       string `json:"key,omitempty"`
	Bytes     int64  `json:"bytes,omitempty"`
	Dest      string `json:"dest,omitempty"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type Dispatcher struct {
	onSuccess bool
	onFailure bool
	notifiers []Notifier
}

// NewDispatcher wires the configured notifiers. With neither a webhook
// URL nor SMTP settings present it returns a dispatcher that does
// nothing, which is the common container setup.
func NewDispatcher(cfg config.NotifyConfig) (*Dispatcher, error) {
	onSuccess, onFailure, err := parseOn(cfg.On)
	if err != nil {
		return nil, err
	}

	d := &Dispatcher{onSuccess: onSuccess, onFailure: onFailure}

	if strings.TrimSpace(cfg.WebhookURL) != "" {
		nf, err := NewWebhook(cfg.WebhookURL)
		if err != nil {
			return nil, fmt.Errorf("webhook: %w", err)
		}
		d.notifiers = append(d.notifiers, nf)
	}

	if strings.TrimSpace(cfg.SMTPHost) != "" {
		nf, err := NewEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.From, cfg.To, cfg.Username, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
		d.notifiers = append(d.notifiers, nf)
	}

	return d, nil
}

func (d *Dispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil || len(d.notifiers) == 0 || !d.wants(event.Status) {
		return nil
	}

	var errs []error
	for i, n := range d.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) wants(status string) bool {
	switch status {
	case StatusSuccess:
		return d.onSuccess
	case StatusFailure:
		return d.onFailure
	default:
		return false
	}
}

func parseOn(raw string) (bool, bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success":
		return true, false, nil
	case "failure":
		return false, true, nil
	case "both":
		return true, true, nil
	default:
		return false, false, fmt.Errorf("NOTIFY_ON must be success, failure, or both, got %q", raw)
	}
}
