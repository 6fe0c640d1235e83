package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/health"
)

// DryRunNotifier logs alerts without sending them anywhere.
type DryRunNotifier struct {
	logger zerolog.Logger
	inner  Notifier
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs instead.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	return &DryRunNotifier{logger: logger, inner: inner}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, alerts []health.Alert) error {
	for _, alert := range alerts {
		n.logger.Info().
			Str("severity", string(alert.Severity)).
			Str("service", alert.Service).
			Str("state", string(alert.State)).
			Str("summary", alert.Summary).
			Msg("[DRY-RUN] Would notify")
	}
	return nil
}
