package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/halcyor/remedy/internal/health"
)

// LogNotifier writes alerts to the log only. It is the always-on sink that
// keeps alerts visible when no external delivery is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-only sink.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, alerts []health.Alert) error {
	for _, alert := range alerts {
		event := n.logger.Warn()
		if alert.Severity == health.AlertCritical {
			event = n.logger.Error()
		}
		event.
			Str("alert", alert.ID).
			Str("service", alert.Service).
			Str("state", string(alert.State)).
			Str("detail", alert.Detail).
			Msg(alert.Summary)
	}
	return nil
}
