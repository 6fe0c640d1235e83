package notify

import (
	"context"

	"github.com/halcyor/remedy/internal/health"
)

// MultiNotifier fans out alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that dispatches to all provided notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		filtered = append(filtered, notifier)
	}
	return &MultiNotifier{notifiers: filtered}
}

// Notify implements Notifier. Every sink is attempted; the first error is
// returned.
func (m *MultiNotifier) Notify(ctx context.Context, alerts []health.Alert) error {
	var firstErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, alerts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
