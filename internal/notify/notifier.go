package notify

import (
	"context"

	"github.com/halcyor/remedy/internal/health"
)

// Notifier delivers alerts to external systems.
type Notifier interface {
	Notify(ctx context.Context, alerts []health.Alert) error
}
