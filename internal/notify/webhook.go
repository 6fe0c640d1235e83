package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/halcyor/remedy/internal/health"
	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"alerts":{{ toJson .Alerts }},"generated_at":"{{ .GeneratedAt.Format "2006-01-02T15:04:05Z07:00" }}"}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Alerts      []health.Alert
	GeneratedAt time.Time
}

// WebhookNotifier sends alert notifications to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *httpPoster
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newHTTPPoster(logger, "webhook", webhookURL, "application/json", defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, alerts []health.Alert) error {
	if n == nil || len(alerts) == 0 {
		return nil
	}

	if err := n.poster.waitForRateLimit(ctx); err != nil {
		return err
	}

	payload := WebhookPayload{
		Alerts:      alerts,
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}

	if err := n.poster.postWithRetry(ctx, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Int("alerts", len(alerts)).
		Msg("webhook notification sent")

	return nil
}
