package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/halcyor/remedy/internal/health"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

const (
	slackMaxBlocks = 50
	// slackReservedBlocks accounts for header block + context block in each message
	slackReservedBlocks = 2
	slackMaxAlerts      = slackMaxBlocks - slackReservedBlocks
)

type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	timing     timingConfig
	poster     *httpPoster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		timing:     defaultTiming,
	}

	for _, opt := range opts {
		opt(notifier)
	}

	notifier.poster = newHTTPPoster(logger, "slack", webhookURL, "application/json", notifier.timing)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, alerts []health.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if err := n.poster.waitForRateLimit(ctx); err != nil {
		return err
	}

	messages := buildSlackMessages(alerts)
	for _, message := range messages {
		payload, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("marshal slack payload: %w", err)
		}
		if err := n.poster.postWithRetry(ctx, payload); err != nil {
			return err
		}
	}

	n.logger.Debug().
		Int("alerts", len(alerts)).
		Int("messages", len(messages)).
		Msg("slack notification sent")

	return nil
}

func (n *SlackNotifier) postOnce(ctx context.Context, payload []byte) error {
	return n.poster.postOnce(ctx, payload)
}

func buildSlackMessages(alerts []health.Alert) []slack.WebhookMessage {
	if len(alerts) == 0 {
		return nil
	}
	if slackMaxAlerts <= 0 {
		return []slack.WebhookMessage{buildSlackMessage(alerts, len(alerts), 1, 1)}
	}

	total := len(alerts)
	chunkTotal := (total + slackMaxAlerts - 1) / slackMaxAlerts
	messages := make([]slack.WebhookMessage, 0, chunkTotal)

	for i := 0; i < total; i += slackMaxAlerts {
		end := i + slackMaxAlerts
		if end > total {
			end = total
		}
		partIndex := (i / slackMaxAlerts) + 1
		messages = append(messages, buildSlackMessage(alerts[i:end], total, partIndex, chunkTotal))
	}
	return messages
}

func buildSlackMessage(alerts []health.Alert, total int, partIndex int, partTotal int) slack.WebhookMessage {
	summary := fmt.Sprintf("Recovery supervisor: %d alert(s)", total)
	if partTotal > 1 {
		summary = fmt.Sprintf("%s (part %d/%d)", summary, partIndex, partTotal)
	}
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))
	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Worst severity: *%s*", worstAlertSeverity(alerts)), false, false),
	}
	if partTotal > 1 {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Batch: %d/%d", partIndex, partTotal), false, false))
	}
	contextBlock := slack.NewContextBlock("", contextElements...)

	blocks := []slack.Block{header, contextBlock}
	for _, alert := range alerts {
		blocks = append(blocks, buildAlertBlock(alert))
	}

	blockSet := slack.Blocks{BlockSet: blocks}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func buildAlertBlock(alert health.Alert) slack.Block {
	title := fmt.Sprintf("*[%s]* %s", strings.ToUpper(string(alert.Severity)), alert.Summary)
	text := slack.NewTextBlockObject("mrkdwn", title, false, false)

	fields := make([]*slack.TextBlockObject, 0, 3)
	if alert.Service != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Service:*\n`%s`", alert.Service), false, false))
	}
	if alert.State != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*State:*\n`%s`", alert.State), false, false))
	}
	if alert.Detail != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Detail:*\n"+alert.Detail, false, false))
	}
	if len(fields) == 0 {
		fields = nil
	}

	return slack.NewSectionBlock(text, fields, nil)
}

func worstAlertSeverity(alerts []health.Alert) string {
	severity := health.AlertWarning
	for _, alert := range alerts {
		if alert.Severity == health.AlertCritical {
			severity = health.AlertCritical
			break
		}
	}
	return strings.ToUpper(string(severity))
}
