// Package alert delivers operational notices (connection up/down, watchdog
// restarts) to outside channels.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Standard notices.
const (
	Online       = "✅ Alice online"
	Offline      = "❌ Alice desconectada"
	AuthFailure  = "⚠️ Falha de auth"
	watchdogText = "⏰ Watchdog: estado \"%s\" → reiniciando."
)

// Watchdog formats the notice sent before a watchdog-driven restart.
func Watchdog(state string) string {
	if state == "" {
		state = "null"
	}
	return fmt.Sprintf(watchdogText, state)
}

// Notifier sends a text alert.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// WebhookNotifier posts {"text": ...} as JSON to a URL (Zapier-style hooks).
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

func (w *WebhookNotifier) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post alert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error (status %d): %s", resp.StatusCode, string(msg))
	}
	return nil
}

// SlackNotifier posts to a Slack incoming webhook.
type SlackNotifier struct {
	url      string
	username string
}

func NewSlackNotifier(url, username string) *SlackNotifier {
	return &SlackNotifier{url: url, username: username}
}

func (s *SlackNotifier) Notify(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{Text: text, Username: s.username}
	if err := slack.PostWebhookContext(ctx, s.url, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// Dispatcher fans an alert out to every notifier. With none configured it
// only logs the text. Delivery errors are logged, never returned.
type Dispatcher struct {
	notifiers []Notifier
	log       zerolog.Logger
}

func NewDispatcher(log zerolog.Logger, notifiers ...Notifier) *Dispatcher {
	var ns []Notifier
	for _, n := range notifiers {
		if n != nil {
			ns = append(ns, n)
		}
	}
	return &Dispatcher{notifiers: ns, log: log}
}

// FromConfig builds a dispatcher from optional webhook and Slack URLs.
func FromConfig(log zerolog.Logger, webhookURL, slackURL, slackUser string) *Dispatcher {
	var ns []Notifier
	if webhookURL != "" {
		ns = append(ns, NewWebhookNotifier(webhookURL))
	}
	if slackURL != "" {
		ns = append(ns, NewSlackNotifier(slackURL, slackUser))
	}
	return NewDispatcher(log, ns...)
}

// Send delivers text to all notifiers.
func (d *Dispatcher) Send(ctx context.Context, text string) {
	if len(d.notifiers) == 0 {
		d.log.Info().Str("alert", text).Msg("no alert channel configured")
		return
	}
	var errs []error
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		d.log.Error().Err(err).Str("alert", text).Msg("alert delivery failed")
	}
}
