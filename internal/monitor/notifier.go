package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Notifier envia alertas de mudança de estado do banco.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Alert descreve uma transição disponível/indisponível.
type Alert struct {
	Up       bool
	Detail   string
	Observed time.Time
}

func (a Alert) text() string {
	if a.Up {
		return ":white_check_mark: banco de dados voltou a responder"
	}
	return ":rotating_light: banco de dados indisponível: " + a.Detail
}

// WebhookNotifier publica alertas em um webhook compatível com Slack.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier devolve nil quando a URL não foi configurada.
func NewWebhookNotifier(url string) *WebhookNotifier {
	if url == "" {
		return nil
	}
	return &WebhookNotifier{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(map[string]string{"text": alert.text()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook respondeu %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier registra alertas apenas no log.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) LogNotifier {
	return LogNotifier{logger: logger}
}

func (n LogNotifier) Notify(_ context.Context, alert Alert) error {
	event := n.logger.Warn()
	if alert.Up {
		event = n.logger.Info()
	}
	event.Bool("up", alert.Up).Str("detail", alert.Detail).Msg("monitor: " + alert.text())
	return nil
}
