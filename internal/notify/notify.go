package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kirana-labs/kirana/internal/config"
)

// Sender delivers a push notification to one device token. Delivery is
// fire-and-forget: callers get an error for transport failures only, there
// is no receipt tracking.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// Params defines dependencies for constructing a Sender.
type Params struct {
	fx.In

	Config config.Config
	Logger *zap.Logger
}

// NewSender returns the Expo push sender, or a noop when notifications are
// disabled.
func NewSender(p Params) Sender {
	if !p.Config.Notifications.Enabled {
		p.Logger.Info("notifications disabled, using noop sender")
		return &noopSender{logger: p.Logger}
	}
	return &expoSender{
		endpoint: p.Config.Notifications.Endpoint,
		client:   &http.Client{Timeout: p.Config.Notifications.Timeout},
		logger:   p.Logger,
	}
}

type noopSender struct {
	logger *zap.Logger
}

func (n *noopSender) Send(ctx context.Context, token, title, body string) error {
	n.logger.Debug("noop push", zap.String("title", title))
	return nil
}

// expoSender talks to the Expo push gateway.
type expoSender struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// expoMessage is the Expo push API request body.
type expoMessage struct {
	To    string `json:"to"`
	Sound string `json:"sound"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (e *expoSender) Send(ctx context.Context, token, title, body string) error {
	if token == "" {
		return nil
	}

	payload, err := json.Marshal(expoMessage{
		To:    token,
		Sound: "default",
		Title: title,
		Body:  body,
	})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, snippet)
	}

	e.logger.Debug("push delivered",
		zap.String("title", title),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
