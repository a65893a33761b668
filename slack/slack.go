package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"mealplanner"
)

// maxTextLen is the longest text Slack renders in a single message.
const maxTextLen = 40000

var ErrNoWebhook = errors.New("slack webhook url is not configured")

// Client posts plan summaries to an incoming webhook.
type Client struct {
	webhookURL string
	httpClient mealplanner.HTTPClient
}

var _ mealplanner.Notifier = (*Client)(nil)

func NewClient(webhookURL string, httpClient mealplanner.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

type webhookPayload struct {
	Channel string `json:"channel,omitempty"`
	Text    string `json:"text"`
	Mrkdwn  bool   `json:"mrkdwn"`
}

// PostMessage sends message as a preformatted block so the plan grid keeps
// its alignment. An empty channel posts to the webhook's default channel.
func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	if c.webhookURL == "" {
		return ErrNoWebhook
	}

	payload, err := json.Marshal(webhookPayload{
		Channel: channel,
		Text:    codeBlock(message),
		Mrkdwn:  true,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("failed to post message: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	slog.Info("SLACK: Plan posted", "channel", channel, "bytes", len(payload))
	return nil
}

func codeBlock(message string) string {
	const fence = "```"
	message = strings.ReplaceAll(message, fence, "'''")
	limit := maxTextLen - 2*len(fence) - 2
	if len(message) > limit {
		message = message[:limit-3] + "..."
	}
	return fence + "\n" + message + "\n" + fence
}
