// Package pixel sends behavioral events to a third-party conversion pixel.
// The integration is a capability: construction returns nil when no pixel
// is configured, and callers treat a nil client as a no-op collaborator.
package pixel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
)

// Client delivers events to the pixel's server-side events endpoint.
type Client struct {
	httpClient  *http.Client
	apiBase     string
	pixelID     string
	accessToken string
	logger      *logging.ChanneledLogger
}

// NewClient creates a pixel client, or nil when the integration is not
// configured. Absence is not an error.
func NewClient(apiBase, pixelID, accessToken string, logger *logging.ChanneledLogger) *Client {
	if pixelID == "" || accessToken == "" {
		return nil
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		apiBase:     apiBase,
		pixelID:     pixelID,
		accessToken: accessToken,
		logger:      logger,
	}
}

type eventEnvelope struct {
	Data []pixelEvent `json:"data"`
}

type pixelEvent struct {
	EventName    string         `json:"event_name"`
	EventTime    int64          `json:"event_time"`
	ActionSource string         `json:"action_source"`
	CustomData   map[string]any `json:"custom_data,omitempty"`
}

// TrackCustom delivers a custom-named event with a flat payload.
func (c *Client) TrackCustom(eventName string, payload map[string]any) error {
	return c.send(eventName, payload)
}

// TrackStandard delivers a standard conversion event.
func (c *Client) TrackStandard(eventName string, payload map[string]any) error {
	return c.send(eventName, payload)
}

func (c *Client) send(eventName string, payload map[string]any) error {
	envelope := eventEnvelope{
		Data: []pixelEvent{{
			EventName:    eventName,
			EventTime:    time.Now().UTC().Unix(),
			ActionSource: "website",
			CustomData:   payload,
		}},
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal pixel event: %w", err)
	}

	url := fmt.Sprintf("%s/%s/events?access_token=%s", c.apiBase, c.pixelID, c.accessToken)
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("pixel request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("pixel endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
