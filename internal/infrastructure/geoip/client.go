// Package geoip resolves a visitor's public IP address and coarse
// geolocation through external providers.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/session"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
)

// Client queries the primary geolocation-by-IP provider and falls back to
// an IP-only provider when the primary fails. Callers treat any returned
// error as "session operates without geo enrichment"; nothing here retries.
type Client struct {
	httpClient  *http.Client
	primaryURL  string // URL template; an embedded %s receives the visitor address
	fallbackURL string
	logger      *logging.ChanneledLogger
}

// NewClient creates a geo resolution client.
func NewClient(primaryURL, fallbackURL string, timeout time.Duration, logger *logging.ChanneledLogger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
		logger:      logger,
	}
}

// primaryResponse mirrors the provider's JSON payload. Providers disagree
// on the country field name, so both spellings are accepted.
type primaryResponse struct {
	IP          string `json:"ip"`
	CountryName string `json:"country_name"`
	Country     string `json:"country"`
	City        string `json:"city"`
}

type fallbackResponse struct {
	IP string `json:"ip"`
}

// Resolve returns the visitor's location. clientIP seeds the provider URL
// template when the template carries a placeholder.
func (c *Client) Resolve(ctx context.Context, clientIP string) (*session.GeoLocation, error) {
	loc, err := c.resolvePrimary(ctx, clientIP)
	if err == nil {
		return loc, nil
	}
	c.logger.Geo().Warn("Primary geo provider failed, trying fallback", "error", err.Error())

	loc, fallbackErr := c.resolveFallback(ctx)
	if fallbackErr != nil {
		c.logger.Geo().Warn("Fallback geo provider failed", "error", fallbackErr.Error())
		return nil, fmt.Errorf("geo resolution failed: %w", fallbackErr)
	}
	return loc, nil
}

func (c *Client) resolvePrimary(ctx context.Context, clientIP string) (*session.GeoLocation, error) {
	url := c.primaryURL
	if strings.Contains(url, "%s") {
		url = fmt.Sprintf(c.primaryURL, clientIP)
	}

	var payload primaryResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	if payload.IP == "" {
		payload.IP = clientIP
	}
	if payload.IP == "" {
		return nil, fmt.Errorf("primary provider returned no address")
	}

	country := payload.CountryName
	if country == "" {
		country = payload.Country
	}

	return &session.GeoLocation{
		IP:      payload.IP,
		Country: country,
		City:    payload.City,
	}, nil
}

func (c *Client) resolveFallback(ctx context.Context) (*session.GeoLocation, error) {
	var payload fallbackResponse
	if err := c.getJSON(ctx, c.fallbackURL, &payload); err != nil {
		return nil, err
	}
	if payload.IP == "" {
		return nil, fmt.Errorf("fallback provider returned no address")
	}
	return &session.GeoLocation{IP: payload.IP}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build geo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("geo provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode geo response: %w", err)
	}
	return nil
}
