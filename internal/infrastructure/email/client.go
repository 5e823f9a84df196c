// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock implementations in tests.
type Service interface {
	SendCheckoutAlert(sessionID string, vitalityScore int, country, city string) error
}

// ResendClient is the concrete implementation of the email Service using the Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	toEmail   string
}

// NewService creates a new email service client, or nil when the
// integration is not configured. Absence is not an error.
func NewService(apiKey, fromEmail, toEmail string) Service {
	if apiKey == "" || toEmail == "" {
		return nil
	}
	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		toEmail:   toEmail,
	}
}

// SendCheckoutAlert notifies the funnel owner that a visitor clicked
// through to checkout.
func (c *ResendClient) SendCheckoutAlert(sessionID string, vitalityScore int, country, city string) error {
	location := "unknown location"
	if city != "" && country != "" {
		location = city + ", " + country
	} else if country != "" {
		location = country
	}

	html := fmt.Sprintf(
		`<h2>Checkout click</h2>
<p>A visitor reached the offer and clicked through to checkout.</p>
<ul>
<li><strong>Session:</strong> %s</li>
<li><strong>Vitality score:</strong> %d</li>
<li><strong>Location:</strong> %s</li>
</ul>`,
		sessionID, vitalityScore, location,
	)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("VitaFlow <%s>", c.fromEmail),
		To:      []string{c.toEmail},
		Subject: "VitaFlow: new checkout click",
		Html:    html,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send checkout alert via Resend: %w", err)
	}
	return nil
}
