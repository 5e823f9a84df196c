// Package security provides secure random generation and token utilities
package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// GenerateULID generates a new ULID string.
func GenerateULID() string {
	return ulid.Make().String()
}

// GenerateEventID generates a storage id for a tracking event.
func GenerateEventID() string {
	return "event_" + strings.ToLower(ulid.Make().String())
}

// GenerateSessionSuffix generates the random suffix used in synthetic
// session identifiers.
func GenerateSessionSuffix() string {
	return strings.ToLower(ulid.Make().String())
}

// GenerateSecureToken generates a cryptographically secure random token suitable for URLs.
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
