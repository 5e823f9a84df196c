// Package session defines session identity shapes and the geo/attribution
// snapshot attached to a browsing visit.
package session

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	syntheticPrefix = "session_"
	upgradedPrefix  = "ip_"
)

// IsSynthetic reports whether id is a temporary timestamp-derived identifier.
func IsSynthetic(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

// IsUpgraded reports whether id is an IP-derived identifier.
func IsUpgraded(id string) bool {
	return strings.HasPrefix(id, upgradedPrefix)
}

// SyntheticID builds a temporary identifier from a millisecond timestamp and
// a random suffix. It is handed out immediately so callers never wait on
// network resolution.
func SyntheticID(now time.Time, suffix string) string {
	return syntheticPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

// UpgradedID derives the stable identifier from a resolved public IP
// address, replacing address separators with a storage-safe underscore.
func UpgradedID(ip string) string {
	sanitized := strings.NewReplacer(".", "_", ":", "_").Replace(ip)
	return upgradedPrefix + sanitized
}

// GeoLocation is the coarse geolocation resolved once per session.
type GeoLocation struct {
	IP      string `json:"ip,omitempty"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// Attribution carries the marketing campaign parameters parsed from the
// entry URL once at session creation.
type Attribution struct {
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	FBClid      string `json:"fbclid,omitempty"`
}

// ParseAttribution extracts campaign parameters from the entry URL. A
// click identifier without an explicit utm_source is treated as paid
// Facebook traffic.
func ParseAttribution(entryURL, referrer string) Attribution {
	attr := Attribution{Referrer: referrer}

	u, err := url.Parse(entryURL)
	if err != nil {
		return attr
	}
	params := u.Query()

	attr.FBClid = params.Get("fbclid")
	attr.UTMSource = params.Get("utm_source")
	if attr.UTMSource == "" && attr.FBClid != "" {
		attr.UTMSource = "facebook"
	}
	attr.UTMMedium = params.Get("utm_medium")
	attr.UTMCampaign = params.Get("utm_campaign")
	attr.UTMTerm = params.Get("utm_term")
	attr.UTMContent = params.Get("utm_content")

	return attr
}
