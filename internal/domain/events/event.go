// Package events defines the tracking event vocabulary shared by the
// funnel tracking pipeline and the dashboard.
package events

import "math"

// EventType identifies a funnel lifecycle point.
type EventType string

const (
	EventBlockView      EventType = "block_view"
	EventAnswerSelected EventType = "answer_selected"
	EventBlockCompleted EventType = "block_completed"
	EventCheckoutClick  EventType = "checkout_click"
	EventPageAbandon    EventType = "page_abandon"
)

// Valid reports whether t is one of the known lifecycle event types.
func (t EventType) Valid() bool {
	switch t {
	case EventBlockView, EventAnswerSelected, EventBlockCompleted, EventCheckoutClick, EventPageAbandon:
		return true
	}
	return false
}

// TrackingEvent is an immutable fact emitted at a funnel lifecycle point.
// Events are never mutated after creation; the only relabeling permitted is
// the one-time session-id rewrite performed by the identity upgrade.
type TrackingEvent struct {
	ID            string    `json:"id,omitempty"`
	EventType     EventType `json:"eventType"`
	BlockID       int       `json:"blockId"`
	BlockType     string    `json:"blockType"`
	BlockTitle    string    `json:"blockTitle,omitempty"`
	AnswerID      string    `json:"answerId,omitempty"`
	AnswerText    string    `json:"answerText,omitempty"`
	Progress      int       `json:"progress"`
	VitalityScore *int      `json:"vitalityScore,omitempty"`
	Timestamp     int64     `json:"timestamp"` // epoch milliseconds
	SessionID     string    `json:"sessionId"`
	UserAgent     string    `json:"userAgent,omitempty"`

	// Enrichment fields, merged in at remote-send time from the session's
	// geo/attribution snapshot. An event-carried value survives only when the
	// snapshot has no value for the field.
	IPAddress   string `json:"ipAddress,omitempty"`
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`
	UTMSource   string `json:"utmSource,omitempty"`
	UTMMedium   string `json:"utmMedium,omitempty"`
	UTMCampaign string `json:"utmCampaign,omitempty"`
	UTMTerm     string `json:"utmTerm,omitempty"`
	UTMContent  string `json:"utmContent,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// DefaultTotalBlocks is the funnel length assumed when a caller omits it.
const DefaultTotalBlocks = 21

// Progress computes the funnel completion percentage for a block,
// round(blockID/totalBlocks*100), clamped to [0,100].
func Progress(blockID, totalBlocks int) int {
	if totalBlocks <= 0 {
		totalBlocks = DefaultTotalBlocks
	}
	p := int(math.Round(float64(blockID) / float64(totalBlocks) * 100))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
