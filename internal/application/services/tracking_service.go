package services

import (
	"strconv"
	"time"

	"github.com/vitaflowapp/vitaflow-go/internal/domain/events"
	"github.com/vitaflowapp/vitaflow-go/internal/domain/repositories"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/caching/stores"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/email"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/messaging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/performance"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/pixel"
	"github.com/vitaflowapp/vitaflow-go/pkg/config"
)

// TrackRequest is the payload the funnel posts at each lifecycle point.
// EventType is set by the route for the typed endpoints and carried in the
// body for the beacon path.
type TrackRequest struct {
	SessionID     string `json:"sessionId" binding:"required"`
	EventType     string `json:"eventType"`
	BlockID       int    `json:"blockId"`
	FinalBlockID  int    `json:"finalBlockId"` // checkout-click names the last block this way
	BlockType     string `json:"blockType"`
	BlockTitle    string `json:"blockTitle"`
	AnswerID      string `json:"answerId"`
	AnswerText    string `json:"answerText"`
	TotalBlocks   int    `json:"totalBlocks"`
	VitalityScore *int   `json:"vitalityScore"`
	Timestamp     int64  `json:"timestamp"` // epoch milliseconds; zero means server time
	UserAgent     string `json:"-"`
}

// TrackingService is the fan-out hub of the pipeline. Every accepted event
// is appended to the local log synchronously, then mirrored to the remote
// store, the conversion pixel, and the live dashboard feed asynchronously.
// No sink failure ever reaches the funnel.
type TrackingService struct {
	localEvents  repositories.EventStore
	remoteEvents repositories.RemoteEventStore
	sessions     *stores.SessionsStore
	pixelClient  *pixel.Client
	emailService email.Service
	broadcaster  *messaging.LiveBroadcaster
	logger       *logging.ChanneledLogger
	perf         *performance.Tracker
}

// NewTrackingService creates a new tracking service. pixelClient,
// emailService, remoteEvents and broadcaster may be nil; the corresponding
// sinks are skipped.
func NewTrackingService(
	localEvents repositories.EventStore,
	remoteEvents repositories.RemoteEventStore,
	sessions *stores.SessionsStore,
	pixelClient *pixel.Client,
	emailService email.Service,
	broadcaster *messaging.LiveBroadcaster,
	logger *logging.ChanneledLogger,
	perf *performance.Tracker,
) *TrackingService {
	return &TrackingService{
		localEvents:  localEvents,
		remoteEvents: remoteEvents,
		sessions:     sessions,
		pixelClient:  pixelClient,
		emailService: emailService,
		broadcaster:  broadcaster,
		logger:       logger,
		perf:         perf,
	}
}

// Track records one funnel event and fans it out to every configured sink.
// Only a malformed event type is rejected; sink failures are logged and
// swallowed so the funnel never stalls on analytics.
func (s *TrackingService) Track(req TrackRequest) (*events.TrackingEvent, bool) {
	eventType := events.EventType(req.EventType)
	if !eventType.Valid() {
		s.logger.Tracking().Warn("Rejected event with unknown type",
			"eventType", req.EventType,
			"sessionId", req.SessionID)
		return nil, false
	}

	marker := s.perf.StartOperation("track_event", req.SessionID)
	defer marker.Complete()

	event := s.buildEvent(req, eventType)

	// Local append is synchronous so the dashboard reflects the event on
	// the next read. It absorbs its own failures.
	s.localEvents.Append(event)

	go s.sendRemote(event)
	go s.sendPixel(event)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(event)
	}

	if eventType == events.EventCheckoutClick {
		go s.notifyCheckout(event)
	}

	s.logger.Tracking().Info("Event tracked",
		"eventType", event.EventType,
		"blockId", event.BlockID,
		"progress", event.Progress,
		"sessionId", event.SessionID)

	return event, true
}

// TrackBeacon handles the unload-safe delivery path. Beacon events skip the
// remote enrichment round trip entirely: the browser is tearing the page
// down and only the local append is guaranteed to matter.
func (s *TrackingService) TrackBeacon(req TrackRequest) bool {
	eventType := events.EventType(req.EventType)
	if !eventType.Valid() {
		return false
	}

	event := s.buildEvent(req, eventType)
	s.localEvents.Append(event)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(event)
	}

	s.logger.Tracking().Info("Beacon event tracked",
		"eventType", event.EventType,
		"sessionId", event.SessionID)
	return true
}

func (s *TrackingService) buildEvent(req TrackRequest, eventType events.EventType) *events.TrackingEvent {
	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().UTC().UnixMilli()
	}

	if req.BlockID == 0 && req.FinalBlockID > 0 {
		req.BlockID = req.FinalBlockID
	}

	totalBlocks := req.TotalBlocks
	if totalBlocks <= 0 {
		totalBlocks = config.TotalBlocks
	}

	progress := events.Progress(req.BlockID, totalBlocks)
	if eventType == events.EventCheckoutClick {
		progress = 100
	}

	return &events.TrackingEvent{
		EventType:     eventType,
		BlockID:       req.BlockID,
		BlockType:     req.BlockType,
		BlockTitle:    req.BlockTitle,
		AnswerID:      req.AnswerID,
		AnswerText:    req.AnswerText,
		Progress:      progress,
		VitalityScore: req.VitalityScore,
		Timestamp:     timestamp,
		SessionID:     req.SessionID,
		UserAgent:     req.UserAgent,
	}
}

// sendRemote enriches the event from the session snapshot and mirrors it
// into the remote ingestion store. The snapshot wins every field it has a
// value for; event-carried values only fill gaps.
func (s *TrackingService) sendRemote(event *events.TrackingEvent) {
	if s.remoteEvents == nil {
		return
	}

	enriched := *event
	if loc, attr, ok := s.sessions.Snapshot(event.SessionID); ok {
		if loc != nil {
			if loc.IP != "" {
				enriched.IPAddress = loc.IP
			}
			if loc.Country != "" {
				enriched.Country = loc.Country
			}
			if loc.City != "" {
				enriched.City = loc.City
			}
		}
		if attr.UTMSource != "" {
			enriched.UTMSource = attr.UTMSource
		}
		if attr.UTMMedium != "" {
			enriched.UTMMedium = attr.UTMMedium
		}
		if attr.UTMCampaign != "" {
			enriched.UTMCampaign = attr.UTMCampaign
		}
		if attr.UTMTerm != "" {
			enriched.UTMTerm = attr.UTMTerm
		}
		if attr.UTMContent != "" {
			enriched.UTMContent = attr.UTMContent
		}
		if attr.Referrer != "" {
			enriched.Referrer = attr.Referrer
		}
	}

	if err := s.remoteEvents.Insert(&enriched); err != nil {
		s.logger.Tracking().Warn("Remote event insert failed",
			"eventType", enriched.EventType,
			"sessionId", enriched.SessionID,
			"error", err.Error())
	}
}

// sendPixel forwards the event to the conversion pixel when one is
// configured.
func (s *TrackingService) sendPixel(event *events.TrackingEvent) {
	if s.pixelClient == nil {
		return
	}

	var name string
	switch event.EventType {
	case events.EventBlockView:
		name = "BlockView"
	case events.EventAnswerSelected:
		name = "AnswerSelected"
	case events.EventBlockCompleted:
		name = "BlockCompleted"
	case events.EventCheckoutClick:
		name = "CheckoutClick"
	case events.EventPageAbandon:
		name = "PageAbandon"
	default:
		return
	}

	payload := map[string]any{
		"block_id":   event.BlockID,
		"block_type": event.BlockType,
		"progress":   event.Progress,
		"session_id": event.SessionID,
	}
	if event.VitalityScore != nil {
		payload["vitality_score"] = *event.VitalityScore
	}

	if err := s.pixelClient.TrackCustom(name, payload); err != nil {
		s.logger.Pixel().Warn("Pixel event delivery failed",
			"eventName", name,
			"sessionId", event.SessionID,
			"error", err.Error())
	}

	if event.EventType == events.EventCheckoutClick {
		value, err := strconv.ParseFloat(config.CheckoutValue, 64)
		if err != nil {
			value = 0
		}
		standard := map[string]any{
			"content_name": "VitaFlow Quiz Offer",
			"currency":     "USD",
			"value":        value,
		}
		if err := s.pixelClient.TrackStandard("InitiateCheckout", standard); err != nil {
			s.logger.Pixel().Warn("Pixel checkout conversion delivery failed",
				"sessionId", event.SessionID,
				"error", err.Error())
		}
	}
}

// notifyCheckout alerts the funnel owner about a checkout click when email
// is configured.
func (s *TrackingService) notifyCheckout(event *events.TrackingEvent) {
	if s.emailService == nil {
		return
	}

	score := 0
	if event.VitalityScore != nil {
		score = *event.VitalityScore
	}

	var country, city string
	if loc, _, ok := s.sessions.Snapshot(event.SessionID); ok && loc != nil {
		country = loc.Country
		city = loc.City
	}

	if err := s.emailService.SendCheckoutAlert(event.SessionID, score, country, city); err != nil {
		s.logger.Email().Warn("Checkout alert email failed",
			"sessionId", event.SessionID,
			"error", err.Error())
	}
}
