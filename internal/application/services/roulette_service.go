package services

import (
	"github.com/vitaflowapp/vitaflow-go/internal/domain/roulette"
	"github.com/vitaflowapp/vitaflow-go/internal/infrastructure/observability/logging"
)

// SpinRequest is what the funnel posts when the visitor spins the wheel.
type SpinRequest struct {
	SessionID     string  `json:"sessionId"`
	Attempt       int     `json:"attemptNumber" binding:"required"`
	PriorRotation float64 `json:"priorRotationDegrees"`
}

// RouletteService computes deterministic wheel outcomes. The wheel is pure
// presentation theater: the first spin always teases, every later spin
// always lands the jackpot.
type RouletteService struct {
	logger *logging.ChanneledLogger
}

// NewRouletteService creates a new roulette service.
func NewRouletteService(logger *logging.ChanneledLogger) *RouletteService {
	return &RouletteService{logger: logger}
}

// Spin returns the rotation target and outcome for one attempt.
func (s *RouletteService) Spin(req SpinRequest) roulette.SpinResult {
	result := roulette.Spin(req.Attempt, req.PriorRotation)

	s.logger.Tracking().Info("Roulette spin computed",
		"sessionId", req.SessionID,
		"attempt", req.Attempt,
		"segment", result.LandingSegmentIndex,
		"label", result.ResultLabel)

	return result
}
