// Package roulette computes deterministic landing rotations for the
// gamified discount wheel. The outcome is controlled by the attempt
// counter, never by chance: the first spin lands on a fixed non-winning
// segment, every later spin lands on the jackpot.
package roulette

import (
	"math"
	"time"
)

const (
	// SegmentCount is the number of equal wheel segments, clockwise from 0.
	SegmentCount = 8
	// SegmentAngle is the angular width of one segment in degrees.
	SegmentAngle = 360.0 / SegmentCount
	// BaseSpinDegrees adds six full revolutions per spin for visual effect.
	BaseSpinDegrees = 2160.0
	// pointerOffset is the absolute wheel angle at which segment 0 sits
	// under the pointer.
	pointerOffset = 247.5

	// JackpotIndex is the designated winning segment.
	JackpotIndex = 0
	// FirstSpinIndex is the designated non-winning segment for attempt 1.
	FirstSpinIndex = 1
)

// SpinDuration matches the wheel's spin animation; the outcome is reported
// to the player after this long.
const SpinDuration = 4100 * time.Millisecond

// Labels holds the segment labels, clockwise from segment 0.
var Labels = [SegmentCount]string{"WIN!", "0%", "10%", "0%", "60%", "0%", "20%", "0%"}

// SpinResult describes a computed spin.
type SpinResult struct {
	FinalRotationDegrees float64 `json:"finalRotationDegrees"`
	LandingSegmentIndex  int     `json:"landingSegmentIndex"`
	ResultLabel          string  `json:"resultLabel"`
	DurationMS           int64   `json:"durationMs"`
}

// TargetIndex returns the segment a given attempt must land on.
func TargetIndex(attempt int) int {
	if attempt == 1 {
		return FirstSpinIndex
	}
	return JackpotIndex
}

// Spin computes the rotation target for an attempt given the wheel's
// accumulated rotation. The returned rotation always exceeds
// priorRotation+BaseSpinDegrees, so repeated spins animate as continued
// forward motion, and its value modulo 360 lands the target segment under
// the pointer exactly.
func Spin(attempt int, priorRotation float64) SpinResult {
	target := TargetIndex(attempt)

	current := math.Mod(priorRotation, 360)
	landing := pointerOffset - float64(target)*SegmentAngle
	delta := math.Mod(landing-current, 360)
	if delta <= 0 {
		delta += 360
	}
	final := priorRotation + BaseSpinDegrees + delta

	return SpinResult{
		FinalRotationDegrees: final,
		LandingSegmentIndex:  target,
		ResultLabel:          Labels[target],
		DurationMS:           SpinDuration.Milliseconds(),
	}
}

// LandingIndex maps an accumulated rotation back to the segment under the
// pointer. It is the inverse of the geometry used by Spin.
func LandingIndex(rotation float64) int {
	orientation := math.Mod(rotation, 360)
	if orientation < 0 {
		orientation += 360
	}
	idx := int(math.Round(math.Mod(pointerOffset-orientation+720, 360) / SegmentAngle))
	return idx % SegmentCount
}
