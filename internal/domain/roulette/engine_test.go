package roulette

import (
	"math"
	"testing"
)

func TestFirstSpinLandsOnNonWinningSegment(t *testing.T) {
	res := Spin(1, 0)

	if res.LandingSegmentIndex != FirstSpinIndex {
		t.Fatalf("attempt 1 landed on segment %d, want %d", res.LandingSegmentIndex, FirstSpinIndex)
	}
	if res.ResultLabel != "0%" {
		t.Fatalf("attempt 1 result label = %q, want %q", res.ResultLabel, "0%")
	}
	if got := LandingIndex(res.FinalRotationDegrees); got != FirstSpinIndex {
		t.Fatalf("final rotation %.4f resolves to segment %d, want %d", res.FinalRotationDegrees, got, FirstSpinIndex)
	}
}

func TestSecondSpinLandsOnJackpotFromArbitraryRotation(t *testing.T) {
	prior := 2617.3
	res := Spin(2, prior)

	if res.LandingSegmentIndex != JackpotIndex {
		t.Fatalf("attempt 2 landed on segment %d, want %d", res.LandingSegmentIndex, JackpotIndex)
	}
	if res.ResultLabel != "WIN!" {
		t.Fatalf("attempt 2 result label = %q, want %q", res.ResultLabel, "WIN!")
	}
	if res.FinalRotationDegrees <= prior {
		t.Fatalf("final rotation %.4f not greater than prior %.4f", res.FinalRotationDegrees, prior)
	}
	if got := LandingIndex(res.FinalRotationDegrees); got != JackpotIndex {
		t.Fatalf("final rotation %.4f resolves to segment %d, want %d", res.FinalRotationDegrees, got, JackpotIndex)
	}
}

func TestSpinAlwaysAdvancesAtLeastSixRevolutions(t *testing.T) {
	priors := []float64{0, 45, 202.5, 359.999, 360, 1234.56, 2617.3, 99999.9}
	for _, prior := range priors {
		for attempt := 1; attempt <= 2; attempt++ {
			res := Spin(attempt, prior)
			if res.FinalRotationDegrees < prior+BaseSpinDegrees {
				t.Errorf("attempt %d from %.4f: final %.4f < prior+%v", attempt, prior, res.FinalRotationDegrees, BaseSpinDegrees)
			}
			if res.FinalRotationDegrees > prior+BaseSpinDegrees+360 {
				t.Errorf("attempt %d from %.4f: final %.4f overshoots a full extra turn", attempt, prior, res.FinalRotationDegrees)
			}
		}
	}
}

func TestLandingExactnessAcrossAccumulatedSpins(t *testing.T) {
	// Chain spins so each prior rotation is the previous final rotation,
	// the way repeated plays accumulate on a real wheel.
	rotation := 0.0
	for i := 0; i < 20; i++ {
		attempt := i%2 + 1
		res := Spin(attempt, rotation)

		want := TargetIndex(attempt)
		if res.LandingSegmentIndex != want {
			t.Fatalf("spin %d: landed segment %d, want %d", i, res.LandingSegmentIndex, want)
		}
		if got := LandingIndex(res.FinalRotationDegrees); got != want {
			t.Fatalf("spin %d: rotation %.4f resolves to segment %d, want %d", i, res.FinalRotationDegrees, got, want)
		}

		// The landing must be exact geometry, not an approximation.
		orientation := math.Mod(res.FinalRotationDegrees, 360)
		landing := math.Mod(pointerOffset-float64(want)*SegmentAngle+720, 360)
		if diff := math.Abs(orientation - landing); diff > 1e-9 {
			t.Fatalf("spin %d: orientation %.12f != landing angle %.12f", i, orientation, landing)
		}

		rotation = res.FinalRotationDegrees
	}
}

func TestLandingIndexRoundTripsEverySegment(t *testing.T) {
	for idx := 0; idx < SegmentCount; idx++ {
		angle := pointerOffset - float64(idx)*SegmentAngle
		if got := LandingIndex(angle); got != idx {
			t.Errorf("LandingIndex(%.1f) = %d, want %d", angle, got, idx)
		}
		if got := LandingIndex(angle + 5*360); got != idx {
			t.Errorf("LandingIndex(%.1f+5 turns) = %d, want %d", angle, got, idx)
		}
	}
}

func TestTargetIndexByAttempt(t *testing.T) {
	cases := []struct {
		attempt int
		want    int
	}{
		{1, FirstSpinIndex},
		{2, JackpotIndex},
		{3, JackpotIndex},
	}
	for _, tc := range cases {
		if got := TargetIndex(tc.attempt); got != tc.want {
			t.Errorf("TargetIndex(%d) = %d, want %d", tc.attempt, got, tc.want)
		}
	}
}
