package display

import "math"

// LinearMap clamps x into [inMin, inMax], scales it onto [outMin, outMax] and
// clamps the result again to absorb floating point overshoot.
func LinearMap(x, inMin, inMax, outMin, outMax float64) (float64, error) {
	if inMax <= inMin {
		return 0, newValidationError("", "invalid input range [%v, %v]", inMin, inMax)
	}
	x = clamp(x, inMin, inMax)
	// Multiply before dividing so whole-number inputs land exactly.
	mapped := (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
	return clamp(mapped, math.Min(outMin, outMax), math.Max(outMin, outMax)), nil
}

// PatternFor returns the pattern for level over n outputs: the first
// max(1, floor(level/100*n)) flags are 1, the rest 0. A level of exactly 0
// lights nothing.
func PatternFor(level float64, n int) ([]int, error) {
	pattern := make([]int, n)
	if n == 0 || level == MinBattery {
		return pattern, nil
	}
	mapped, err := LinearMap(level, MinBattery, MaxBattery, 0, float64(n))
	if err != nil {
		return nil, err
	}
	enabled := int(math.Floor(mapped))
	if enabled < 1 {
		enabled = 1
	}
	if enabled > n {
		enabled = n
	}
	for i := 0; i < enabled; i++ {
		pattern[i] = 1
	}
	return pattern, nil
}

// clampLevel pins any input, NaN and infinities included, into the battery range.
func clampLevel(level float64) float64 {
	if math.IsNaN(level) {
		return MinBattery
	}
	return clamp(level, MinBattery, MaxBattery)
}

func clamp(x, low, high float64) float64 {
	return math.Max(low, math.Min(high, x))
}
