package traffic

// CongestionLevel is the categorical classification of a density score.
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "low"
	CongestionMedium CongestionLevel = "medium"
	CongestionHigh   CongestionLevel = "high"
)

// Density level boundaries. The low boundary is half-open, the high
// boundary is inclusive: density >= 0.7 classifies as high.
const (
	densityMediumMin = 0.3
	densityHighMin   = 0.7
)

// Density computes a normalized congestion score in [0, 1] from an observed
// speed and the location's free-flow baseline. It fails closed: a missing
// input or a zero free-flow speed yields 0.0 (no congestion signal), not an
// error.
func Density(currentSpeed, freeFlowSpeed *float64) float64 {
	if currentSpeed == nil || freeFlowSpeed == nil || *freeFlowSpeed == 0 {
		return 0.0
	}

	density := (*freeFlowSpeed - *currentSpeed) / *freeFlowSpeed
	if density < 0.0 {
		return 0.0
	}
	if density > 1.0 {
		return 1.0
	}
	return density
}

// LevelFor classifies the congestion level for a pair of speeds.
func LevelFor(currentSpeed, freeFlowSpeed *float64) CongestionLevel {
	return LevelForDensity(Density(currentSpeed, freeFlowSpeed))
}

// LevelForDensity classifies an already-computed density score.
func LevelForDensity(density float64) CongestionLevel {
	switch {
	case density < densityMediumMin:
		return CongestionLow
	case density < densityHighMin:
		return CongestionMedium
	default:
		return CongestionHigh
	}
}
