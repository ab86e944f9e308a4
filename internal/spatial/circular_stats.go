package spatial

import (
	"math"
)

// CircularMean calculates the mean of circular data (angles in radians)
// weights: optional weights for each angle (can be nil for equal weights)
// Returns mean angle in radians
func CircularMean(angles []float64, weights []float64) float64 {
	if len(angles) == 0 {
		return 0
	}

	sumSin, sumCos, _ := resultant(angles, weights)
	return math.Atan2(sumSin, sumCos)
}

// CircularMeanDegrees calculates the mean of circular data in degrees,
// normalized to [0, 360). Wind directions of 350 and 10 average to 0, not 180.
func CircularMeanDegrees(angles []float64, weights []float64) float64 {
	meanDeg := CircularMean(toRadians(angles), weights) * 180 / math.Pi
	return math.Mod(meanDeg+360, 360)
}

// MeanResultantLength calculates the mean resultant length (R)
// R ranges from 0 (uniform distribution) to 1 (all angles identical)
func MeanResultantLength(angles []float64, weights []float64) float64 {
	if len(angles) == 0 {
		return 0
	}

	sumSin, sumCos, sumWeights := resultant(angles, weights)
	if sumWeights == 0 {
		return 0
	}

	return math.Sqrt(sumSin*sumSin+sumCos*sumCos) / sumWeights
}

// MeanResultantLengthDegrees is MeanResultantLength for angles in degrees
func MeanResultantLengthDegrees(angles []float64, weights []float64) float64 {
	return MeanResultantLength(toRadians(angles), weights)
}

// AngularDifferenceDegrees calculates the smallest difference between two angles (degrees)
// Result is in range [-180, 180]
func AngularDifferenceDegrees(angle1, angle2 float64) float64 {
	diff := math.Mod(angle2-angle1, 360)
	if diff > 180 {
		diff -= 360
	}
	if diff < -180 {
		diff += 360
	}
	return diff
}

func resultant(angles []float64, weights []float64) (sumSin, sumCos, sumWeights float64) {
	for i, angle := range angles {
		w := 1.0
		if weights != nil && i < len(weights) {
			w = weights[i]
		}
		sumSin += w * math.Sin(angle)
		sumCos += w * math.Cos(angle)
		sumWeights += w
	}
	return sumSin, sumCos, sumWeights
}

func toRadians(degrees []float64) []float64 {
	radians := make([]float64, len(degrees))
	for i, angle := range degrees {
		radians[i] = angle * math.Pi / 180
	}
	return radians
}
