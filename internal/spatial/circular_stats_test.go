package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircularMeanDegrees_Wraparound(t *testing.T) {
	mean := CircularMeanDegrees([]float64{350, 10}, nil)

	assert.InDelta(t, 0, AngularDifferenceDegrees(0, mean), 1e-9)
	assert.GreaterOrEqual(t, mean, 0.0)
	assert.Less(t, mean, 360.0)
}

func TestCircularMeanDegrees(t *testing.T) {
	testCases := []struct {
		name   string
		angles []float64
		want   float64
	}{
		{name: "single", angles: []float64{45}, want: 45},
		{name: "east quadrant", angles: []float64{80, 100}, want: 90},
		{name: "west wraps", angles: []float64{260, 280}, want: 270},
		{name: "three around north", angles: []float64{340, 0, 20}, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CircularMeanDegrees(tc.angles, nil)
			assert.InDelta(t, 0, AngularDifferenceDegrees(tc.want, got), 1e-9)
		})
	}
}

func TestCircularMeanDegrees_Weighted(t *testing.T) {
	got := CircularMeanDegrees([]float64{0, 90}, []float64{1, 0})
	assert.InDelta(t, 0, AngularDifferenceDegrees(0, got), 1e-9)
}

func TestMeanResultantLengthDegrees(t *testing.T) {
	assert.InDelta(t, 1.0, MeanResultantLengthDegrees([]float64{30, 30, 30}, nil), 1e-12)
	assert.InDelta(t, 0.0, MeanResultantLengthDegrees([]float64{0, 180}, nil), 1e-12)
	assert.Equal(t, 0.0, MeanResultantLengthDegrees(nil, nil))
}

func TestAngularDifferenceDegrees(t *testing.T) {
	assert.InDelta(t, 20.0, AngularDifferenceDegrees(350, 10), 1e-12)
	assert.InDelta(t, -20.0, AngularDifferenceDegrees(10, 350), 1e-12)
	assert.InDelta(t, 0.0, AngularDifferenceDegrees(0, 360), 1e-12)
}
