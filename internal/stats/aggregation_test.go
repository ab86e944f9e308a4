package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{72, 68, 75})

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 68.0, s.Min)
	assert.Equal(t, 75.0, s.Max)
	assert.InDelta(t, 71.6667, s.Mean, 1e-4)
	assert.Equal(t, 72.0, s.Median)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestMedian_Even(t *testing.T) {
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
}

func TestClampLerp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5, 0, 110))
	assert.Equal(t, 110.0, Clamp(140, 0, 110))
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
}
