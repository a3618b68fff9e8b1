package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 30.0, Mean([]float64{10, 20, 30, 40, 50}))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 30.0, Median([]float64{50, 10, 30, 20, 40}))
	assert.Equal(t, 25.0, Median([]float64{10, 20, 30, 40}))
}

func TestPopulationStandardDeviation(t *testing.T) {
	// ddof=0: variance of {2,4,4,4,5,5,7,9} is exactly 4.
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 4.0, PopulationVariance(values))
	assert.Equal(t, 2.0, PopulationStandardDeviation(values))

	assert.Equal(t, 0.0, PopulationStandardDeviation([]float64{3, 3, 3}))
}

func TestMinMax(t *testing.T) {
	values := []float64{5, -1, 3}
	assert.Equal(t, -1.0, Min(values))
	assert.Equal(t, 5.0, Max(values))
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-5, 0, 100))
	assert.Equal(t, 100.0, Clip(999, 0, 100))
	assert.Equal(t, 42.0, Clip(42, 0, 100))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 98.3, Round2(98.30000000001))
	assert.Equal(t, 33.33, Round2(100.0/3))
}

func TestTrailingMean(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	result := TrailingMean(values, 7)

	// Window expands until 7 values are available.
	assert.Equal(t, 1.0, result[0])
	assert.Equal(t, 1.5, result[1])
	assert.Equal(t, 4.0, result[6])
	// After 7 values, the window slides: mean of 2..8.
	assert.Equal(t, 5.0, result[7])

	assert.Nil(t, TrailingMean(nil, 7))
	assert.Nil(t, TrailingMean(values, 0))
}
