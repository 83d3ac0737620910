package stats

import (
	"math"
	"math/rand"
	"testing"

	mstats "github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningVarianceEmpty(t *testing.T) {
	var v RunningVariance

	assert.Equal(t, 0, v.Count())
	assert.True(t, math.IsNaN(v.Mean()))
	assert.True(t, math.IsNaN(v.StandardDeviation()))
	assert.True(t, math.IsNaN(v.Min()))
}

func TestRunningVarianceSingleSample(t *testing.T) {
	var v RunningVariance
	v.Observe(42)

	assert.Equal(t, 1, v.Count())
	assert.Equal(t, 42.0, v.Mean())
	assert.True(t, math.IsNaN(v.Variance()), "sample variance is undefined for one sample")
}

func TestRunningVarianceKnownSeries(t *testing.T) {
	var v RunningVariance
	v.Observe(2, 4, 4, 4, 5, 5, 7, 9)

	assert.Equal(t, 8, v.Count())
	assert.Equal(t, 5.0, v.Mean())
	assert.InDelta(t, 32.0/7.0, v.Variance(), 1e-12)
	assert.Equal(t, 2.0, v.Min())
	assert.Equal(t, 9.0, v.Max())
}

func TestRunningVarianceMatchesBatchStatistics(t *testing.T) {
	rng := rand.New(rand.NewSource(104729))

	samples := make([]float64, 500)
	for i := range samples {
		// Large offset exercises the numerical stability of the online update.
		samples[i] = 1e6 + rng.NormFloat64()*60
	}

	var v RunningVariance
	v.Observe(samples...)

	mean, err := mstats.Mean(samples)
	require.NoError(t, err)
	sd, err := mstats.StandardDeviationSample(samples)
	require.NoError(t, err)

	assert.InDelta(t, mean, v.Mean(), 1e-6)
	assert.InDelta(t, sd, v.StandardDeviation(), 1e-6)
}
