// Package stats provides a numerically stable running variance accumulator.
package stats

import "math"

// RunningVariance holds running statistics using Welford's online algorithm.
// Mean and variance are updated in O(1) per sample without keeping samples.
//
// See https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Welford's_online_algorithm
type RunningVariance struct {
	count int
	mean  float64
	m2    float64
	min   float64
	max   float64
}

// Observe adds samples to the accumulator.
func (v *RunningVariance) Observe(samples ...float64) {
	for _, x := range samples {
		v.count++
		if v.count == 1 {
			v.min, v.max = x, x
		} else {
			v.min = math.Min(v.min, x)
			v.max = math.Max(v.max, x)
		}

		delta := x - v.mean
		v.mean += delta / float64(v.count)
		v.m2 += delta * (x - v.mean)
	}
}

// Count returns the number of samples observed.
func (v *RunningVariance) Count() int {
	return v.count
}

// Mean returns the arithmetic mean, or NaN if nothing was observed.
func (v *RunningVariance) Mean() float64 {
	if v.count == 0 {
		return math.NaN()
	}
	return v.mean
}

// Variance returns the sample variance, or NaN with fewer than two samples.
func (v *RunningVariance) Variance() float64 {
	if v.count < 2 {
		return math.NaN()
	}
	return v.m2 / float64(v.count-1)
}

// StandardDeviation returns the sample standard deviation.
func (v *RunningVariance) StandardDeviation() float64 {
	return math.Sqrt(v.Variance())
}

// Min returns the smallest sample, or NaN if nothing was observed.
func (v *RunningVariance) Min() float64 {
	if v.count == 0 {
		return math.NaN()
	}
	return v.min
}

// Max returns the largest sample, or NaN if nothing was observed.
func (v *RunningVariance) Max() float64 {
	if v.count == 0 {
		return math.NaN()
	}
	return v.max
}
