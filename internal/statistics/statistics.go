// Package statistics accumulates running summaries of simulation results.
package statistics

import (
	"math"
	"sort"
)

// Statistics tracks a stream of observations.
type Statistics struct {
	N      int
	Sum    float64
	SumSq  float64   // Sum of squares for variance calculation
	Values []float64 // Kept for median/percentile calculation
}

// Add incorporates one observation.
func (s *Statistics) Add(v float64) {
	s.N++
	s.Sum += v
	s.SumSq += v * v
	s.Values = append(s.Values, v)
}

// Mean returns the arithmetic mean of all observations
func (s *Statistics) Mean() float64 {
	if s.N == 0 {
		return 0
	}
	return s.Sum / float64(s.N)
}

// Variance returns the population variance of all observations
func (s *Statistics) Variance() float64 {
	if s.N == 0 {
		return 0
	}
	mean := s.Mean()
	v := s.SumSq/float64(s.N) - mean*mean
	if v < 0 {
		return 0 // rounding
	}
	return v
}

// StdDev returns the population standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.N == 0 {
		return 0
	}
	return math.Sqrt(s.Variance() / float64(s.N))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median observation
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
