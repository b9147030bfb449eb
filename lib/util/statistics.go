package util

import "math"

// ----------------------------------------------------------------------------
// Summary statistics
// ----------------------------------------------------------------------------

// Stats holds population statistics over a set of samples.
type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes Stats for the given values. An empty input yields the zero value.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	// an all-zero set is perfectly balanced
	ratio := 1.0
	if hi > 0 {
		ratio = lo / hi
	}

	return Stats{
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          lo,
		Max:          hi,
		Mean:         mean,
		MinMaxRatio:  ratio,
	}
}

// DistributionStats describes how evenly elements are spread over partitions.
type DistributionStats struct {
	Stats
	// DistributionQuality is 1.0 for a perfectly even spread and tends to 0
	// as the coefficient of variation grows or the min/max ratio shrinks.
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats computes balance metrics from per-partition sizes.
func NewDistributionStats[N int | int64 | float64](sizes []N) DistributionStats {
	if len(sizes) == 0 {
		return DistributionStats{}
	}

	values := make([]float64, len(sizes))
	for i, s := range sizes {
		values[i] = float64(s)
	}
	stats := NewStats(values)

	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	return DistributionStats{
		Stats:               stats,
		DistributionQuality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}
