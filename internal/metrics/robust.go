package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile computes the p-th percentile (0-100) by linear interpolation,
// matching the convention used throughout the analyzers.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))

	if lo < 0 {
		lo = 0
	}

	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}

	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	return stat.Mean(values, nil)
}

// Std returns the population standard deviation, 0 for fewer than 2 values.
func Std(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	mean := stat.Mean(values, nil)

	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)))
}

// Median returns the 50th percentile.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// RobustScale centers on the median and scales by the interquartile range:
// (x - Q2) / (Q3 - Q1). Constant input yields all zeros.
func RobustScale(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	q1 := Percentile(values, 25)
	q2 := Percentile(values, 50)
	q3 := Percentile(values, 75)
	iqr := q3 - q1

	if math.Abs(iqr) < epsilon {
		return out
	}

	for i, v := range values {
		out[i] = (v - q2) / iqr
	}

	return out
}

// RobustScaleWinsorized clips values beyond the given percentiles to the
// percentile values, then applies RobustScale.
func RobustScaleWinsorized(values []float64, lowerPct, upperPct float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	lower := Percentile(values, lowerPct)
	upper := Percentile(values, upperPct)

	winsorized := make([]float64, len(values))
	for i, v := range values {
		winsorized[i] = Clip(v, lower, upper)
	}

	return RobustScale(winsorized)
}

// MADScaleFactor assumes a normal distribution.
const MADScaleFactor = 1.4826

// MADScale scales by the median absolute deviation:
// (x - median) / (MAD * scaleFactor). Constant input yields all zeros.
func MADScale(values []float64, scaleFactor float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	median := Median(values)

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - median)
	}

	mad := Median(deviations)
	if math.Abs(mad) < epsilon {
		return out
	}

	for i, v := range values {
		out[i] = (v - median) / (mad * scaleFactor)
	}

	return out
}

// ZScore normalizes to mean 0, std 1. Constant input yields all zeros.
func ZScore(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	mean := Mean(values)
	std := Std(values)

	if math.Abs(std) < epsilon {
		return out
	}

	for i, v := range values {
		out[i] = (v - mean) / std
	}

	return out
}

// QuantileNormalize maps the quantiles of values onto the quantiles of
// reference. With a nil reference the result is the uniform [0,1]
// distribution in rank order.
func QuantileNormalize(values, reference []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	indices := argsort(values)

	if reference == nil {
		if len(values) == 1 {
			out[0] = 0

			return out
		}

		for rank, idx := range indices {
			out[idx] = float64(rank) / float64(len(values)-1)
		}

		return out
	}

	sortedRef := make([]float64, len(reference))
	copy(sortedRef, reference)
	sort.Float64s(sortedRef)

	for rank, idx := range indices {
		// Interpolate the reference distribution at this rank position.
		var pos float64
		if len(values) > 1 {
			pos = float64(rank) / float64(len(values)-1) * float64(len(sortedRef)-1)
		}

		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))

		if hi >= len(sortedRef) {
			hi = len(sortedRef) - 1
		}

		if lo == hi {
			out[idx] = sortedRef[lo]
		} else {
			frac := pos - float64(lo)
			out[idx] = sortedRef[lo]*(1-frac) + sortedRef[hi]*frac
		}
	}

	return out
}

func argsort(values []float64) []int {
	indices := make([]int, len(values))
	for i := range indices {
		indices[i] = i
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return values[indices[a]] < values[indices[b]]
	})

	return indices
}
