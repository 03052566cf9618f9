package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSafeDivide(t *testing.T) {
	assert.Equal(t, 2.0, SafeDivide(4, 2, 0))
	assert.Equal(t, 0.0, SafeDivide(4, 0, 0))
	assert.Equal(t, 7.5, SafeDivide(4, 1e-12, 7.5))
	assert.Equal(t, -2.0, SafeDivide(4, -2, 0))
}

func TestSafeLog(t *testing.T) {
	assert.InDelta(t, 0.0, SafeLog(1, math.Inf(-1)), 1e-12)
	assert.True(t, math.IsInf(SafeLog(0, math.Inf(-1)), -1))
	assert.True(t, math.IsInf(SafeLog(-5, math.Inf(-1)), -1))
}

func TestSafePower(t *testing.T) {
	assert.InDelta(t, 3.0, SafePower(9, 0.5, 0), 1e-12)
	assert.Equal(t, 0.0, SafePower(0, 0.5, 0))
	assert.Equal(t, 0.0, SafePower(-4, 0.5, 0))
}

func TestStabilityFromCV(t *testing.T) {
	// Zero variation is perfectly stable.
	assert.Equal(t, 1.0, StabilityFromCV(0, 5, 1))

	// Degenerate mean yields the neutral default.
	assert.Equal(t, 0.5, StabilityFromCV(1, 0, 1))

	// Higher scale is more sensitive.
	loose := StabilityFromCV(0.5, 5, 1)
	tight := StabilityFromCV(0.5, 5, 10)
	assert.Less(t, tight, loose)
}

func TestNormalizeToRange(t *testing.T) {
	assert.Equal(t, 0.5, NormalizeToRange(4, 8, true))
	assert.Equal(t, 1.0, NormalizeToRange(16, 8, true))
	assert.Equal(t, 2.0, NormalizeToRange(16, 8, false))
	assert.Equal(t, 0.5, NormalizeToRange(4, 0, true))
}

func TestScaleToRange(t *testing.T) {
	assert.InDelta(t, 0.5, ScaleToRange(120, 40, 200, 0, 1), 1e-12)
	assert.Equal(t, 1.0, ScaleToRange(500, 40, 200, 0, 1))
	assert.Equal(t, 0.0, ScaleToRange(-10, 40, 200, 0, 1))

	// An empty source interval yields the target midpoint.
	assert.Equal(t, 0.5, ScaleToRange(1, 5, 5, 0, 1))
}

func TestPercentileNormalize(t *testing.T) {
	values := []float64{1, 2, 3, 4, 100}
	out := PercentileNormalize(values, 95, true)

	require.Len(t, out, len(values))

	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	// Degenerate reference yields the neutral vector.
	zeros := PercentileNormalize([]float64{0, 0, 0}, 95, true)
	for _, v := range zeros {
		assert.Equal(t, 0.5, v)
	}
}

func TestRobustScaleConstantInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := rapid.Float64Range(-1000, 1000).Draw(t, "c")
		n := rapid.IntRange(1, 50).Draw(t, "n")

		values := make([]float64, n)
		for i := range values {
			values[i] = c
		}

		for name, scaled := range map[string][]float64{
			"robust":     RobustScale(values),
			"winsorized": RobustScaleWinsorized(values, 5, 95),
			"mad":        MADScale(values, MADScaleFactor),
			"zscore":     ZScore(values),
		} {
			for _, v := range scaled {
				assert.Zerof(t, v, "%s scaling of constant input must be zero", name)
			}
		}
	})
}

func TestZScoreMoments(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(3, 100).Draw(t, "n")

		values := make([]float64, n)
		for i := range values {
			values[i] = rapid.Float64Range(-1e6, 1e6).Draw(t, "v")
		}

		scaled := ZScore(values)

		if Std(values) < 1e-9 {
			return // constant input covered elsewhere
		}

		assert.InDelta(t, 0.0, Mean(scaled), 1e-10)
		assert.InDelta(t, 1.0, Std(scaled), 1e-10)
	})
}

func TestScalingIsRankPreserving(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 40).Draw(t, "n")

		values := make([]float64, n)
		for i := range values {
			values[i] = rapid.Float64Range(-100, 100).Draw(t, "v")
		}

		scaled := RobustScale(values)

		for i := range len(values) - 1 {
			for j := i + 1; j < len(values); j++ {
				if values[i] < values[j] {
					assert.LessOrEqual(t, scaled[i], scaled[j])
				}
			}
		}
	})
}

func TestMADScaleToleratesHeavyTails(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 100, 1000}
	scaled := MADScale(values, MADScaleFactor)

	// The extreme outliers do not inflate the scale: the bulk of the data
	// stays moderate under MAD scaling.
	for _, v := range scaled[:5] {
		assert.Less(t, math.Abs(v), 3.0)
	}
}

func TestQuantileNormalizeUniform(t *testing.T) {
	values := []float64{5, 1, 3}
	out := QuantileNormalize(values, nil)

	assert.Equal(t, 1.0, out[0])
	assert.Equal(t, 0.0, out[1])
	assert.Equal(t, 0.5, out[2])
}

func TestQuantileNormalizeWithReference(t *testing.T) {
	values := []float64{10, 20, 30}
	reference := []float64{0, 1, 2}

	out := QuantileNormalize(values, reference)

	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 1.0, out[1])
	assert.Equal(t, 2.0, out[2])
}

func TestOutlierMaskConstantInput(t *testing.T) {
	values := []float64{3, 3, 3, 3, 3}

	for _, method := range []OutlierMethod{OutlierIQR, OutlierMAD, OutlierZScore} {
		mask, err := OutlierMask(values, method, DefaultOutlierThreshold(method))
		require.NoError(t, err)

		for _, flagged := range mask {
			assert.False(t, flagged)
		}
	}
}

func TestOutlierMaskSingleExtreme(t *testing.T) {
	values := []float64{1, 2, 1.5, 2.5, 1.8, 2.2, 1.9, 2.1, 1000}

	for _, method := range []OutlierMethod{OutlierIQR, OutlierMAD, OutlierZScore} {
		indices, err := OutlierIndices(values, method, DefaultOutlierThreshold(method))
		require.NoError(t, err)
		assert.Containsf(t, indices, 8, "method %s must flag the extreme value", method)
	}
}

func TestOutlierMaskInvalidMethod(t *testing.T) {
	_, err := OutlierMask([]float64{1, 2, 3}, "nope", 1.5)
	assert.Error(t, err)
}

func TestAggregate(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	median, err := Aggregate(values, AggregateMedian)
	require.NoError(t, err)
	assert.Equal(t, 3.0, median)

	max, err := Aggregate(values, AggregateMax)
	require.NoError(t, err)
	assert.Equal(t, 5.0, max)

	min, err := Aggregate(values, AggregateMin)
	require.NoError(t, err)
	assert.Equal(t, 1.0, min)

	_, err = Aggregate(values, "bogus")
	assert.Error(t, err)

	neutral, err := Aggregate(nil, AggregateMean)
	require.NoError(t, err)
	assert.Equal(t, 0.5, neutral)
}

func TestPercentileInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.Equal(t, 1.0, Percentile(values, 0))
	assert.Equal(t, 4.0, Percentile(values, 100))
	assert.InDelta(t, 2.5, Percentile(values, 50), 1e-12)
}
