package metrics

import "fmt"

// AggregationMethod selects how per-frame values collapse to a track value.
type AggregationMethod string

const (
	AggregateMedian AggregationMethod = "median"
	AggregateMean   AggregationMethod = "mean"
	AggregateStd    AggregationMethod = "std"
	AggregateMin    AggregationMethod = "min"
	AggregateMax    AggregationMethod = "max"
	AggregateP95    AggregationMethod = "percentile_95"
)

// Aggregate collapses frame-level values to a single track-level feature.
// Empty input yields the neutral 0.5.
func Aggregate(frameValues []float64, method AggregationMethod) (float64, error) {
	if len(frameValues) == 0 {
		return 0.5, nil
	}

	switch method {
	case AggregateMedian:
		return Median(frameValues), nil
	case AggregateMean:
		return Mean(frameValues), nil
	case AggregateStd:
		return Std(frameValues), nil
	case AggregateMin:
		min := frameValues[0]
		for _, v := range frameValues[1:] {
			if v < min {
				min = v
			}
		}

		return min, nil
	case AggregateMax:
		max := frameValues[0]
		for _, v := range frameValues[1:] {
			if v > max {
				max = v
			}
		}

		return max, nil
	case AggregateP95:
		return Percentile(frameValues, 95), nil
	}

	return 0, fmt.Errorf("unknown aggregation method %q", method)
}
