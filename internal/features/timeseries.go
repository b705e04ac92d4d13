package features

import (
	"fmt"

	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
	"github.com/gaitworks/gaitkit/internal/stats"
)

func init() {
	Register("time_series", func(cfg *mapping.Config) Calculator { return &TimeSeriesFeatures{} })
}

var timeSeriesNames = []string{"min", "max", "mean", "median", "std"}

// TimeSeriesFeatures computes descriptive statistics over the time axis of
// the analysis category, one row per channel and axis. Missing samples are
// skipped.
type TimeSeriesFeatures struct{}

// Name returns the family name.
func (f *TimeSeriesFeatures) Name() string { return "time_series" }

// FeatureNames returns the five descriptive statistics in output order.
func (f *TimeSeriesFeatures) FeatureNames() []string {
	return append([]string(nil), timeSeriesNames...)
}

// CalculateCycle computes min/max/mean/median/std for every channel and axis
// of the cycle's analysis data.
func (f *TimeSeriesFeatures) CalculateCycle(cycle *model.Trial) ([]Row, error) {
	arr, ok := cycle.Data(model.CategoryAnalysis)
	if !ok {
		return nil, fmt.Errorf("cycle has no %s data", model.CategoryAnalysis)
	}
	rows := make([]Row, 0, len(arr.Channels)*len(arr.Axes))
	for ci, channel := range arr.Channels {
		for ai, axis := range arr.Axes {
			series := arr.Values[ci][ai]
			rows = append(rows, Row{
				Channel: channel,
				Axis:    axis,
				Values: []float64{
					stats.Min(series),
					stats.Max(series),
					stats.Mean(series),
					stats.Median(series),
					stats.Std(series),
				},
			})
		}
	}
	return rows, nil
}
