package mapping

import (
	"fmt"

	"github.com/gaitworks/gaitkit/internal/io"
	"github.com/gaitworks/gaitkit/internal/model"
)

// BuildCategory assembles one category array from a raw-format reader.
func BuildCategory(category model.DataCategory, r io.CategoryReader) (*model.CategoryArray, error) {
	labels := r.ChannelLabels()
	units := r.ChannelUnits()
	times := r.SampleTimes()

	var axes []string
	values := make([][][]float64, 0, r.ChannelCount())
	for i := 0; i < r.ChannelCount(); i++ {
		data, err := r.ChannelData(i)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		if axes == nil {
			axes = axisLabels(len(data))
		} else if len(data) != len(axes) {
			return nil, fmt.Errorf("category %s channel %s: %d axes, expected %d", category, labels[i], len(data), len(axes))
		}
		values = append(values, data)
	}

	return model.NewCategoryArray(category, labels, axes, units, times, values, model.NewMeta(r.FrameRate()))
}

// BuildEvents assembles the event table from an event reader. The table is
// sorted ascending by time.
func BuildEvents(r io.EventReader) (*model.EventTable, error) {
	labels, times, contexts, icons := r.Labels(), r.Times(), r.Contexts(), r.IconIDs()
	if len(labels) != len(times) || len(contexts) != len(times) || len(icons) != len(times) {
		return nil, fmt.Errorf("event reader returned misaligned columns: %d labels, %d times, %d contexts, %d icons",
			len(labels), len(times), len(contexts), len(icons))
	}
	events := make([]model.Event, len(times))
	for i := range times {
		events[i] = model.Event{
			Time:    times[i],
			Label:   labels[i],
			Context: contexts[i],
			IconID:  icons[i],
		}
	}
	return model.NewEventTable(events), nil
}

// BuildTrial assembles a complete trial: markers, analogs, the derived
// analysis category selected by the mapping configuration, and the event
// table.
func BuildTrial(markers, analogs io.CategoryReader, events io.EventReader, cfg *Config) (*model.Trial, error) {
	trial := model.NewTrial()

	markerArr, err := BuildCategory(model.CategoryMarkers, markers)
	if err != nil {
		return nil, err
	}
	if err := trial.AddData(model.CategoryMarkers, markerArr); err != nil {
		return nil, err
	}

	analogArr, err := BuildCategory(model.CategoryAnalogs, analogs)
	if err != nil {
		return nil, err
	}
	if err := trial.AddData(model.CategoryAnalogs, analogArr); err != nil {
		return nil, err
	}

	analysis, err := buildAnalysis(cfg, markerArr, analogArr)
	if err != nil {
		return nil, err
	}
	if analysis != nil {
		if err := trial.AddData(model.CategoryAnalysis, analysis); err != nil {
			return nil, err
		}
	}

	table, err := BuildEvents(events)
	if err != nil {
		return nil, err
	}
	trial.SetEvents(table)
	return trial, nil
}

// buildAnalysis selects the configured channels into the analysis category.
// Marker-derived and analog-derived channels have different axis layouts, so
// a configuration naming both is rejected; nothing configured means no
// analysis category.
func buildAnalysis(cfg *Config, markers, analogs *model.CategoryArray) (*model.CategoryArray, error) {
	hasMarkers := len(cfg.Analysis.Markers) > 0
	hasAnalogs := len(cfg.Analysis.Analogs) > 0
	switch {
	case hasMarkers && hasAnalogs:
		return nil, fmt.Errorf("mapping config selects both markers and analogs for analysis; axis layouts cannot be mixed")
	case hasMarkers:
		return subsetCategory(markers, cfg.Analysis.Markers)
	case hasAnalogs:
		return subsetCategory(analogs, cfg.Analysis.Analogs)
	}
	return nil, nil
}

// subsetCategory copies the named channels of src into an analysis array.
func subsetCategory(src *model.CategoryArray, channels []string) (*model.CategoryArray, error) {
	units := make([]string, len(channels))
	values := make([][][]float64, len(channels))
	for i, name := range channels {
		ci := src.ChannelIndex(name)
		if ci < 0 {
			return nil, fmt.Errorf("analysis channel %q not present in %s data", name, src.Category)
		}
		units[i] = src.Units[ci]
		byAxis := make([][]float64, len(src.Axes))
		for j := range src.Axes {
			byAxis[j] = append([]float64(nil), src.Values[ci][j]...)
		}
		values[i] = byAxis
	}
	return model.NewCategoryArray(model.CategoryAnalysis, channels, src.Axes, units, src.Times, values, src.Meta)
}

// axisLabels names the axes of a channel by its row count: 3 rows are the
// spatial x/y/z axes, 1 row is a scalar signal.
func axisLabels(n int) []string {
	switch n {
	case 3:
		return []string{"x", "y", "z"}
	case 1:
		return []string{"value"}
	}
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("a%d", i)
	}
	return labels
}
