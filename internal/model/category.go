package model

import (
	"fmt"
	"math"
)

// DataCategory identifies a family of channels sharing a sampling rate and
// time axis. The set is closed; additional channel families are a concern of
// the mapping configuration, not of the core.
type DataCategory string

const (
	CategoryMarkers  DataCategory = "markers"
	CategoryAnalogs  DataCategory = "analogs"
	CategoryAnalysis DataCategory = "analysis"
)

// AllCategories returns the known categories in their canonical order.
func AllCategories() []DataCategory {
	return []DataCategory{CategoryMarkers, CategoryAnalogs, CategoryAnalysis}
}

// Valid reports whether c is one of the known categories.
func (c DataCategory) Valid() bool {
	switch c {
	case CategoryMarkers, CategoryAnalogs, CategoryAnalysis:
		return true
	}
	return false
}

// Meta is the metadata record attached to a CategoryArray at construction
// time. It is never mutated afterwards; segmentation builds a new stamped
// array instead of annotating a shared one.
type Meta struct {
	Rate       float64 // frame rate in Hz
	StartFrame int
	EndFrame   int
	CycleID    int // -1 when the array is not part of a cycle
	Context    string
}

// NewMeta returns metadata for an unsegmented array.
func NewMeta(rate float64) Meta {
	return Meta{Rate: rate, CycleID: -1}
}

// CategoryArray is a labeled 3-dimensional numeric array with dimensions
// channel, axis and time. Values are indexed [channel][axis][time]. Missing
// samples are NaN.
type CategoryArray struct {
	Category DataCategory
	Channels []string
	Axes     []string
	Units    []string // one unit per channel
	Times    []float64
	Values   [][][]float64
	Meta     Meta
}

// NewCategoryArray builds a CategoryArray and validates its shape.
func NewCategoryArray(category DataCategory, channels, axes, units []string, times []float64, values [][][]float64, meta Meta) (*CategoryArray, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown data category %q", category)
	}
	if len(units) != len(channels) {
		return nil, fmt.Errorf("category %s: %d units for %d channels", category, len(units), len(channels))
	}
	if len(values) != len(channels) {
		return nil, fmt.Errorf("category %s: %d value rows for %d channels", category, len(values), len(channels))
	}
	for i, byAxis := range values {
		if len(byAxis) != len(axes) {
			return nil, fmt.Errorf("category %s channel %s: %d axes, expected %d", category, channels[i], len(byAxis), len(axes))
		}
		for j, series := range byAxis {
			if len(series) != len(times) {
				return nil, fmt.Errorf("category %s channel %s axis %s: %d samples, expected %d",
					category, channels[i], axes[j], len(series), len(times))
			}
		}
	}
	return &CategoryArray{
		Category: category,
		Channels: append([]string(nil), channels...),
		Axes:     append([]string(nil), axes...),
		Units:    append([]string(nil), units...),
		Times:    append([]float64(nil), times...),
		Values:   values,
		Meta:     meta,
	}, nil
}

// ChannelIndex returns the index of the named channel, or -1.
func (a *CategoryArray) ChannelIndex(name string) int {
	for i, c := range a.Channels {
		if c == name {
			return i
		}
	}
	return -1
}

// AxisIndex returns the index of the named axis, or -1.
func (a *CategoryArray) AxisIndex(name string) int {
	for i, ax := range a.Axes {
		if ax == name {
			return i
		}
	}
	return -1
}

// NearestTimeIndex returns the index of the sample closest to t.
func (a *CategoryArray) NearestTimeIndex(t float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, ts := range a.Times {
		if d := math.Abs(ts - t); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Series returns a copy of the time series for one channel and axis.
func (a *CategoryArray) Series(channel, axis string) ([]float64, error) {
	ci := a.ChannelIndex(channel)
	if ci < 0 {
		return nil, fmt.Errorf("category %s has no channel %q", a.Category, channel)
	}
	ai := a.AxisIndex(axis)
	if ai < 0 {
		return nil, fmt.Errorf("category %s has no axis %q", a.Category, axis)
	}
	return append([]float64(nil), a.Values[ci][ai]...), nil
}

// SliceTime returns a new array holding the samples whose time lies in the
// inclusive window [start, end]. Values are copied, never shared.
func (a *CategoryArray) SliceTime(start, end float64, meta Meta) *CategoryArray {
	lo, hi := 0, len(a.Times)
	for lo < hi && a.Times[lo] < start {
		lo++
	}
	for hi > lo && a.Times[hi-1] > end {
		hi--
	}
	times := append([]float64(nil), a.Times[lo:hi]...)
	values := make([][][]float64, len(a.Channels))
	for i := range a.Channels {
		values[i] = make([][]float64, len(a.Axes))
		for j := range a.Axes {
			values[i][j] = append([]float64(nil), a.Values[i][j][lo:hi]...)
		}
	}
	return &CategoryArray{
		Category: a.Category,
		Channels: append([]string(nil), a.Channels...),
		Axes:     append([]string(nil), a.Axes...),
		Units:    append([]string(nil), a.Units...),
		Times:    times,
		Values:   values,
		Meta:     meta,
	}
}

// AppendTime concatenates other along the time axis and returns the combined
// array. Channels, axes and rate must match; re-adding a category extends the
// recording span, not the channel count.
func (a *CategoryArray) AppendTime(other *CategoryArray) (*CategoryArray, error) {
	if other.Category != a.Category {
		return nil, fmt.Errorf("cannot append %s data to %s data", other.Category, a.Category)
	}
	if len(other.Channels) != len(a.Channels) || len(other.Axes) != len(a.Axes) {
		return nil, fmt.Errorf("category %s: channel/axis layout mismatch on append", a.Category)
	}
	for i := range a.Channels {
		if a.Channels[i] != other.Channels[i] {
			return nil, fmt.Errorf("category %s: channel %q does not match %q", a.Category, other.Channels[i], a.Channels[i])
		}
	}
	if a.Meta.Rate != other.Meta.Rate {
		return nil, fmt.Errorf("category %s: rate %v does not match %v", a.Category, other.Meta.Rate, a.Meta.Rate)
	}
	times := append(append([]float64(nil), a.Times...), other.Times...)
	values := make([][][]float64, len(a.Channels))
	for i := range a.Channels {
		values[i] = make([][]float64, len(a.Axes))
		for j := range a.Axes {
			values[i][j] = append(append([]float64(nil), a.Values[i][j]...), other.Values[i][j]...)
		}
	}
	return &CategoryArray{
		Category: a.Category,
		Channels: append([]string(nil), a.Channels...),
		Axes:     append([]string(nil), a.Axes...),
		Units:    append([]string(nil), a.Units...),
		Times:    times,
		Values:   values,
		Meta:     a.Meta,
	}, nil
}
