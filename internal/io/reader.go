// Package io defines the raw-format reader interfaces the core consumes and
// a delimited-text implementation for exported trials. Parsing proprietary
// motion-capture binary formats stays outside this module; anything that can
// satisfy these interfaces can feed the pipeline.
package io

// CategoryReader exposes one category of channels from a raw recording.
type CategoryReader interface {
	// FrameRate returns the sampling rate in Hz.
	FrameRate() float64

	// ChannelCount returns the number of channels.
	ChannelCount() int

	// ChannelLabels returns the channel names, unique within the category.
	ChannelLabels() []string

	// ChannelUnits returns one unit string per channel.
	ChannelUnits() []string

	// ChannelData returns the samples of one channel as an axis x time
	// matrix (three rows for markers, one row for scalar analogs).
	ChannelData(index int) ([][]float64, error)

	// SampleTimes returns the absolute sample times in seconds.
	SampleTimes() []float64
}

// EventReader exposes the discrete event stream of a raw recording. The
// returned slices are index-aligned.
type EventReader interface {
	Labels() []string
	Times() []float64
	Contexts() []string
	IconIDs() []int
}
