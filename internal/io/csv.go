package io

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// CSVCategoryReader reads one category of channels from a delimited text
// export. Expected layout:
//
//	time,LHEE:x,LHEE:y,LHEE:z,EMG1,...
//	s,mm,mm,mm,V,...
//	2.480,-1300.676,103.2,55.1,0.002,...
//
// The first header row names columns as "channel:axis" (or a bare channel
// name for single-axis analog signals), the second row carries units, and
// every following row is one sample. Empty cells are missing values.
type CSVCategoryReader struct {
	rate     float64
	times    []float64
	channels []csvChannel
	rows     [][]string // raw sample records, parsed per channel on demand
}

type csvChannel struct {
	label string
	unit  string
	axes  []string
	cols  []int
}

// NewCSVCategoryReader parses the file at path.
func NewCSVCategoryReader(path string) (*CSVCategoryReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open category file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) < 4 {
		return nil, fmt.Errorf("category file %s needs a header, a unit row and at least two samples", path)
	}
	header, units := records[0], records[1]
	if len(units) != len(header) {
		return nil, fmt.Errorf("category file %s: unit row has %d columns, header has %d", path, len(units), len(header))
	}
	if len(header) < 2 || header[0] != "time" {
		return nil, fmt.Errorf("category file %s: first column must be time", path)
	}

	r := &CSVCategoryReader{}
	byLabel := make(map[string]int)
	for col := 1; col < len(header); col++ {
		label, axis := splitColumn(header[col])
		idx, ok := byLabel[label]
		if !ok {
			idx = len(r.channels)
			byLabel[label] = idx
			r.channels = append(r.channels, csvChannel{label: label, unit: units[col]})
		}
		ch := &r.channels[idx]
		ch.axes = append(ch.axes, axis)
		ch.cols = append(ch.cols, col)
	}

	for line, record := range records[2:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("category file %s line %d: %d columns, expected %d", path, line+3, len(record), len(header))
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("category file %s line %d: bad time %q", path, line+3, record[0])
		}
		r.times = append(r.times, t)
	}
	r.rows = records[2:]
	r.rate = 1 / (r.times[1] - r.times[0])
	return r, nil
}

// FrameRate returns the sampling rate derived from the first time step.
func (r *CSVCategoryReader) FrameRate() float64 { return r.rate }

// ChannelCount returns the number of channels.
func (r *CSVCategoryReader) ChannelCount() int { return len(r.channels) }

// ChannelLabels returns the channel names in file order.
func (r *CSVCategoryReader) ChannelLabels() []string {
	labels := make([]string, len(r.channels))
	for i, ch := range r.channels {
		labels[i] = ch.label
	}
	return labels
}

// ChannelUnits returns one unit per channel.
func (r *CSVCategoryReader) ChannelUnits() []string {
	units := make([]string, len(r.channels))
	for i, ch := range r.channels {
		units[i] = ch.unit
	}
	return units
}

// ChannelAxes returns the axis labels of one channel.
func (r *CSVCategoryReader) ChannelAxes(index int) []string {
	return append([]string(nil), r.channels[index].axes...)
}

// ChannelData returns the axis x time samples of one channel. Empty cells
// become NaN.
func (r *CSVCategoryReader) ChannelData(index int) ([][]float64, error) {
	if index < 0 || index >= len(r.channels) {
		return nil, fmt.Errorf("channel index %d out of range", index)
	}
	ch := r.channels[index]
	data := make([][]float64, len(ch.cols))
	for a, col := range ch.cols {
		series := make([]float64, len(r.rows))
		for t, record := range r.rows {
			cell := strings.TrimSpace(record[col])
			if cell == "" {
				series[t] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("channel %s: bad value %q at sample %d", ch.label, cell, t)
			}
			series[t] = v
		}
		data[a] = series
	}
	return data, nil
}

// SampleTimes returns the absolute sample times.
func (r *CSVCategoryReader) SampleTimes() []float64 {
	return append([]float64(nil), r.times...)
}

// splitColumn splits a "channel:axis" header cell; a bare channel name gets
// the degenerate singleton axis.
func splitColumn(cell string) (label, axis string) {
	if i := strings.LastIndex(cell, ":"); i > 0 {
		return cell[:i], cell[i+1:]
	}
	return cell, "value"
}

// CSVEventReader reads the event table from a delimited text export with
// columns time,label,context,icon_id.
type CSVEventReader struct {
	labels   []string
	times    []float64
	contexts []string
	icons    []int
}

// NewCSVEventReader parses the file at path.
func NewCSVEventReader(path string) (*CSVEventReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("event file %s is empty", path)
	}

	r := &CSVEventReader{}
	for line, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("event file %s line %d: expected time,label,context[,icon_id]", path, line+2)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("event file %s line %d: bad time %q", path, line+2, record[0])
		}
		icon := 0
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			icon, err = strconv.Atoi(strings.TrimSpace(record[3]))
			if err != nil {
				return nil, fmt.Errorf("event file %s line %d: bad icon id %q", path, line+2, record[3])
			}
		}
		r.times = append(r.times, t)
		r.labels = append(r.labels, record[1])
		r.contexts = append(r.contexts, record[2])
		r.icons = append(r.icons, icon)
	}
	return r, nil
}

// Labels returns the event labels in file order.
func (r *CSVEventReader) Labels() []string { return r.labels }

// Times returns the event times in file order.
func (r *CSVEventReader) Times() []float64 { return r.times }

// Contexts returns the event contexts in file order.
func (r *CSVEventReader) Contexts() []string { return r.contexts }

// IconIDs returns the event icon ids in file order.
func (r *CSVEventReader) IconIDs() []int { return r.icons }
