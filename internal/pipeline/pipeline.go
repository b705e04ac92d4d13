// Package pipeline is the high-level entry point tying the processing steps
// together: load, check, segment, normalise, calculate, persist. Method
// names select interchangeable variants from the component registries.
package pipeline

import (
	"fmt"

	"github.com/gaitworks/gaitkit/internal/events"
	"github.com/gaitworks/gaitkit/internal/features"
	"github.com/gaitworks/gaitkit/internal/io"
	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
	"github.com/gaitworks/gaitkit/internal/normalization"
	"github.com/gaitworks/gaitkit/internal/segmentation"
)

// LoadConfig loads the channel-mapping configuration.
func LoadConfig(path string) (*mapping.Config, error) {
	return mapping.Load(path)
}

// LoadCSVTrial builds a trial from delimited-text exports of markers,
// analogs and events.
func LoadCSVTrial(markerPath, analogPath, eventPath string, cfg *mapping.Config) (*model.Trial, error) {
	markers, err := io.NewCSVCategoryReader(markerPath)
	if err != nil {
		return nil, err
	}
	analogs, err := io.NewCSVCategoryReader(analogPath)
	if err != nil {
		return nil, err
	}
	eventReader, err := io.NewCSVEventReader(eventPath)
	if err != nil {
		return nil, err
	}
	return mapping.BuildTrial(markers, analogs, eventReader, cfg)
}

// CheckEvents validates the event table with the named method ("sequence")
// and fails with the flagged windows when the sequence is wrong.
func CheckEvents(table *model.EventTable, method string) error {
	checker, err := events.New(method)
	if err != nil {
		return err
	}
	ok, violations, err := checker.Check(table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("event sequence is not correct: %v", violations)
	}
	return nil
}

// SegmentTrial cuts a trial into cycles with the named method ("HS").
func SegmentTrial(trial *model.Trial, method string) (*model.TrialCycles, error) {
	segmenter, err := segmentation.New(method)
	if err != nil {
		return nil, err
	}
	return segmenter.Segment(trial)
}

// NormaliseTrial resamples a trial or segmented container with the named
// method ("linear"); nFrames <= 0 selects the default of 100.
func NormaliseTrial(node model.Node, method string, nFrames int) (model.Node, error) {
	normaliser, err := normalization.New(method, nFrames)
	if err != nil {
		return nil, err
	}
	return normaliser.Normalise(node)
}

// CalculateFeatures runs the named feature families over the cycles. An
// empty family list selects all registered families.
func CalculateFeatures(cycles *model.TrialCycles, cfg *mapping.Config, families []string) ([]*features.Tensor, error) {
	if len(families) == 0 {
		families = features.Families()
	}
	tensors := make([]*features.Tensor, 0, len(families))
	for _, family := range families {
		calc, err := features.New(family, cfg)
		if err != nil {
			return nil, err
		}
		tensor, err := features.Calculate(calc, cycles)
		if err != nil {
			return nil, err
		}
		tensors = append(tensors, tensor)
	}
	return tensors, nil
}
