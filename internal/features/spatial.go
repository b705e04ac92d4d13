package features

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
)

func init() {
	Register("spatial", func(cfg *mapping.Config) Calculator { return &SpatialFeatures{cfg: cfg} })
}

var spatialNames = []string{"step_length", "step_width"}

// SpatialFeatures derives step geometry from the heel-marker positions at
// the cycle's boundary event. The displacement between the ipsilateral and
// contralateral heel is projected onto the walking plane: its
// anteroposterior component is the step length, its mediolateral component
// the step width. Marker identity per side comes from the channel mapping.
type SpatialFeatures struct {
	cfg *mapping.Config
}

// Name returns the family name.
func (f *SpatialFeatures) Name() string { return "spatial" }

// FeatureNames returns step_length and step_width, in that order.
func (f *SpatialFeatures) FeatureNames() []string {
	return append([]string(nil), spatialNames...)
}

// CalculateCycle measures the planar heel-to-heel displacement at the sample
// nearest the cycle start.
func (f *SpatialFeatures) CalculateCycle(cycle *model.Trial) ([]Row, error) {
	if f.cfg == nil {
		return nil, fmt.Errorf("spatial features require a channel mapping configuration")
	}
	markers, ok := cycle.Data(model.CategoryMarkers)
	if !ok {
		return nil, fmt.Errorf("cycle has no %s data", model.CategoryMarkers)
	}
	context := markers.Meta.Context
	cycleID := markers.Meta.CycleID

	ipsiName, err := f.cfg.HeelMarker(context)
	if err != nil {
		return nil, fmt.Errorf("cycle %s nr. %d: %w", context, cycleID, err)
	}
	contraName, err := f.cfg.HeelMarker(oppositeContext(context))
	if err != nil {
		return nil, fmt.Errorf("cycle %s nr. %d: %w", context, cycleID, err)
	}

	// The ipsi-side boundary event is the cycle start; its nearest sample is
	// the first one of the sliced array.
	idx := 0
	if len(markers.Times) == 0 {
		return nil, fmt.Errorf("cycle %s nr. %d has no marker samples", context, cycleID)
	}

	ipsi, err := f.markerVector(markers, ipsiName, idx)
	if err != nil {
		return nil, fmt.Errorf("cycle %s nr. %d: %w", context, cycleID, err)
	}
	contra, err := f.markerVector(markers, contraName, idx)
	if err != nil {
		return nil, fmt.Errorf("cycle %s nr. %d: %w", context, cycleID, err)
	}

	// Drop the vertical axis; the step is measured in the walking plane.
	displacement := ipsi.Sub(contra)
	planar := r2.Point{X: displacement.X, Y: displacement.Y}

	return []Row{{Values: []float64{math.Abs(planar.Y), math.Abs(planar.X)}}}, nil
}

// markerVector reads one marker position as a vector with X mediolateral,
// Y anteroposterior, Z vertical, using the configured axis names.
func (f *SpatialFeatures) markerVector(markers *model.CategoryArray, channel string, idx int) (r3.Vector, error) {
	ci := markers.ChannelIndex(channel)
	if ci < 0 {
		return r3.Vector{}, fmt.Errorf("heel marker %q not present in marker data", channel)
	}
	ml := markers.AxisIndex(f.cfg.MediolateralAxis())
	ap := markers.AxisIndex(f.cfg.AnteroposteriorAxis())
	vert := markers.AxisIndex(f.cfg.VerticalAxis())
	if ml < 0 || ap < 0 || vert < 0 {
		return r3.Vector{}, fmt.Errorf("marker data lacks configured axes %s/%s/%s",
			f.cfg.MediolateralAxis(), f.cfg.AnteroposteriorAxis(), f.cfg.VerticalAxis())
	}
	return r3.Vector{
		X: markers.Values[ci][ml][idx],
		Y: markers.Values[ci][ap][idx],
		Z: markers.Values[ci][vert][idx],
	}, nil
}

// oppositeContext flips Left and Right; other context names have no
// opposite side.
func oppositeContext(context string) string {
	switch strings.ToLower(context) {
	case "left":
		return "Right"
	case "right":
		return "Left"
	}
	return ""
}
