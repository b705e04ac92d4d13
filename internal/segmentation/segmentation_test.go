package segmentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaitworks/gaitkit/internal/model"
)

// walkTrial builds a trial sampled at 100 Hz over [0, 4] s with a clean
// alternating event stream. Left foot strikes at 1.0, 2.0 and 3.0 s give
// two Left cycles; Right strikes at 1.5 and 2.5 s give one Right cycle.
func walkTrial(t *testing.T) *model.Trial {
	t.Helper()
	const samples = 401
	times := make([]float64, samples)
	series := make([]float64, samples)
	for i := range times {
		times[i] = float64(i) / 100
		series[i] = times[i]
	}
	arr, err := model.NewCategoryArray(model.CategoryMarkers,
		[]string{"LHEE"}, []string{"x", "y", "z"}, []string{"mm"},
		times, [][][]float64{{series, series, series}}, model.NewMeta(100))
	require.NoError(t, err)

	trial := model.NewTrial()
	require.NoError(t, trial.AddData(model.CategoryMarkers, arr))
	trial.SetEvents(model.NewEventTable([]model.Event{
		{Time: 1.0, Label: model.LabelFootStrike, Context: "Left"},
		{Time: 1.2, Label: model.LabelFootOff, Context: "Right"},
		{Time: 1.5, Label: model.LabelFootStrike, Context: "Right"},
		{Time: 1.7, Label: model.LabelFootOff, Context: "Left"},
		{Time: 2.0, Label: model.LabelFootStrike, Context: "Left"},
		{Time: 2.2, Label: model.LabelFootOff, Context: "Right"},
		{Time: 2.5, Label: model.LabelFootStrike, Context: "Right"},
		{Time: 2.7, Label: model.LabelFootOff, Context: "Left"},
		{Time: 3.0, Label: model.LabelFootStrike, Context: "Left"},
	}))
	return trial
}

func TestSegmentProducesCyclesPerContext(t *testing.T) {
	segmenter, err := New("HS")
	require.NoError(t, err)

	cycles, err := segmenter.Segment(walkTrial(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Left", "Right"}, cycles.Contexts())
	assert.Len(t, cycles.Cycles("Left"), 2)
	assert.Len(t, cycles.Cycles("Right"), 1)
}

func TestSegmentSlicesDataInclusive(t *testing.T) {
	segmenter, err := New("HS")
	require.NoError(t, err)

	cycles, err := segmenter.Segment(walkTrial(t))
	require.NoError(t, err)

	first := cycles.Cycles("Left")[0]
	arr, ok := first.Data(model.CategoryMarkers)
	require.True(t, ok)

	// Both boundary samples are retained.
	require.Len(t, arr.Times, 101)
	assert.InDelta(t, 1.0, arr.Times[0], 1e-9)
	assert.InDelta(t, 2.0, arr.Times[100], 1e-9)

	assert.Equal(t, 100, arr.Meta.StartFrame)
	assert.Equal(t, 200, arr.Meta.EndFrame)
	assert.Equal(t, 0, arr.Meta.CycleID)
	assert.Equal(t, "Left", arr.Meta.Context)

	// Consecutive cycles share the boundary frame.
	second, _ := cycles.Cycles("Left")[1].Data(model.CategoryMarkers)
	assert.Equal(t, arr.Meta.EndFrame, second.Meta.StartFrame)
}

func TestSegmentRebasesCycleEvents(t *testing.T) {
	segmenter, err := New("HS")
	require.NoError(t, err)

	cycles, err := segmenter.Segment(walkTrial(t))
	require.NoError(t, err)

	table := cycles.Cycles("Left")[0].Events()
	require.NotNil(t, table)

	// Boundary events are excluded; the three inner events are rebased to
	// the cycle start.
	require.Equal(t, 3, table.Len())
	assert.InDelta(t, 0.2, table.Events[0].Time, 1e-9)
	assert.InDelta(t, 0.5, table.Events[1].Time, 1e-9)
	assert.InDelta(t, 0.7, table.Events[2].Time, 1e-9)

	assert.InDelta(t, 1.0, table.Meta.EndTime, 1e-9)
	assert.Equal(t, "Left", table.Meta.Context)
	assert.Equal(t, 0, table.Meta.CycleID)
}

func TestSegmentSkipsContextWithSingleBoundary(t *testing.T) {
	trial := walkTrial(t)
	// Keep only one Right strike: Right gets no cycle, Left keeps two.
	kept := trial.Events().Filter(func(e model.Event) bool {
		return !(e.Context == "Right" && e.Label == model.LabelFootStrike && e.Time > 2)
	})
	trial.SetEvents(model.NewEventTable(kept))

	segmenter, err := New("HS")
	require.NoError(t, err)

	cycles, err := segmenter.Segment(trial)
	require.NoError(t, err)
	assert.Len(t, cycles.Cycles("Left"), 2)
	assert.Empty(t, cycles.Cycles("Right"))
}

func TestSegmentWithoutEvents(t *testing.T) {
	segmenter, err := New("HS")
	require.NoError(t, err)

	_, err = segmenter.Segment(model.NewTrial())
	assert.ErrorIs(t, err, model.ErrNoEvents)
}

func TestCustomBoundaryLabel(t *testing.T) {
	trial := walkTrial(t)

	cycles, err := NewEventSegmenter(model.LabelFootOff).Segment(trial)
	require.NoError(t, err)

	// Two Right foot offs give one Right cycle, two Left foot offs one
	// Left cycle. Contexts keep the event-table appearance order.
	assert.Len(t, cycles.Cycles("Right"), 1)
	assert.Len(t, cycles.Cycles("Left"), 1)
}

func TestRegistry(t *testing.T) {
	_, err := New("nonsense")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported segmentation method")

	assert.Contains(t, Methods(), "HS")
}
