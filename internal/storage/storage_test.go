package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaitworks/gaitkit/internal/model"
)

// sampleTrial builds a trial with markers, analogs and events, stamped like
// a segmented cycle.
func sampleTrial(t *testing.T, context string, cycleID int) *model.Trial {
	t.Helper()
	markers, err := model.NewCategoryArray(model.CategoryMarkers,
		[]string{"LHEE"}, []string{"x", "y", "z"}, []string{"mm"},
		[]float64{1.0, 1.01, 1.02},
		[][][]float64{{{1, 2, 3}, {4, 5, math.NaN()}, {7, 8, 9}}},
		model.Meta{Rate: 100, StartFrame: 100, EndFrame: 102, CycleID: cycleID, Context: context})
	require.NoError(t, err)

	analogs, err := model.NewCategoryArray(model.CategoryAnalogs,
		[]string{"EMG1"}, []string{"value"}, []string{"V"},
		[]float64{1.0, 1.01, 1.02},
		[][][]float64{{{0.1, 0.2, 0.3}}},
		model.Meta{Rate: 100, StartFrame: 100, EndFrame: 102, CycleID: cycleID, Context: context})
	require.NoError(t, err)

	trial := model.NewTrial()
	require.NoError(t, trial.AddData(model.CategoryMarkers, markers))
	require.NoError(t, trial.AddData(model.CategoryAnalogs, analogs))

	table := model.NewEventTable([]model.Event{
		{Time: 0.2, Label: model.LabelFootOff, Context: "Right", IconID: 2},
		{Time: 0.5, Label: model.LabelFootStrike, Context: "Right", IconID: 1},
	})
	table.Meta = model.EventTableMeta{EndTime: 1.0, Context: context, CycleID: cycleID}
	trial.SetEvents(table)
	return trial
}

func assertTrialsEqual(t *testing.T, want, got *model.Trial) {
	t.Helper()
	require.Equal(t, want.Categories(), got.Categories())
	for _, category := range want.Categories() {
		w, _ := want.Data(category)
		g, ok := got.Data(category)
		require.True(t, ok, "category %s missing", category)
		assert.Equal(t, w.Channels, g.Channels)
		assert.Equal(t, w.Axes, g.Axes)
		assert.Equal(t, w.Units, g.Units)
		assert.Equal(t, w.Times, g.Times)
		assert.Equal(t, w.Meta, g.Meta)
		for ci := range w.Channels {
			for ai := range w.Axes {
				for ti := range w.Times {
					wv, gv := w.Values[ci][ai][ti], g.Values[ci][ai][ti]
					if math.IsNaN(wv) {
						assert.True(t, math.IsNaN(gv))
					} else {
						assert.Equal(t, wv, gv)
					}
				}
			}
		}
	}
	if want.Events() == nil {
		assert.Nil(t, got.Events())
		return
	}
	require.NotNil(t, got.Events())
	assert.Equal(t, want.Events().Events, got.Events().Events)
	assert.Equal(t, want.Events().Meta, got.Events().Meta)
}

func TestSaveLoadTrialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trial"+FileExt)
	trial := sampleTrial(t, "Left", 0)

	require.NoError(t, Save(trial, path))

	loaded, err := LoadTrial(path)
	require.NoError(t, err)
	assertTrialsEqual(t, trial, loaded)
}

func TestSaveLoadSegmentedTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "segmented")

	cycles := model.NewTrialCycles()
	require.NoError(t, cycles.AddCycle("Left", 0, sampleTrial(t, "Left", 0)))
	require.NoError(t, cycles.AddCycle("Left", 1, sampleTrial(t, "Left", 1)))
	require.NoError(t, cycles.AddCycle("Right", 0, sampleTrial(t, "Right", 0)))

	require.NoError(t, Save(cycles, dir))

	// Context directories with one file per cycle.
	for _, rel := range []string{"Left/0.db", "Left/1.db", "Right/0.db"} {
		_, err := os.Stat(filepath.Join(dir, rel))
		assert.NoError(t, err, rel)
	}

	loaded, err := LoadCycles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Left", "Right"}, loaded.Contexts())
	require.Len(t, loaded.Cycles("Left"), 2)
	require.Len(t, loaded.Cycles("Right"), 1)
	assertTrialsEqual(t, cycles.Cycles("Left")[1], loaded.Cycles("Left")[1])
}

func TestSaveLoadDeepTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deep")

	// Three levels: subject dir, context group prefix, cycle file.
	inner := model.NewBranch()
	inner.Add("0", sampleTrial(t, "Left", 0))
	mid := model.NewBranch()
	mid.Add("Left", inner)
	root := model.NewBranch()
	root.Add("S01", mid)

	require.NoError(t, Save(root, dir))

	node, err := Load(dir)
	require.NoError(t, err)
	loaded, ok := node.(*model.Branch)
	require.True(t, ok)

	sub, ok := loaded.Get("S01")
	require.True(t, ok)
	ctx, ok := sub.(*model.Branch).Get("Left")
	require.True(t, ok)
	leaf, ok := ctx.(*model.Branch).Get("0")
	require.True(t, ok)
	assertTrialsEqual(t, sampleTrial(t, "Left", 0), leaf.(*model.Trial))
}

func TestSaveRefusesExistingTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trial"+FileExt)
	trial := sampleTrial(t, "Left", 0)

	require.NoError(t, Save(trial, path))
	assert.ErrorIs(t, Save(trial, path), ErrTargetExists)
}

func TestSaveRejectsWrongTargetShape(t *testing.T) {
	tmp := t.TempDir()

	// Bare trial needs a suffixed file path.
	err := Save(sampleTrial(t, "Left", 0), filepath.Join(tmp, "folder"))
	assert.ErrorIs(t, err, ErrTargetShape)

	// Segmented container needs a directory path.
	cycles := model.NewTrialCycles()
	require.NoError(t, cycles.AddCycle("Left", 0, sampleTrial(t, "Left", 0)))
	err = Save(cycles, filepath.Join(tmp, "trial"+FileExt))
	assert.ErrorIs(t, err, ErrTargetShape)

	// Shape errors surface before anything is written.
	entries, readErr := os.ReadDir(tmp)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestSaveRejectsEmptyContainers(t *testing.T) {
	tmp := t.TempDir()

	assert.ErrorIs(t, Save(model.NewTrial(), filepath.Join(tmp, "t"+FileExt)), ErrNoData)
	assert.ErrorIs(t, Save(model.NewTrialCycles(), filepath.Join(tmp, "dir")), ErrNoData)

	// A tree holding an empty leaf is rejected as a whole, before I/O.
	cycles := model.NewTrialCycles()
	require.NoError(t, cycles.AddCycle("Left", 0, sampleTrial(t, "Left", 0)))
	require.NoError(t, cycles.AddCycle("Left", 1, model.NewTrial()))
	err := Save(cycles, filepath.Join(tmp, "partial"))
	assert.ErrorIs(t, err, ErrNoData)
	_, statErr := os.Stat(filepath.Join(tmp, "partial"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadRejectsUnknownContent(t *testing.T) {
	dir := t.TempDir()

	// A directory without trial files is a format error.
	_, err := Load(dir)
	assert.ErrorIs(t, err, ErrFormat)

	// A missing path fails on stat.
	_, err = Load(filepath.Join(dir, "nope"+FileExt))
	assert.Error(t, err)
}

func TestCycleFilesSortNumerically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "many")

	cycles := model.NewTrialCycles()
	for i := 0; i < 11; i++ {
		require.NoError(t, cycles.AddCycle("Left", i, sampleTrial(t, "Left", i)))
	}
	require.NoError(t, Save(cycles, dir))

	// "10.db" must not sort between "1.db" and "2.db".
	node, err := Load(dir)
	require.NoError(t, err)
	sub, ok := node.(*model.Branch).Get("Left")
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10"},
		sub.(*model.Branch).Keys())

	loaded, err := LoadCycles(dir)
	require.NoError(t, err)
	left := loaded.Cycles("Left")
	require.Len(t, left, 11)
	for i, cycle := range left {
		arr, _ := cycle.Data(model.CategoryMarkers)
		assert.Equal(t, i, arr.Meta.CycleID)
	}
}
