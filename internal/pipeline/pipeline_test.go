package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
	"github.com/gaitworks/gaitkit/internal/storage"
)

// writeTrialExports writes a small but complete set of CSV exports: markers
// LHEE/RHEE walking forward along y, one EMG channel and a clean alternating
// event stream giving two Left cycles and one Right cycle.
func writeTrialExports(t *testing.T) (markerPath, analogPath, eventPath string) {
	t.Helper()
	dir := t.TempDir()

	var markers strings.Builder
	markers.WriteString("time,LHEE:x,LHEE:y,LHEE:z,RHEE:x,RHEE:y,RHEE:z\n")
	markers.WriteString("s,mm,mm,mm,mm,mm,mm\n")
	var analogs strings.Builder
	analogs.WriteString("time,EMG1\n")
	analogs.WriteString("s,V\n")
	for i := 0; i <= 400; i++ {
		ts := float64(i) / 100
		fmt.Fprintf(&markers, "%.2f,100,%.1f,55,-50,%.1f,45\n", ts, 1000*ts, 1000*ts-600)
		fmt.Fprintf(&analogs, "%.2f,%.3f\n", ts, 0.001*float64(i))
	}

	events := "time,label,context,icon_id\n" +
		"1.0,Foot Strike,Left,1\n" +
		"1.2,Foot Off,Right,2\n" +
		"1.5,Foot Strike,Right,1\n" +
		"1.7,Foot Off,Left,2\n" +
		"2.0,Foot Strike,Left,1\n" +
		"2.2,Foot Off,Right,2\n" +
		"2.5,Foot Strike,Right,1\n" +
		"2.7,Foot Off,Left,2\n" +
		"3.0,Foot Strike,Left,1\n"

	markerPath = filepath.Join(dir, "markers.csv")
	analogPath = filepath.Join(dir, "analogs.csv")
	eventPath = filepath.Join(dir, "events.csv")
	require.NoError(t, os.WriteFile(markerPath, []byte(markers.String()), 0o644))
	require.NoError(t, os.WriteFile(analogPath, []byte(analogs.String()), 0o644))
	require.NoError(t, os.WriteFile(eventPath, []byte(events), 0o644))
	return markerPath, analogPath, eventPath
}

func testConfig() *mapping.Config {
	return &mapping.Config{
		Analysis: mapping.AnalysisConfig{Markers: []string{"LHEE", "RHEE"}},
		Markers: mapping.MarkerConfig{Roles: map[string]string{
			mapping.RoleLeftHeel:  "LHEE",
			mapping.RoleRightHeel: "RHEE",
		}},
	}
}

func TestEndToEnd(t *testing.T) {
	markerPath, analogPath, eventPath := writeTrialExports(t)
	cfg := testConfig()

	trial, err := LoadCSVTrial(markerPath, analogPath, eventPath, cfg)
	require.NoError(t, err)
	require.NoError(t, CheckEvents(trial.Events(), "sequence"))

	cycles, err := SegmentTrial(trial, "HS")
	require.NoError(t, err)
	assert.Len(t, cycles.Cycles("Left"), 2)
	assert.Len(t, cycles.Cycles("Right"), 1)

	// Time normalization onto the common cycle axis.
	node, err := NormaliseTrial(cycles, "linear", 0)
	require.NoError(t, err)
	normalised, ok := node.(*model.TrialCycles)
	require.True(t, ok)
	arr, ok := normalised.Cycles("Left")[0].Data(model.CategoryAnalysis)
	require.True(t, ok)
	assert.Len(t, arr.Times, 100)

	// All three feature families over the raw cycles.
	tensors, err := CalculateFeatures(cycles, cfg, nil)
	require.NoError(t, err)
	require.Len(t, tensors, 3)

	byFamily := make(map[string]int)
	for i, tensor := range tensors {
		byFamily[tensor.Family] = i
	}

	spatial := tensors[byFamily["spatial"]]
	length, ok := spatial.Value("Left", 0, "step_length")
	require.True(t, ok)
	assert.InDelta(t, 600, length, 1e-6)
	width, ok := spatial.Value("Left", 0, "step_width")
	require.True(t, ok)
	assert.InDelta(t, 150, width, 1e-6)

	temporal := tensors[byFamily["temporal"]]
	cadence, ok := temporal.Value("Left", 0, "cadence")
	require.True(t, ok)
	assert.InDelta(t, 120, cadence, 1e-6)

	// Persist the segmented trial and restore it losslessly.
	target := filepath.Join(t.TempDir(), "segmented")
	require.NoError(t, storage.Save(cycles, target))
	restored, err := storage.LoadCycles(target)
	require.NoError(t, err)
	assert.Equal(t, cycles.Contexts(), restored.Contexts())
	assert.Equal(t, cycles.Len(), restored.Len())
}

func TestCheckEventsFailsOnBrokenStream(t *testing.T) {
	table := model.NewEventTable([]model.Event{
		{Time: 1.0, Label: model.LabelFootStrike, Context: "Left"},
		{Time: 1.5, Label: model.LabelFootStrike, Context: "Right"},
	})

	err := CheckEvents(table, "sequence")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event sequence is not correct")

	assert.Error(t, CheckEvents(table, "nonsense"))
}

func TestLoadCSVTrialMissingFile(t *testing.T) {
	_, analogPath, eventPath := writeTrialExports(t)
	_, err := LoadCSVTrial(filepath.Join(t.TempDir(), "nope.csv"), analogPath, eventPath, testConfig())
	assert.Error(t, err)
}
