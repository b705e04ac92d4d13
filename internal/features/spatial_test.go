package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
)

func heelConfig() *mapping.Config {
	return &mapping.Config{
		Markers: mapping.MarkerConfig{Roles: map[string]string{
			mapping.RoleLeftHeel:  "LHEE",
			mapping.RoleRightHeel: "RHEE",
		}},
	}
}

// heelCycle builds a Left cycle whose heel markers sit at fixed positions:
// x mediolateral, y anteroposterior, z vertical.
func heelCycle(t *testing.T, lhee, rhee [3]float64) *model.Trial {
	t.Helper()
	arr, err := model.NewCategoryArray(model.CategoryMarkers,
		[]string{"LHEE", "RHEE"}, []string{"x", "y", "z"}, []string{"mm", "mm"},
		[]float64{1.0, 1.01},
		[][][]float64{
			{{lhee[0], lhee[0]}, {lhee[1], lhee[1]}, {lhee[2], lhee[2]}},
			{{rhee[0], rhee[0]}, {rhee[1], rhee[1]}, {rhee[2], rhee[2]}},
		},
		model.Meta{Rate: 100, CycleID: 0, Context: "Left"})
	require.NoError(t, err)

	cycle := model.NewTrial()
	require.NoError(t, cycle.AddData(model.CategoryMarkers, arr))
	return cycle
}

func TestSpatialFeatures(t *testing.T) {
	calc, err := New("spatial", heelConfig())
	require.NoError(t, err)
	assert.Equal(t, "spatial", calc.Name())
	assert.Equal(t, []string{"step_length", "step_width"}, calc.FeatureNames())

	// Left heel 600 mm ahead of and 150 mm beside the right heel; height
	// difference is ignored.
	cycle := heelCycle(t, [3]float64{100, 1200, 55}, [3]float64{-50, 600, 45})

	rows, err := calc.CalculateCycle(cycle)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Values, 2)
	assert.InDelta(t, 600, rows[0].Values[0], 1e-9) // step_length
	assert.InDelta(t, 150, rows[0].Values[1], 1e-9) // step_width
}

func TestSpatialFeaturesBackwardStepIsPositive(t *testing.T) {
	calc, err := New("spatial", heelConfig())
	require.NoError(t, err)

	cycle := heelCycle(t, [3]float64{0, -300, 50}, [3]float64{80, 0, 50})

	rows, err := calc.CalculateCycle(cycle)
	require.NoError(t, err)
	assert.InDelta(t, 300, rows[0].Values[0], 1e-9)
	assert.InDelta(t, 80, rows[0].Values[1], 1e-9)
}

func TestSpatialFeaturesErrors(t *testing.T) {
	calc, err := New("spatial", heelConfig())
	require.NoError(t, err)

	// No marker data.
	_, err = calc.CalculateCycle(model.NewTrial())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no markers data")

	// Missing role mapping.
	bare, err := New("spatial", &mapping.Config{})
	require.NoError(t, err)
	_, err = bare.CalculateCycle(heelCycle(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not define a marker")

	// Configured heel marker absent from the data.
	wrong := &mapping.Config{Markers: mapping.MarkerConfig{Roles: map[string]string{
		mapping.RoleLeftHeel:  "LCAL",
		mapping.RoleRightHeel: "RCAL",
	}}}
	calc, err = New("spatial", wrong)
	require.NoError(t, err)
	_, err = calc.CalculateCycle(heelCycle(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present in marker data")
}

func TestSpatialFeaturesRequireConfig(t *testing.T) {
	calc, err := New("spatial", nil)
	require.NoError(t, err)

	_, err = calc.CalculateCycle(heelCycle(t, [3]float64{0, 0, 0}, [3]float64{0, 0, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel mapping configuration")
}
