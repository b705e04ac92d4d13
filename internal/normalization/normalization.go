// Package normalization resamples trial data onto a common time base so
// cycles of different durations can be compared point by point.
package normalization

import (
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/interp"

	"github.com/gaitworks/gaitkit/internal/model"
)

// DefaultFrames is the conventional number of samples per normalized cycle
// (percent of cycle).
const DefaultFrames = 100

// Normaliser is the interface all normalization methods implement. It works
// uniformly on a bare trial or any nested segmented container and always
// returns a new container.
type Normaliser interface {
	Normalise(node model.Node) (model.Node, error)
}

// Factory creates a normaliser with the given output frame count; nFrames
// <= 0 selects the default.
type Factory func(nFrames int) Normaliser

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register registers a normaliser factory under a method name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New returns a normaliser for the given method name.
func New(name string, nFrames int) (Normaliser, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported normalisation method: %s", name)
	}
	return factory(nFrames), nil
}

// Methods returns the registered method names, sorted.
func Methods() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("linear", func(nFrames int) Normaliser { return NewLinearNormaliser(nFrames) })
}

// LinearNormaliser resamples every category onto NFrames equally spaced
// samples spanning the original start/end, using linear interpolation. The
// output time coordinate is the normalized cycle parameter in [0, 1].
type LinearNormaliser struct {
	NFrames int
}

// NewLinearNormaliser creates a linear normaliser; nFrames <= 0 selects the
// default of 100 frames.
func NewLinearNormaliser(nFrames int) *LinearNormaliser {
	if nFrames <= 0 {
		nFrames = DefaultFrames
	}
	return &LinearNormaliser{NFrames: nFrames}
}

// Normalise resamples a trial, or recurses into a segmented container and
// resamples every leaf. The input is never mutated.
func (n *LinearNormaliser) Normalise(node model.Node) (model.Node, error) {
	switch v := node.(type) {
	case *model.Trial:
		return n.normaliseTrial(v)
	case *model.TrialCycles:
		out := model.NewTrialCycles()
		for _, context := range v.Contexts() {
			for id, cycle := range v.Cycles(context) {
				normalised, err := n.normaliseTrial(cycle)
				if err != nil {
					return nil, fmt.Errorf("context %s cycle %d: %w", context, id, err)
				}
				if err := out.AddCycle(context, id, normalised); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	case *model.Branch:
		out := model.NewBranch()
		for _, key := range v.Keys() {
			child, _ := v.Get(key)
			normalised, err := n.Normalise(child)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out.Add(key, normalised)
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot normalise container of type %T", node)
}

// normaliseTrial resamples each category of one trial. The event table is
// not carried over: event times are expressed in seconds and have no place
// on a percent-of-cycle axis.
func (n *LinearNormaliser) normaliseTrial(trial *model.Trial) (*model.Trial, error) {
	out := model.NewTrial()
	for _, category := range trial.Categories() {
		arr, _ := trial.Data(category)
		resampled, err := n.resample(arr)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		if err := out.AddData(category, resampled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resample maps one category array onto NFrames samples with a [0, 1] time
// coordinate.
func (n *LinearNormaliser) resample(arr *model.CategoryArray) (*model.CategoryArray, error) {
	if len(arr.Times) < 2 {
		return nil, fmt.Errorf("need at least 2 samples to normalise, have %d", len(arr.Times))
	}
	start := arr.Times[0]
	span := arr.Times[len(arr.Times)-1] - start

	targets := make([]float64, n.NFrames)
	normTimes := make([]float64, n.NFrames)
	for i := range targets {
		frac := float64(i) / float64(n.NFrames-1)
		targets[i] = start + frac*span
		normTimes[i] = frac
	}

	values := make([][][]float64, len(arr.Channels))
	for ci := range arr.Channels {
		values[ci] = make([][]float64, len(arr.Axes))
		for ai := range arr.Axes {
			var pl interp.PiecewiseLinear
			if err := pl.Fit(arr.Times, arr.Values[ci][ai]); err != nil {
				return nil, fmt.Errorf("channel %s axis %s: %w", arr.Channels[ci], arr.Axes[ai], err)
			}
			series := make([]float64, n.NFrames)
			for i, t := range targets {
				series[i] = pl.Predict(t)
			}
			values[ci][ai] = series
		}
	}

	return model.NewCategoryArray(arr.Category, arr.Channels, arr.Axes, arr.Units, normTimes, values, arr.Meta)
}
