// Package features computes per-cycle gait metrics from segmented trials.
// Each family is a Calculator producing named values for one cycle; the
// driver stacks them into a feature tensor over contexts and cycles.
package features

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gaitworks/gaitkit/internal/mapping"
	"github.com/gaitworks/gaitkit/internal/model"
)

// Row is one tensor entry: the values of a feature family for one cycle,
// and, for per-channel families, one channel/axis of it. Values align with
// the family's declared feature-name list.
type Row struct {
	Context string    `json:"context"`
	CycleID int       `json:"cycle_id"`
	Channel string    `json:"channel,omitempty"`
	Axis    string    `json:"axis,omitempty"`
	Values  []float64 `json:"values"`
}

// Tensor is the feature tensor of one family: context x cycle (x channel per
// channel-wise families) x feature. Rows keep the iteration order of the
// segmented container, so contexts and cycles appear in segmentation order.
type Tensor struct {
	Family       string   `json:"family"`
	FeatureNames []string `json:"feature_names"`
	Rows         []Row    `json:"rows"`
}

// Contexts returns the distinct contexts in row order.
func (t *Tensor) Contexts() []string {
	var contexts []string
	seen := make(map[string]bool)
	for _, r := range t.Rows {
		if !seen[r.Context] {
			seen[r.Context] = true
			contexts = append(contexts, r.Context)
		}
	}
	return contexts
}

// Value returns the named feature of the first row matching context and
// cycle id. For per-channel families use the Rows directly.
func (t *Tensor) Value(context string, cycleID int, feature string) (float64, bool) {
	fi := -1
	for i, name := range t.FeatureNames {
		if name == feature {
			fi = i
			break
		}
	}
	if fi < 0 {
		return 0, false
	}
	for _, r := range t.Rows {
		if r.Context == context && r.CycleID == cycleID {
			return r.Values[fi], true
		}
	}
	return 0, false
}

// Calculator is the interface all feature families implement.
type Calculator interface {
	// Name returns the family name.
	Name() string

	// FeatureNames returns the declared feature names in output order.
	FeatureNames() []string

	// CalculateCycle computes the family's rows for one cycle. Context and
	// cycle id are filled in by the driver.
	CalculateCycle(cycle *model.Trial) ([]Row, error)
}

// Factory creates a calculator instance. Families that resolve channels
// through the channel mapping receive the configuration; others ignore it.
type Factory func(cfg *mapping.Config) Calculator

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register registers a calculator factory under a family name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New returns a calculator for the given family name.
func New(name string, cfg *mapping.Config) (Calculator, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported feature family: %s", name)
	}
	return factory(cfg), nil
}

// Families returns the registered family names, sorted.
func Families() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate runs one family over every cycle of the container and stacks the
// results. Contexts and cycles are visited in insertion order.
func Calculate(calc Calculator, cycles *model.TrialCycles) (*Tensor, error) {
	tensor := &Tensor{
		Family:       calc.Name(),
		FeatureNames: calc.FeatureNames(),
	}
	for _, context := range cycles.Contexts() {
		for cycleID, cycle := range cycles.Cycles(context) {
			rows, err := calc.CalculateCycle(cycle)
			if err != nil {
				return nil, fmt.Errorf("%s features: %w", calc.Name(), err)
			}
			for _, r := range rows {
				r.Context = context
				r.CycleID = cycleID
				tensor.Rows = append(tensor.Rows, r)
			}
		}
	}
	return tensor, nil
}
