// Package segmentation cuts a continuous trial into repeating gait cycles.
package segmentation

import (
	"fmt"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/gaitworks/gaitkit/internal/model"
)

// DefaultBoundaryLabel delimits heel-strike-to-heel-strike cycles.
const DefaultBoundaryLabel = model.LabelFootStrike

// Segmenter is the interface all segmentation methods implement.
type Segmenter interface {
	// Segment cuts the trial into per-context cycles. A trial without an
	// event table is a hard precondition violation.
	Segment(trial *model.Trial) (*model.TrialCycles, error)
}

// Factory creates a segmenter instance.
type Factory func() Segmenter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register registers a segmenter factory under a method name.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New returns a segmenter for the given method name.
func New(name string) (Segmenter, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported segmentation method: %s", name)
	}
	return factory(), nil
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
	// "HS": heel-strike to heel-strike cycles.
	Register("HS", func() Segmenter { return NewEventSegmenter(DefaultBoundaryLabel) })
}

// EventSegmenter segments a trial on a boundary event label, grouped by
// context. N boundary events for a context yield N-1 cycles.
type EventSegmenter struct {
	BoundaryLabel string
}

// NewEventSegmenter creates a segmenter for the given boundary label; an
// empty label selects the default.
func NewEventSegmenter(boundaryLabel string) *EventSegmenter {
	if boundaryLabel == "" {
		boundaryLabel = DefaultBoundaryLabel
	}
	return &EventSegmenter{BoundaryLabel: boundaryLabel}
}

// Segment cuts the trial into cycles bounded by consecutive same-context
// boundary events.
func (s *EventSegmenter) Segment(trial *model.Trial) (*model.TrialCycles, error) {
	table := trial.Events()
	if table == nil {
		return nil, model.ErrNoEvents
	}

	boundaries := s.boundaryTimes(table)

	cycles := model.NewTrialCycles()
	for _, context := range table.Contexts() {
		times := boundaries[context]
		// Fewer than 2 boundaries means no full cycle for this context.
		if len(times) < 2 {
			log.Printf("[EventSegmenter] context %s has %d %q events, no cycles", context, len(times), s.BoundaryLabel)
			continue
		}
		for cycleID := 0; cycleID < len(times)-1; cycleID++ {
			cycle, err := s.cut(trial, times[cycleID], times[cycleID+1], cycleID, context)
			if err != nil {
				return nil, fmt.Errorf("context %s cycle %d: %w", context, cycleID, err)
			}
			if err := cycles.AddCycle(context, cycleID, cycle); err != nil {
				return nil, err
			}
		}
	}
	return cycles, nil
}

// boundaryTimes collects the times of boundary-label events per context, in
// time order.
func (s *EventSegmenter) boundaryTimes(table *model.EventTable) map[string][]float64 {
	times := make(map[string][]float64)
	for _, e := range table.Events {
		if e.Label == s.BoundaryLabel {
			times[e.Context] = append(times[e.Context], e.Time)
		}
	}
	return times
}

// cut builds the sub-trial for one cycle. Category data is sliced on the
// inclusive window [start, end]; the event table is sliced on the open
// window (start, end) so the boundary events themselves are excluded, and
// event times are rebased to the cycle start.
func (s *EventSegmenter) cut(trial *model.Trial, start, end float64, cycleID int, context string) (*model.Trial, error) {
	cycle := model.NewTrial()
	for _, category := range trial.Categories() {
		arr, _ := trial.Data(category)
		sliced := arr.SliceTime(start, end, stampMeta(arr, start, end, cycleID, context))
		if err := cycle.AddData(category, sliced); err != nil {
			return nil, err
		}
	}

	var inner []model.Event
	for _, e := range trial.Events().Events {
		if e.Time > start && e.Time < end {
			e.Time -= start
			inner = append(inner, e)
		}
	}
	table := model.NewEventTable(inner)
	table.Meta = model.EventTableMeta{
		EndTime: end - start,
		Context: context,
		CycleID: cycleID,
	}
	cycle.SetEvents(table)
	return cycle, nil
}

// stampMeta derives the stamped metadata for one sliced category. Frames are
// rounded from the first and last retained sample times; rounding rather
// than truncation keeps adjacent cycles within one frame of each other.
func stampMeta(arr *model.CategoryArray, start, end float64, cycleID int, context string) model.Meta {
	first, last := start, end
	if idx := firstAtOrAfter(arr.Times, start); idx < len(arr.Times) {
		first = arr.Times[idx]
	}
	if idx := lastAtOrBefore(arr.Times, end); idx >= 0 {
		last = arr.Times[idx]
	}
	return model.Meta{
		Rate:       arr.Meta.Rate,
		StartFrame: int(math.Round(first * arr.Meta.Rate)),
		EndFrame:   int(math.Round(last * arr.Meta.Rate)),
		CycleID:    cycleID,
		Context:    context,
	}
}

func firstAtOrAfter(times []float64, t float64) int {
	i := 0
	for i < len(times) && times[i] < t {
		i++
	}
	return i
}

func lastAtOrBefore(times []float64, t float64) int {
	i := len(times) - 1
	for i >= 0 && times[i] > t {
		i--
	}
	return i
}
