// Package events validates the event stream of a trial before segmentation
// and temporal feature calculation.
package events

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gaitworks/gaitkit/internal/model"
)

// TimeRange marks a window of the recording where the event sequence is
// suspect.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Checker is the interface all event checkers implement, which makes the
// named variants interchangeable.
type Checker interface {
	// Check inspects the event table and reports whether it is valid,
	// together with the flagged time windows. A nil table is a hard
	// precondition violation and returns an error.
	Check(table *model.EventTable) (bool, []TimeRange, error)
}

// CheckerFactory creates a checker instance.
type CheckerFactory func() Checker

var (
	registryMu sync.RWMutex
	registry   = make(map[string]CheckerFactory)
)

// Register registers a checker factory under a method name.
func Register(name string, factory CheckerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New returns a checker for the given method name.
func New(name string) (Checker, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported event check method: %s", name)
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
	Register("sequence", func() Checker { return &SequenceChecker{} })
}

// SequenceChecker checks the label and context sequence of a gait event
// stream. In a normal gait cycle events alternate between Foot Strike and
// Foot Off and between sides:
//
//	1. Foot Strike (right)
//	2. Foot Off (left)
//	3. Foot Strike (left)
//	4. Foot Off (right)
type SequenceChecker struct{}

// Check runs the label alternation check and the context balance check.
// Both are always evaluated and their violation windows are concatenated.
func (c *SequenceChecker) Check(table *model.EventTable) (bool, []TimeRange, error) {
	if table == nil {
		return false, nil, model.ErrNoEvents
	}

	var violations []TimeRange
	violations = append(violations, c.checkLabels(table.Events)...)
	violations = append(violations, c.checkContexts(table.Events)...)

	return len(violations) == 0, violations, nil
}

// checkLabels flags any two time-adjacent events sharing the same label.
func (c *SequenceChecker) checkLabels(events []model.Event) []TimeRange {
	var violations []TimeRange
	for i := 1; i < len(events); i++ {
		if events[i].Label == events[i-1].Label {
			violations = append(violations, TimeRange{Start: events[i-1].Time, End: events[i].Time})
		}
	}
	return violations
}

// checkContexts slides a window of 3 consecutive events over the table. A
// context appearing more than twice inside a window means a skipped or
// duplicated side.
func (c *SequenceChecker) checkContexts(events []model.Event) []TimeRange {
	var violations []TimeRange
	for i := 0; i+3 < len(events); i++ {
		counts := make(map[string]int, 2)
		most := 0
		for _, e := range events[i : i+3] {
			counts[e.Context]++
			if counts[e.Context] > most {
				most = counts[e.Context]
			}
		}
		if most > 2 {
			violations = append(violations, TimeRange{Start: events[i].Time, End: events[i+3].Time})
		}
	}
	return violations
}
