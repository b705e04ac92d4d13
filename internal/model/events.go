package model

import (
	"errors"
	"sort"
)

// Controlled vocabulary of gait event labels.
const (
	LabelFootStrike = "Foot Strike"
	LabelFootOff    = "Foot Off"
)

// ErrNoEvents is returned when an operation requires an event table and the
// trial has none. This is a hard precondition violation.
var ErrNoEvents = errors.New("trial does not have events")

// Event is a single discrete occurrence in a trial.
type Event struct {
	Time    float64 `json:"time"`
	Label   string  `json:"label"`
	Context string  `json:"context"`
	IconID  int     `json:"icon_id"`
}

// EventTableMeta carries the cycle attributes stamped on a sliced event
// table by segmentation. EndTime is the cycle duration in seconds.
type EventTableMeta struct {
	EndTime float64
	Context string
	CycleID int
}

// EventTable is the time-ordered set of all events for a trial. Duplicates
// are kept; the sequence checker may flag them.
type EventTable struct {
	Events []Event
	Meta   EventTableMeta
}

// NewEventTable builds a table sorted ascending by time.
func NewEventTable(events []Event) *EventTable {
	sorted := append([]Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return &EventTable{Events: sorted, Meta: EventTableMeta{CycleID: -1}}
}

// Len returns the number of events.
func (t *EventTable) Len() int {
	return len(t.Events)
}

// Contexts returns the distinct contexts in first-appearance order.
func (t *EventTable) Contexts() []string {
	var contexts []string
	seen := make(map[string]bool)
	for _, e := range t.Events {
		if !seen[e.Context] {
			seen[e.Context] = true
			contexts = append(contexts, e.Context)
		}
	}
	return contexts
}

// Filter returns the events accepted by keep, preserving order.
func (t *EventTable) Filter(keep func(Event) bool) []Event {
	var out []Event
	for _, e := range t.Events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
