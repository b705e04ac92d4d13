package model

import "fmt"

// Node is a segmented trial tree: either a Trial leaf or a Branch of named
// children. Persistence and normalization recurse structurally over this
// union instead of inspecting runtime types of arbitrary values.
type Node interface {
	node()
}

// Trial owns zero or more category arrays and an optional event table. It is
// created empty and mutated only through AddData/SetEvents; transforms return
// new trials rather than mutating in place.
type Trial struct {
	data   map[DataCategory]*CategoryArray
	order  []DataCategory
	events *EventTable
}

func (*Trial) node() {}

// NewTrial creates an empty trial.
func NewTrial() *Trial {
	return &Trial{data: make(map[DataCategory]*CategoryArray)}
}

// AddData adds a category array to the trial. Re-adding an existing category
// concatenates along the time axis, extending the recording span.
func (t *Trial) AddData(category DataCategory, arr *CategoryArray) error {
	if arr == nil {
		return fmt.Errorf("nil array for category %s", category)
	}
	if existing, ok := t.data[category]; ok {
		combined, err := existing.AppendTime(arr)
		if err != nil {
			return err
		}
		t.data[category] = combined
		return nil
	}
	t.data[category] = arr
	t.order = append(t.order, category)
	return nil
}

// Data returns the array for a category.
func (t *Trial) Data(category DataCategory) (*CategoryArray, bool) {
	arr, ok := t.data[category]
	return arr, ok
}

// Categories returns the present categories in insertion order.
func (t *Trial) Categories() []DataCategory {
	return append([]DataCategory(nil), t.order...)
}

// Events returns the trial's event table, or nil.
func (t *Trial) Events() *EventTable {
	return t.events
}

// SetEvents sets the trial's event table.
func (t *Trial) SetEvents(events *EventTable) {
	t.events = events
}

// Empty reports whether the trial has neither data nor events.
func (t *Trial) Empty() bool {
	return len(t.order) == 0 && t.events == nil
}

// Branch is an ordered mapping from string key to child nodes. Keys keep
// insertion order so iteration is deterministic.
type Branch struct {
	keys     []string
	children map[string]Node
}

func (*Branch) node() {}

// NewBranch creates an empty branch.
func NewBranch() *Branch {
	return &Branch{children: make(map[string]Node)}
}

// Add inserts or replaces a child. Replacing keeps the original key position.
func (b *Branch) Add(key string, child Node) {
	if _, ok := b.children[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.children[key] = child
}

// Get returns the child for key.
func (b *Branch) Get(key string) (Node, bool) {
	child, ok := b.children[key]
	return child, ok
}

// Keys returns the keys in insertion order.
func (b *Branch) Keys() []string {
	return append([]string(nil), b.keys...)
}

// Len returns the number of children.
func (b *Branch) Len() int {
	return len(b.keys)
}
