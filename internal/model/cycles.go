package model

import (
	"fmt"
	"sort"
	"strconv"
)

// TrialCycles is the two-level segmented trial: context name to ordered
// cycles, each cycle being a sub-trial bounded by two consecutive boundary
// events. Cycle ids within a context are contiguous integers starting at 0
// in segmentation order.
type TrialCycles struct {
	contexts []string
	cycles   map[string][]*Trial
}

func (*TrialCycles) node() {}

// NewTrialCycles creates an empty container.
func NewTrialCycles() *TrialCycles {
	return &TrialCycles{cycles: make(map[string][]*Trial)}
}

// AddCycle appends a cycle for a context. The id must continue the context's
// contiguous sequence.
func (tc *TrialCycles) AddCycle(context string, cycleID int, cycle *Trial) error {
	existing := tc.cycles[context]
	if cycleID != len(existing) {
		return fmt.Errorf("context %s: cycle id %d does not continue sequence of length %d", context, cycleID, len(existing))
	}
	if len(existing) == 0 {
		tc.contexts = append(tc.contexts, context)
	}
	tc.cycles[context] = append(existing, cycle)
	return nil
}

// Contexts returns context names in insertion order.
func (tc *TrialCycles) Contexts() []string {
	return append([]string(nil), tc.contexts...)
}

// Cycles returns the cycles of a context ordered by cycle id. The slice index
// is the cycle id.
func (tc *TrialCycles) Cycles(context string) []*Trial {
	return tc.cycles[context]
}

// Len returns the total number of cycles over all contexts.
func (tc *TrialCycles) Len() int {
	n := 0
	for _, cycles := range tc.cycles {
		n += len(cycles)
	}
	return n
}

// Branch converts the container to the generalized segmented tree used by
// persistence and normalization.
func (tc *TrialCycles) Branch() *Branch {
	root := NewBranch()
	for _, context := range tc.contexts {
		sub := NewBranch()
		for id, cycle := range tc.cycles[context] {
			sub.Add(strconv.Itoa(id), cycle)
		}
		root.Add(context, sub)
	}
	return root
}

// CyclesFromBranch rebuilds a TrialCycles from a two-level branch, e.g. one
// reconstructed by the persistence layer. Cycle keys are interpreted as
// integer ids and must form a gap-free sequence from 0.
func CyclesFromBranch(root *Branch) (*TrialCycles, error) {
	tc := NewTrialCycles()
	for _, context := range root.Keys() {
		child, _ := root.Get(context)
		sub, ok := child.(*Branch)
		if !ok {
			return nil, fmt.Errorf("context %s: expected a branch of cycles", context)
		}
		type entry struct {
			id    int
			trial *Trial
		}
		entries := make([]entry, 0, sub.Len())
		for _, key := range sub.Keys() {
			id, err := strconv.Atoi(key)
			if err != nil {
				return nil, fmt.Errorf("context %s: cycle key %q is not an integer", context, key)
			}
			node, _ := sub.Get(key)
			trial, ok := node.(*Trial)
			if !ok {
				return nil, fmt.Errorf("context %s cycle %s: expected a trial leaf", context, key)
			}
			entries = append(entries, entry{id: id, trial: trial})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })
		for _, e := range entries {
			if err := tc.AddCycle(context, e.id, e.trial); err != nil {
				return nil, err
			}
		}
	}
	return tc, nil
}
