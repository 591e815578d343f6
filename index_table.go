package rowbind

import (
	"maps"
	"slices"
)

// SectionIndexTable maps a section's current index to its row container.
// After every reconciliation its keys are a subset of 0..sections-1 and
// every container's Section equals its key.
type SectionIndexTable[S, R any] struct {
	byIndex map[int]*RowContainer[S, R]
}

func NewSectionIndexTable[S, R any]() *SectionIndexTable[S, R] {
	return &SectionIndexTable[S, R]{byIndex: make(map[int]*RowContainer[S, R])}
}

func (t *SectionIndexTable[S, R]) Get(section int) (c *RowContainer[S, R], ok bool) {
	c, ok = t.byIndex[section]
	return
}

func (t *SectionIndexTable[S, R]) Put(section int, c *RowContainer[S, R]) {
	c.Section = section
	t.byIndex[section] = c
}

func (t *SectionIndexTable[S, R]) Remove(section int) *RowContainer[S, R] {
	c, ok := t.byIndex[section]
	if !ok {
		return nil
	}
	delete(t.byIndex, section)
	return c
}

func (t *SectionIndexTable[S, R]) Len() int {
	return len(t.byIndex)
}

// Indices lists the occupied indices in ascending order.
func (t *SectionIndexTable[S, R]) Indices() []int {
	return slices.Sorted(maps.Keys(t.byIndex))
}

func (t *SectionIndexTable[S, R]) Each(fn func(section int, c *RowContainer[S, R])) {
	for _, section := range t.Indices() {
		fn(section, t.byIndex[section])
	}
}

// Reset empties the table and returns what it held, in index order.
func (t *SectionIndexTable[S, R]) Reset() []*RowContainer[S, R] {
	var all []*RowContainer[S, R]
	t.Each(func(_ int, c *RowContainer[S, R]) {
		all = append(all, c)
	})
	t.byIndex = make(map[int]*RowContainer[S, R])
	return all
}

// Shift renumbers containers for a structural edit at each position in
// changes: every container at an index >= the position moves by shift.
// Each step builds a fresh map, the half-renumbered state is never stored.
// Deletions (shift -1) take positions descending, insertions (+1)
// ascending, so every position is read in the coordinates it was
// reported in.
func (t *SectionIndexTable[S, R]) Shift(changes []int, shift int) {
	if len(changes) == 0 {
		return
	}
	order := slices.Clone(changes)
	slices.Sort(order)
	if shift < 0 {
		slices.Reverse(order)
	}
	for _, at := range order {
		shifted := make(map[int]*RowContainer[S, R], len(t.byIndex))
		for section, c := range t.byIndex {
			if section >= at {
				section += shift
			}
			c.Section = section
			shifted[section] = c
		}
		t.byIndex = shifted
	}
}
