package rowbind

import (
	"fmt"
	"slices"
	"sort"
)

// ChangeSet is a structural diff between two snapshots of an ordered
// collection. Inserted and Updated are positions in the new snapshot,
// Deleted are positions in the old one. All three are sorted and unique.
type ChangeSet struct {
	Inserted []int
	Deleted  []int
	Updated  []int
}

func normalize(idx []int) []int {
	if len(idx) == 0 {
		return nil
	}
	idx = slices.Clone(idx)
	slices.Sort(idx)
	return slices.Compact(idx)
}

func NewChangeSet(inserted, deleted, updated []int) *ChangeSet {
	return &ChangeSet{
		Inserted: normalize(inserted),
		Deleted:  normalize(deleted),
		Updated:  normalize(updated),
	}
}

// Validate reports whether the change set can take a collection of
// oldCount elements to newCount ones. A false result means the change
// set must not be applied partially: reload instead.
func (cs *ChangeSet) Validate(oldCount, newCount int) bool {
	if cs == nil {
		return false
	}
	return newCount == oldCount+len(cs.Inserted)-len(cs.Deleted)
}

func (cs *ChangeSet) IsEmpty() bool {
	return cs == nil || len(cs.Inserted)+len(cs.Deleted)+len(cs.Updated) == 0
}

func (cs *ChangeSet) String() string {
	if cs == nil {
		return "<nil>"
	}
	return fmt.Sprintf("+%v -%v ~%v", cs.Inserted, cs.Deleted, cs.Updated)
}

// Diff derives the change set taking old to cur. Keys must be unique
// within each slice. A key that survives but changes its relative order
// is reported as deleted from its old position and inserted at its new
// one; survivors for which changed returns true are reported as updated.
func Diff[K comparable](old, cur []K, changed func(oldIdx, newIdx int) bool) *ChangeSet {
	oldPos := make(map[K]int, len(old))
	for i, k := range old {
		oldPos[k] = i
	}
	cs := &ChangeSet{}

	// old positions of the surviving keys, in cur order
	var seq, seqNew []int
	for j, k := range cur {
		if i, ok := oldPos[k]; ok {
			seq = append(seq, i)
			seqNew = append(seqNew, j)
		} else {
			cs.Inserted = append(cs.Inserted, j)
		}
	}
	stays := longestIncreasing(seq)

	survived := make([]bool, len(old))
	for n, i := range seq {
		j := seqNew[n]
		if stays[n] {
			survived[i] = true
			if changed != nil && changed(i, j) {
				cs.Updated = append(cs.Updated, j)
			}
		} else {
			cs.Inserted = append(cs.Inserted, j)
		}
	}
	for i := range old {
		if !survived[i] {
			cs.Deleted = append(cs.Deleted, i)
		}
	}
	slices.Sort(cs.Inserted)
	return cs
}

// longestIncreasing marks the members of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []bool {
	marks := make([]bool, len(seq))
	if len(seq) == 0 {
		return marks
	}
	tails := make([]int, 0, len(seq)) // positions in seq
	prev := make([]int, len(seq))
	for n, v := range seq {
		k := sort.Search(len(tails), func(t int) bool { return seq[tails[t]] >= v })
		if k > 0 {
			prev[n] = tails[k-1]
		} else {
			prev[n] = -1
		}
		if k == len(tails) {
			tails = append(tails, n)
		} else {
			tails[k] = n
		}
	}
	for n := tails[len(tails)-1]; n >= 0; n = prev[n] {
		marks[n] = true
	}
	return marks
}
