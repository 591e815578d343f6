// Package grid defines the abstract list/table widget a binding engine
// drives: counts it remembers from the last layout pass, batched
// structural edits and cell dequeuing.
package grid

import "fmt"

type IndexPath struct {
	Section int
	Row     int
}

func (ip IndexPath) String() string {
	return fmt.Sprintf("[%d, %d]", ip.Section, ip.Row)
}

// Animation is a transition hint; the grid decides how to render it.
type Animation int

const (
	Automatic Animation = iota
	None
	Fade
	Top
	Bottom
	Left
	Right
	Middle
)

var animationNames = [...]string{"automatic", "none", "fade", "top", "bottom", "left", "right", "middle"}

func (a Animation) String() string {
	if a < 0 || int(a) >= len(animationNames) {
		return fmt.Sprintf("animation(%d)", int(a))
	}
	return animationNames[a]
}

// Animations holds one hint per operation kind, zero value is all Automatic.
type Animations struct {
	Insert Animation
	Update Animation
	Delete Animation
}

// Cell is whatever the concrete grid renders for one row.
type Cell any

type Grid interface {
	// Attached reports whether the grid is in a visible hierarchy;
	// structural deltas must not be sent to a detached grid.
	Attached() bool
	ReloadData()

	// NumberOfSections and NumberOfRows return the counts the grid
	// believes it displays, i.e. as of its last reload or batch.
	NumberOfSections() int
	NumberOfRows(section int) int

	BeginUpdates()
	EndUpdates()
	DeleteSections(sections []int, anim Animation)
	InsertSections(sections []int, anim Animation)
	ReloadSections(sections []int, anim Animation)
	DeleteRows(paths []IndexPath, anim Animation)
	InsertRows(paths []IndexPath, anim Animation)
	ReloadRows(paths []IndexPath, anim Animation)

	DequeueCell(kind string, ip IndexPath) Cell
}

// DataSource is what a grid asks while laying out.
type DataSource interface {
	NumberOfSections() int
	NumberOfRows(section int) int
	Cell(g Grid, ip IndexPath) Cell
	TitleForSection(section int) (string, bool)
}

func Paths(section int, rows []int) []IndexPath {
	paths := make([]IndexPath, 0, len(rows))
	for _, row := range rows {
		paths = append(paths, IndexPath{Section: section, Row: row})
	}
	return paths
}
