package rowbind

import (
	"fmt"
	"log/slog"

	"github.com/drpcorg/rowbind/grid"
	"github.com/drpcorg/rowbind/rowbind_errors"
	"github.com/drpcorg/rowbind/utils"
)

type Options struct {
	// NotAnimated turns every change into a reload; the zero value
	// animates.
	NotAnimated bool
	// ReloadsSectionsOnUpdate reloads updated sections and drops their
	// row containers.
	ReloadsSectionsOnUpdate bool

	SectionAnimations grid.Animations
	RowAnimations     grid.Animations

	// TitleFunc overrides the "Section: N" headers; ok=false hides one.
	TitleFunc func(section int) (title string, ok bool)

	// Scheduler runs deferred row subscriptions; sectioned engines need one.
	Scheduler Scheduler
	Log       utils.Logger
	// Name labels the engine in logs and metrics.
	Name string
}

func DefaultOptions() Options {
	return Options{}
}

func (o *Options) SetDefaults() {
	if o.Log == nil {
		o.Log = utils.NewDefaultLogger(slog.LevelWarn)
	}
	if o.TitleFunc == nil {
		o.TitleFunc = DefaultTitle
	}
	if o.Name == "" {
		o.Name = "rowbind"
	}
}

func DefaultTitle(section int) (string, bool) {
	return fmt.Sprintf("Section: %d", section), true
}

// CellFactory renders the cell for one row model.
type CellFactory[R any] func(ds grid.DataSource, g grid.Grid, ip grid.IndexPath, row R) grid.Cell

// CellConfig builds a CellFactory that dequeues a cell of the given kind,
// asserts its type and lets config fill it in. A grid handing out some
// other cell type is a programming error and panics.
func CellConfig[R any, C grid.Cell](kind string, config func(cell C, ip grid.IndexPath, row R)) CellFactory[R] {
	return func(ds grid.DataSource, g grid.Grid, ip grid.IndexPath, row R) grid.Cell {
		cell, ok := g.DequeueCell(kind, ip).(C)
		if !ok {
			panic(fmt.Errorf("%w: kind %q at %s", rowbind_errors.ErrCellType, kind, ip))
		}
		config(cell, ip, row)
		return cell
	}
}
