package rowbind

import (
	"github.com/drpcorg/rowbind/grid"
	"github.com/drpcorg/rowbind/rowbind_errors"
	"github.com/drpcorg/rowbind/utils"
)

type State int

const (
	Unbound State = iota
	Bound
)

func (s State) String() string {
	if s == Bound {
		return "bound"
	}
	return "unbound"
}

// Sectioned keeps a sectioned grid in sync with a live collection of
// sections S, each owning a live collection of rows R. It is a
// synchronous reducer driven from one consumption context; it never
// blocks and is not safe for concurrent use.
//
// Section events come through OnSectionsEvent (or Bind). Row collections
// are opened lazily, the first time the grid asks about a section, and
// subscribed one scheduler quantum later. Any notification that does not
// add up against what the grid shows degrades to a reload.
type Sectioned[S, R any] struct {
	opts   Options
	log    utils.Logger
	cells  CellFactory[R]
	rowsOf RowsFunc[S, R]

	g     grid.Grid
	state State

	source        Collection[S]
	sub           Subscription
	binding       uint64
	sections      Snapshot[S]
	sectionsCount int // cached: rows may be notified before sections

	table *SectionIndexTable[S, R]
}

func NewSectioned[S, R any](opts Options, cells CellFactory[R], rowsOf RowsFunc[S, R]) (*Sectioned[S, R], error) {
	if opts.Scheduler == nil {
		return nil, rowbind_errors.ErrNoScheduler
	}
	opts.SetDefaults()
	return &Sectioned[S, R]{
		opts:   opts,
		log:    opts.Log.With("engine", opts.Name),
		cells:  cells,
		rowsOf: rowsOf,
		table:  NewSectionIndexTable[S, R](),
	}, nil
}

func (e *Sectioned[S, R]) State() State {
	return e.state
}

func (e *Sectioned[S, R]) Options() Options {
	return e.opts
}

func (e *Sectioned[S, R]) Table() *SectionIndexTable[S, R] {
	return e.table
}

func (e *Sectioned[S, R]) bindGrid(g grid.Grid) {
	if e.g == nil {
		e.g = g
		return
	}
	if e.g != g {
		panic(rowbind_errors.ErrForeignGrid)
	}
}

// Bind subscribes to the sections collection and routes its events into
// OnSectionsEvent. The live collection also serves as the reference for
// detecting row events that outran their section event. Cancelling the
// returned subscription closes the engine, unless a later Bind has
// replaced it.
func (e *Sectioned[S, R]) Bind(g grid.Grid, sections Collection[S]) Subscription {
	e.bindGrid(g)
	if e.sub != nil {
		e.sub.Cancel()
	}
	e.binding++
	binding := e.binding
	e.source = sections
	e.sub = sections.Observe(func(ev Event[S]) {
		e.OnSectionsEvent(g, ev)
	})
	return SubscriptionFunc(func() {
		if e.binding == binding && e.sub != nil {
			e.Close()
		}
	})
}

// Close cancels every row subscription and the sections subscription and
// returns the engine to Unbound.
func (e *Sectioned[S, R]) Close() {
	if e.sub != nil {
		e.sub.Cancel()
		e.sub = nil
	}
	e.resetContainers()
	e.state = Unbound
	e.source = nil
	e.sections = nil
	e.sectionsCount = 0
	e.g = nil
}

// OnSectionsEvent reconciles one sections notification.
func (e *Sectioned[S, R]) OnSectionsEvent(g grid.Grid, ev Event[S]) {
	e.bindGrid(g)
	e.sections = ev.Snapshot
	e.sectionsCount = ev.Snapshot.Len()

	if e.state == Unbound {
		e.state = Bound
		e.reloadAll(reasonInitial)
		return
	}
	cs := ev.Changes
	switch {
	case cs == nil:
		e.reloadAll(reasonNoChanges)
		return
	case !cs.Validate(g.NumberOfSections(), e.sectionsCount):
		e.log.Debug("section changes do not add up",
			"shown", g.NumberOfSections(), "count", e.sectionsCount, "changes", cs.String())
		e.reloadAll(reasonCount)
		return
	}

	// the changes add up: containers follow them even when the grid
	// reloads instead of animating
	for _, section := range cs.Deleted {
		if c := e.table.Remove(section); c != nil {
			c.cancel()
		}
	}
	e.table.Shift(cs.Deleted, -1)
	e.table.Shift(cs.Inserted, +1)
	if e.opts.ReloadsSectionsOnUpdate {
		for _, section := range cs.Updated {
			// nothing to invalidate when the section has no rows open
			if c := e.table.Remove(section); c != nil {
				c.cancel()
			}
		}
	}
	e.updateGauge()

	// batch updates on a grid outside the hierarchy are unsafe
	if !g.Attached() {
		e.reload(reasonDetached)
		return
	}
	if e.opts.NotAnimated {
		e.reload(reasonNotAnimated)
		return
	}

	anims := e.opts.SectionAnimations
	g.BeginUpdates()
	g.DeleteSections(cs.Deleted, anims.Delete)
	g.InsertSections(cs.Inserted, anims.Insert)
	if e.opts.ReloadsSectionsOnUpdate {
		g.ReloadSections(cs.Updated, anims.Update)
	}
	g.EndUpdates()
	BatchCount.WithLabelValues(e.opts.Name, "sections").Inc()
}

// RowContainer returns the container of a section, opening the section's
// row collection on first use. The subscription to row changes starts
// one scheduler quantum later, once the current reconciliation is over.
func (e *Sectioned[S, R]) RowContainer(section int) (*RowContainer[S, R], error) {
	if c, ok := e.table.Get(section); ok {
		return c, nil
	}
	if e.state != Bound || e.sections == nil {
		return nil, rowbind_errors.ErrNotBound
	}
	if section < 0 || section >= e.sections.Len() {
		return nil, rowbind_errors.ErrIndexOutOfRange
	}
	model := e.sections.At(section)
	c := newRowContainer[S, R](section, model, e.rowsOf(model))
	e.table.Put(section, c)
	e.updateGauge()

	err := e.opts.Scheduler.Post(func() {
		c.subscribe(func(ev Event[R]) {
			e.onRowsEvent(c, ev)
		})
	})
	if err != nil {
		e.log.Warn("cannot schedule row subscription", "section", section, "err", err)
	}
	return c, nil
}

func (e *Sectioned[S, R]) actualSections() Snapshot[S] {
	if e.source != nil {
		return e.source.Snapshot()
	}
	return e.sections
}

func (e *Sectioned[S, R]) onRowsEvent(c *RowContainer[S, R], ev Event[R]) {
	if !c.Active() || e.state != Bound {
		DroppedEvents.WithLabelValues(e.opts.Name).Inc()
		return
	}
	prev := c.count
	c.rows = ev.Snapshot
	c.count = ev.Snapshot.Len()

	// rows notified before their sections: the table may be stale
	if actual := e.actualSections(); actual.Len() != e.sectionsCount {
		e.log.Debug("row event outran section event",
			"believed", e.sectionsCount, "actual", actual.Len())
		e.sections = actual
		e.sectionsCount = actual.Len()
		e.reloadAll(reasonRace)
		return
	}
	g := e.g
	if !g.Attached() {
		e.reload(reasonDetached)
		return
	}

	section := c.Section
	cs := ev.Changes
	switch {
	case e.opts.NotAnimated:
		e.reloadSection(section, reasonNotAnimated)
		return
	case cs == nil:
		e.reloadSection(section, reasonNoChanges)
		return
	case !cs.Validate(prev, c.count):
		e.log.Debug("row changes do not add up",
			"section", section, "cached", prev, "count", c.count, "changes", cs.String())
		e.reloadSection(section, reasonCount)
		return
	}

	anims := e.opts.RowAnimations
	g.BeginUpdates()
	g.DeleteRows(grid.Paths(section, cs.Deleted), anims.Delete)
	g.InsertRows(grid.Paths(section, cs.Inserted), anims.Insert)
	g.ReloadRows(grid.Paths(section, cs.Updated), anims.Update)
	g.EndUpdates()
	BatchCount.WithLabelValues(e.opts.Name, "rows").Inc()
}

// reloadAll drops every row container, their indices can not be trusted
// against the new snapshot, and reloads the grid. The grid reopens the
// sections it shows.
func (e *Sectioned[S, R]) reloadAll(reason string) {
	e.resetContainers()
	e.reload(reason)
}

// reload keeps the containers; the caller has renumbered them already.
func (e *Sectioned[S, R]) reload(reason string) {
	e.log.Debug("full reload", "reason", reason, "sections", e.sectionsCount)
	ReloadCount.WithLabelValues(e.opts.Name, reason).Inc()
	e.g.ReloadData()
}

func (e *Sectioned[S, R]) reloadSection(section int, reason string) {
	e.log.Debug("section reload", "reason", reason, "section", section)
	ReloadCount.WithLabelValues(e.opts.Name, reason).Inc()
	e.g.ReloadSections([]int{section}, e.opts.SectionAnimations.Update)
}

func (e *Sectioned[S, R]) resetContainers() {
	for _, c := range e.table.Reset() {
		c.cancel()
	}
	e.updateGauge()
}

func (e *Sectioned[S, R]) updateGauge() {
	ContainerCount.WithLabelValues(e.opts.Name).Set(float64(e.table.Len()))
}

// grid.DataSource

func (e *Sectioned[S, R]) NumberOfSections() int {
	return e.sectionsCount
}

func (e *Sectioned[S, R]) NumberOfRows(section int) int {
	c, err := e.RowContainer(section)
	if err != nil {
		return 0
	}
	return c.Count()
}

func (e *Sectioned[S, R]) Cell(g grid.Grid, ip grid.IndexPath) grid.Cell {
	row, err := e.Model(ip)
	if err != nil {
		e.log.Error("cell requested off the model", "path", ip.String(), "err", err)
		return nil
	}
	return e.cells(e, g, ip, row)
}

func (e *Sectioned[S, R]) TitleForSection(section int) (string, bool) {
	return e.opts.TitleFunc(section)
}

// Model returns the row shown at ip, for selection handling.
func (e *Sectioned[S, R]) Model(ip grid.IndexPath) (row R, err error) {
	c, err := e.RowContainer(ip.Section)
	if err != nil {
		return
	}
	row, ok := c.row(ip.Row)
	if !ok {
		err = rowbind_errors.ErrIndexOutOfRange
	}
	return
}

// Section returns the section model shown at index section.
func (e *Sectioned[S, R]) Section(section int) (s S, err error) {
	if e.sections == nil || section < 0 || section >= e.sectionsCount || section >= e.sections.Len() {
		err = rowbind_errors.ErrIndexOutOfRange
		return
	}
	return e.sections.At(section), nil
}
