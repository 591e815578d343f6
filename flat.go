package rowbind

import (
	"github.com/drpcorg/rowbind/grid"
	"github.com/drpcorg/rowbind/rowbind_errors"
	"github.com/drpcorg/rowbind/utils"
)

// Flat is the single-section sibling of Sectioned: one implicit section,
// one row container, no renumbering.
type Flat[R any] struct {
	opts    Options
	log     utils.Logger
	cells   CellFactory[R]
	titled  bool
	g       grid.Grid
	state   State
	sub     Subscription
	binding uint64
	rows    *RowContainer[struct{}, R]
}

func NewFlat[R any](opts Options, cells CellFactory[R]) *Flat[R] {
	titled := opts.TitleFunc != nil
	opts.SetDefaults()
	return &Flat[R]{
		opts:   opts,
		log:    opts.Log.With("engine", opts.Name),
		cells:  cells,
		titled: titled,
	}
}

func (f *Flat[R]) State() State {
	return f.state
}

func (f *Flat[R]) bindGrid(g grid.Grid) {
	if f.g == nil {
		f.g = g
		return
	}
	if f.g != g {
		panic(rowbind_errors.ErrForeignGrid)
	}
}

// Bind subscribes to rows and routes its events into OnEvent. Cancelling
// the returned subscription closes the engine, unless a later Bind has
// replaced it.
func (f *Flat[R]) Bind(g grid.Grid, rows Collection[R]) Subscription {
	f.bindGrid(g)
	if f.sub != nil {
		f.sub.Cancel()
	}
	f.binding++
	binding := f.binding
	f.sub = rows.Observe(func(ev Event[R]) {
		f.OnEvent(g, ev)
	})
	return SubscriptionFunc(func() {
		if f.binding == binding && f.sub != nil {
			f.Close()
		}
	})
}

func (f *Flat[R]) Close() {
	if f.sub != nil {
		f.sub.Cancel()
		f.sub = nil
	}
	if f.rows != nil {
		f.rows.cancel()
		f.rows = nil
	}
	f.state = Unbound
	f.g = nil
}

// OnEvent reconciles one rows notification.
func (f *Flat[R]) OnEvent(g grid.Grid, ev Event[R]) {
	f.bindGrid(g)
	if f.rows == nil {
		f.rows = &RowContainer[struct{}, R]{active: true}
	}
	prev := f.rows.count
	f.rows.rows = ev.Snapshot
	f.rows.count = ev.Snapshot.Len()

	if f.state == Unbound {
		f.state = Bound
		f.reload(reasonInitial)
		return
	}
	if !g.Attached() {
		f.reload(reasonDetached)
		return
	}
	cs := ev.Changes
	switch {
	case f.opts.NotAnimated:
		f.reload(reasonNotAnimated)
		return
	case cs == nil:
		f.reload(reasonNoChanges)
		return
	case !cs.Validate(prev, f.rows.count):
		f.log.Debug("row changes do not add up",
			"cached", prev, "count", f.rows.count, "changes", cs.String())
		f.reload(reasonCount)
		return
	}

	anims := f.opts.RowAnimations
	g.BeginUpdates()
	g.DeleteRows(grid.Paths(0, cs.Deleted), anims.Delete)
	g.InsertRows(grid.Paths(0, cs.Inserted), anims.Insert)
	g.ReloadRows(grid.Paths(0, cs.Updated), anims.Update)
	g.EndUpdates()
	BatchCount.WithLabelValues(f.opts.Name, "rows").Inc()
}

func (f *Flat[R]) reload(reason string) {
	f.log.Debug("full reload", "reason", reason, "rows", f.rows.count)
	ReloadCount.WithLabelValues(f.opts.Name, reason).Inc()
	f.g.ReloadData()
}

// grid.DataSource

func (f *Flat[R]) NumberOfSections() int {
	return 1
}

func (f *Flat[R]) NumberOfRows(section int) int {
	if section != 0 || f.rows == nil {
		return 0
	}
	return f.rows.count
}

func (f *Flat[R]) Cell(g grid.Grid, ip grid.IndexPath) grid.Cell {
	row, err := f.Model(ip)
	if err != nil {
		f.log.Error("cell requested off the model", "path", ip.String(), "err", err)
		return nil
	}
	return f.cells(f, g, ip, row)
}

func (f *Flat[R]) TitleForSection(section int) (string, bool) {
	if !f.titled {
		return "", false
	}
	return f.opts.TitleFunc(section)
}

func (f *Flat[R]) Model(ip grid.IndexPath) (row R, err error) {
	if ip.Section != 0 || f.rows == nil {
		err = rowbind_errors.ErrIndexOutOfRange
		return
	}
	row, ok := f.rows.row(ip.Row)
	if !ok {
		err = rowbind_errors.ErrIndexOutOfRange
	}
	return
}
