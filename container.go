package rowbind

// RowContainer tracks the rows of one section. Section is reassigned on
// every renumbering; it is never derived from the store's order, which
// moves independently of what the grid shows.
type RowContainer[S, R any] struct {
	Section int
	Model   S
	Rows    Collection[R]

	rows   Snapshot[R]
	count  int // cached, a section event may race the row event
	active bool
	sub    Subscription
}

func newRowContainer[S, R any](section int, model S, rows Collection[R]) *RowContainer[S, R] {
	snap := rows.Snapshot()
	return &RowContainer[S, R]{
		Section: section,
		Model:   model,
		Rows:    rows,
		rows:    snap,
		count:   snap.Len(),
		active:  true,
	}
}

// Count is the row count as of the last applied row event.
func (c *RowContainer[S, R]) Count() int {
	return c.count
}

func (c *RowContainer[S, R]) Active() bool {
	return c.active
}

func (c *RowContainer[S, R]) Subscribed() bool {
	return c.sub != nil
}

func (c *RowContainer[S, R]) row(i int) (row R, ok bool) {
	if i < 0 || i >= c.count || i >= c.rows.Len() {
		return
	}
	return c.rows.At(i), true
}

// subscribe runs one quantum after creation; a container evicted in
// between never subscribes.
func (c *RowContainer[S, R]) subscribe(fn func(ev Event[R])) {
	if !c.active || c.sub != nil {
		return
	}
	c.sub = c.Rows.Observe(fn)
}

func (c *RowContainer[S, R]) cancel() {
	c.active = false
	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}
}
