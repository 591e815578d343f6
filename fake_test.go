package rowbind

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/drpcorg/rowbind/grid"
	"github.com/drpcorg/rowbind/loop"
	"github.com/drpcorg/rowbind/utils"
)

// liveList is an in-memory Collection delivering events on a loop.
type liveList[T any] struct {
	l        *loop.Loop
	items    []T
	subs     map[int]func(Event[T])
	next     int
	observed int
}

func newLiveList[T any](l *loop.Loop, items ...T) *liveList[T] {
	return &liveList[T]{l: l, items: items, subs: make(map[int]func(Event[T]))}
}

func (ll *liveList[T]) Snapshot() Snapshot[T] {
	return SliceSnapshot[T](slices.Clone(ll.items))
}

func (ll *liveList[T]) Observe(fn func(Event[T])) Subscription {
	id := ll.next
	ll.next++
	ll.subs[id] = fn
	ll.observed++
	ll.post(id, Event[T]{Snapshot: ll.Snapshot()})
	return SubscriptionFunc(func() { delete(ll.subs, id) })
}

func (ll *liveList[T]) post(id int, ev Event[T]) {
	_ = ll.l.Post(func() {
		if fn, ok := ll.subs[id]; ok {
			fn(ev)
		}
	})
}

func (ll *liveList[T]) subscribers() int {
	return len(ll.subs)
}

// mutate changes the live state now and returns the notification to be
// delivered later, which is how a store racing two collections looks.
func (ll *liveList[T]) mutate(items []T, cs *ChangeSet) (deliver func()) {
	ll.items = items
	ev := Event[T]{Snapshot: ll.Snapshot(), Changes: cs}
	return func() {
		for _, id := range slices.Sorted(maps.Keys(ll.subs)) {
			ll.post(id, ev)
		}
	}
}

func (ll *liveList[T]) set(items []T, cs *ChangeSet) {
	ll.mutate(items, cs)()
}

type testSection struct {
	name string
	rows *liveList[string]
}

func quietLog() utils.Logger {
	return utils.NewDefaultLogger(slog.LevelError)
}

func textCells() CellFactory[string] {
	return CellConfig("Cell", func(cell *grid.TextCell, ip grid.IndexPath, row string) {
		cell.Text = row
	})
}

type sectionedFixture struct {
	l      *loop.Loop
	secs   *liveList[testSection]
	e      *Sectioned[testSection, string]
	g      *grid.Recorder
	opened map[string]int
	byName map[string]*liveList[string]
}

func newSectionedFixture(opts Options, sections ...string) *sectionedFixture {
	f := &sectionedFixture{
		l:      loop.New(),
		opened: make(map[string]int),
		byName: make(map[string]*liveList[string]),
	}
	var secs []testSection
	for _, name := range sections {
		secs = append(secs, f.section(name, name+"1", name+"2"))
	}
	f.secs = newLiveList(f.l, secs...)
	opts.Scheduler = f.l
	opts.Log = quietLog()
	e, err := NewSectioned[testSection, string](opts, textCells(), func(s testSection) Collection[string] {
		f.opened[s.name]++
		return s.rows
	})
	if err != nil {
		panic(err)
	}
	f.e = e
	f.g = grid.NewRecorder(e)
	e.Bind(f.g, f.secs)
	f.l.Flush()
	return f
}

func (f *sectionedFixture) section(name string, rows ...string) testSection {
	ll := newLiveList(f.l, rows...)
	f.byName[name] = ll
	return testSection{name: name, rows: ll}
}

func (f *sectionedFixture) container(t interface{ Fatalf(string, ...any) }, section int) *RowContainer[testSection, string] {
	c, ok := f.e.Table().Get(section)
	if !ok {
		t.Fatalf("no container at %d", section)
	}
	return c
}
