package rowbind

// Snapshot is an immutable, indexable view of a collection at one instant.
type Snapshot[T any] interface {
	Len() int
	At(i int) T
}

type SliceSnapshot[T any] []T

func (s SliceSnapshot[T]) Len() int {
	return len(s)
}

func (s SliceSnapshot[T]) At(i int) T {
	return s[i]
}

// Event is one notification of an observed collection. The first event
// of a subscription carries nil Changes, meaning "reload everything".
type Event[T any] struct {
	Snapshot Snapshot[T]
	Changes  *ChangeSet
}

type Subscription interface {
	Cancel()
}

// Collection is a live collection owned by a store. Snapshot returns the
// current state, which may be ahead of the events delivered so far.
// Observe delivers events on the store's consumption context.
type Collection[T any] interface {
	Snapshot() Snapshot[T]
	Observe(fn func(ev Event[T])) Subscription
}

// RowsFunc gives the row collection of a section.
type RowsFunc[S, R any] func(section S) Collection[R]

// Scheduler defers a task to the next quantum of the consumption context.
type Scheduler interface {
	Post(task func()) error
}

type SubscriptionFunc func()

func (f SubscriptionFunc) Cancel() {
	f()
}
