package store

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/drpcorg/rowbind"
)

// List is the live view of one stored list. Snapshot reads committed
// state, which may run ahead of the events already delivered.
type List struct {
	s    *Store
	id   uuid.UUID
	subs *xsync.MapOf[uint64, func(rowbind.Event[Item])]
	next atomic.Uint64
	// orders initial events against published ones
	lock sync.Mutex
}

func (l *List) ID() uuid.UUID {
	return l.id
}

func (l *List) Snapshot() rowbind.Snapshot[Item] {
	items, err := l.s.Items(l.id)
	if err != nil {
		l.s.log.Error("cannot read list", "list", l.id, "err", err)
	}
	return rowbind.SliceSnapshot[Item](items)
}

// Observe delivers the current contents, then every committed change,
// on the store's loop. The first event has no changes.
func (l *List) Observe(fn func(rowbind.Event[Item])) rowbind.Subscription {
	id := l.next.Add(1)
	l.lock.Lock()
	l.subs.Store(id, fn)
	l.post(id, rowbind.Event[Item]{Snapshot: l.Snapshot()})
	l.lock.Unlock()
	return rowbind.SubscriptionFunc(func() {
		l.subs.Delete(id)
	})
}

func (l *List) publish(ev rowbind.Event[Item]) {
	l.lock.Lock()
	defer l.lock.Unlock()
	var ids []uint64
	l.subs.Range(func(id uint64, _ func(rowbind.Event[Item])) bool {
		ids = append(ids, id)
		return true
	})
	slices.Sort(ids)
	for _, id := range ids {
		l.post(id, ev)
	}
}

// post re-checks the subscription on delivery: events of a cancelled
// subscription are dropped even when already queued.
func (l *List) post(id uint64, ev rowbind.Event[Item]) {
	err := l.s.loop.Post(func() {
		if fn, ok := l.subs.Load(id); ok {
			fn(ev)
		}
	})
	if err != nil {
		l.s.log.Debug("event not delivered", "list", l.id, "err", err)
		return
	}
	EventCount.Inc()
}
