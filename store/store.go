// Package store keeps ordered lists of items in pebble and publishes
// their changesets as rowbind collections. Writes are serialized on one
// writer goroutine; events are re-delivered on the consumer's loop.
package store

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/drpcorg/rowbind"
	"github.com/drpcorg/rowbind/loop"
	"github.com/drpcorg/rowbind/rowbind_errors"
	"github.com/drpcorg/rowbind/utils"
)

type Options struct {
	pebble.Options

	// Loop receives every event; required.
	Loop *loop.Loop
	Log  utils.Logger
	// QueueLen bounds the pending writes of WriteAsync.
	QueueLen int
}

func (o *Options) SetDefaults() {
	if o.Log == nil {
		o.Log = utils.NewDefaultLogger(slog.LevelWarn)
	}
	if o.QueueLen == 0 {
		o.QueueLen = 64
	}
}

type write struct {
	fn   func(tx *Tx) error
	done chan error
}

type Store struct {
	db   *pebble.DB
	dir  string
	opts Options
	log  utils.Logger
	loop *loop.Loop

	lists *xsync.MapOf[uuid.UUID, *List]

	lock   sync.RWMutex
	closed bool
	writes chan write
	wg     sync.WaitGroup
}

func Open(dir string, opts Options) (*Store, error) {
	if opts.Loop == nil {
		return nil, errors.New("store: no loop to deliver events on")
	}
	opts.SetDefaults()
	db, err := pebble.Open(dir, &opts.Options)
	if err != nil {
		return nil, err
	}
	s := &Store{
		db:     db,
		dir:    dir,
		opts:   opts,
		log:    opts.Log.With("store", dir),
		loop:   opts.Loop,
		lists:  xsync.NewMapOf[uuid.UUID, *List](),
		writes: make(chan write, opts.QueueLen),
	}
	s.wg.Add(1)
	go s.writer()
	return s, nil
}

func (s *Store) Close() error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return rowbind_errors.ErrClosed
	}
	s.closed = true
	close(s.writes)
	s.lock.Unlock()

	s.wg.Wait()
	return s.db.Close()
}

func (s *Store) Database() *pebble.DB {
	return s.db
}

func (s *Store) enqueue(w write) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		return rowbind_errors.ErrClosed
	}
	s.writes <- w
	return nil
}

// Write runs fn in a transaction on the writer goroutine and waits for
// the commit. Nothing is written if fn fails. fn must not call Write.
func (s *Store) Write(fn func(tx *Tx) error) error {
	done := make(chan error, 1)
	if err := s.enqueue(write{fn: fn, done: done}); err != nil {
		return err
	}
	return <-done
}

// WriteAsync queues fn without waiting; a failure is only logged.
func (s *Store) WriteAsync(fn func(tx *Tx) error) error {
	return s.enqueue(write{fn: fn})
}

func (s *Store) writer() {
	defer s.wg.Done()
	for w := range s.writes {
		err := s.apply(w.fn)
		if w.done != nil {
			w.done <- err
		} else if err != nil {
			s.log.Warn("async write failed", "err", err)
		}
	}
}

func (s *Store) apply(fn func(tx *Tx) error) error {
	tx := newTx(s)
	defer tx.batch.Close()
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.lists) == 0 {
		return nil
	}
	if err := tx.flush(); err != nil {
		return err
	}
	if err := tx.batch.Commit(pebble.Sync); err != nil {
		return err
	}
	CommitCount.Inc()
	s.publish(tx)
	return nil
}

// publish diffs every list the transaction touched and hands the
// changesets to the observers of that list.
func (s *Store) publish(tx *Tx) {
	for id, cur := range tx.lists {
		l, ok := s.lists.Load(id)
		if !ok || l.subs.Size() == 0 {
			continue
		}
		before := tx.before[id]
		cs := rowbind.Diff(before.ids, cur, func(oi, ni int) bool {
			it, _ := tx.item(cur[ni])
			return before.hashes[oi] != it.hash()
		})
		if cs.IsEmpty() {
			continue
		}
		snap := make(rowbind.SliceSnapshot[Item], 0, len(cur))
		for _, iid := range cur {
			it, _ := tx.item(iid)
			snap = append(snap, it)
		}
		s.log.Debug("publish", "list", id, "changes", cs.String())
		l.publish(rowbind.Event[Item]{Snapshot: snap, Changes: cs})
	}
}

// List returns the live collection of the list owned by id; RootList for
// the top level.
func (s *Store) List(id uuid.UUID) *List {
	l, _ := s.lists.LoadOrCompute(id, func() *List {
		return &List{
			s:    s,
			id:   id,
			subs: xsync.NewMapOf[uint64, func(rowbind.Event[Item])](),
		}
	})
	return l
}

// Children is the row accessor of a sectioned view over RootList.
func (s *Store) Children(item Item) rowbind.Collection[Item] {
	return s.List(item.ID)
}

// Items reads the committed state of a list.
func (s *Store) Items(list uuid.UUID) ([]Item, error) {
	snap := s.db.NewSnapshot()
	defer snap.Close()
	ids, err := readList(snap, list)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		it, err := readItem(snap, id)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func readList(r pebble.Reader, list uuid.UUID) ([]uuid.UUID, error) {
	val, closer, err := r.Get(LKey(list))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	defer closer.Close()
	return parseList(val)
}

func readItem(r pebble.Reader, id uuid.UUID) (Item, error) {
	val, closer, err := r.Get(OKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Item{}, rowbind_errors.ErrItemUnknown
	} else if err != nil {
		return Item{}, err
	}
	defer closer.Close()
	return parseItem(id, val)
}
