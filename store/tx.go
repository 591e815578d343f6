package store

import (
	"slices"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"github.com/drpcorg/rowbind/rowbind_errors"
)

type listState struct {
	ids    []uuid.UUID
	hashes []uint64
}

// Tx is one serialized write. It reads committed state through the db,
// stages edits in memory and writes them to a single batch on commit.
type Tx struct {
	s     *Store
	batch *pebble.Batch

	lists   map[uuid.UUID][]uuid.UUID
	before  map[uuid.UUID]listState
	items   map[uuid.UUID]Item
	dirty   map[uuid.UUID]bool
	removed map[uuid.UUID]bool
}

func newTx(s *Store) *Tx {
	return &Tx{
		s:       s,
		batch:   s.db.NewBatch(),
		lists:   make(map[uuid.UUID][]uuid.UUID),
		before:  make(map[uuid.UUID]listState),
		items:   make(map[uuid.UUID]Item),
		dirty:   make(map[uuid.UUID]bool),
		removed: make(map[uuid.UUID]bool),
	}
}

func (tx *Tx) item(id uuid.UUID) (Item, error) {
	if tx.removed[id] {
		return Item{}, rowbind_errors.ErrItemUnknown
	}
	if it, ok := tx.items[id]; ok {
		return it, nil
	}
	it, err := readItem(tx.s.db, id)
	if err != nil {
		return Item{}, err
	}
	tx.items[id] = it
	return it, nil
}

func (tx *Tx) list(id uuid.UUID) ([]uuid.UUID, error) {
	if ids, ok := tx.lists[id]; ok {
		return ids, nil
	}
	if id != RootList {
		if _, err := tx.item(id); err != nil {
			return nil, rowbind_errors.ErrUnknownList
		}
	}
	ids, err := readList(tx.s.db, id)
	if err != nil {
		return nil, err
	}
	state := listState{ids: ids, hashes: make([]uint64, 0, len(ids))}
	for _, iid := range ids {
		it, err := tx.item(iid)
		if err != nil {
			return nil, err
		}
		state.hashes = append(state.hashes, it.hash())
	}
	tx.before[id] = state
	tx.lists[id] = slices.Clone(ids)
	return tx.lists[id], nil
}

// Len returns the length of list as staged in this transaction.
func (tx *Tx) Len(list uuid.UUID) (int, error) {
	ids, err := tx.list(list)
	return len(ids), err
}

// At returns the item at idx of list.
func (tx *Tx) At(list uuid.UUID, idx int) (Item, error) {
	ids, err := tx.list(list)
	if err != nil {
		return Item{}, err
	}
	if idx < 0 || idx >= len(ids) {
		return Item{}, rowbind_errors.ErrBadIndex
	}
	return tx.item(ids[idx])
}

// Insert creates an item with a fresh v7 id at idx of list; idx equal to
// the length appends.
func (tx *Tx) Insert(list uuid.UUID, idx int, text string) (Item, error) {
	if tx.removed[list] {
		return Item{}, rowbind_errors.ErrUnknownList
	}
	ids, err := tx.list(list)
	if err != nil {
		return Item{}, err
	}
	if idx < 0 || idx > len(ids) {
		return Item{}, rowbind_errors.ErrBadIndex
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Item{}, err
	}
	it := Item{ID: id, Text: text}
	tx.items[id] = it
	tx.dirty[id] = true
	tx.lists[list] = slices.Insert(ids, idx, id)
	return it, nil
}

// Update replaces the text of the item at idx and bumps its revision.
func (tx *Tx) Update(list uuid.UUID, idx int, text string) (Item, error) {
	it, err := tx.At(list, idx)
	if err != nil {
		return Item{}, err
	}
	it.Text = text
	it.Rev++
	tx.items[it.ID] = it
	tx.dirty[it.ID] = true
	return it, nil
}

// Remove drops the item at idx together with the list it owns.
func (tx *Tx) Remove(list uuid.UUID, idx int) (Item, error) {
	it, err := tx.At(list, idx)
	if err != nil {
		return Item{}, err
	}
	children, err := tx.list(it.ID)
	if err != nil {
		return Item{}, err
	}
	for len(children) > 0 {
		if _, err = tx.Remove(it.ID, len(children)-1); err != nil {
			return Item{}, err
		}
		children = tx.lists[it.ID]
	}
	tx.lists[list] = slices.Delete(tx.lists[list], idx, idx+1)
	tx.removed[it.ID] = true
	delete(tx.dirty, it.ID)
	return it, nil
}

func (tx *Tx) flush() error {
	for id, ids := range tx.lists {
		var err error
		if tx.removed[id] || len(ids) == 0 {
			err = tx.batch.Delete(LKey(id), nil)
		} else {
			err = tx.batch.Set(LKey(id), listValue(ids), nil)
		}
		if err != nil {
			return err
		}
	}
	for id := range tx.dirty {
		if err := tx.batch.Set(OKey(id), tx.items[id].body(), nil); err != nil {
			return err
		}
	}
	for id := range tx.removed {
		if err := tx.batch.Delete(OKey(id), nil); err != nil {
			return err
		}
	}
	return nil
}
