package store

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash"
	"github.com/google/uuid"

	"github.com/drpcorg/rowbind/rowbind_errors"
)

// RootList is the list of top-level items, the sections of a sectioned view.
var RootList = uuid.Nil

type Item struct {
	ID   uuid.UUID
	Text string
	Rev  uint64
}

func (it Item) String() string {
	return fmt.Sprintf("%s %q r%d", it.ID, it.Text, it.Rev)
}

// LKey is the key of a list: L, then the owner's id.
func LKey(list uuid.UUID) []byte {
	var ret = [17]byte{'L'}
	copy(ret[1:], list[:])
	return ret[:]
}

// OKey is the key of an item body: O, then the item id.
func OKey(id uuid.UUID) []byte {
	var ret = [17]byte{'O'}
	copy(ret[1:], id[:])
	return ret[:]
}

func (it Item) body() []byte {
	var rev [8]byte
	binary.LittleEndian.PutUint64(rev[:], it.Rev)
	body := appendRecord(make([]byte, 0, len(it.Text)+16), 'S', []byte(it.Text))
	return appendRecord(body, 'R', rev[:])
}

func (it Item) hash() uint64 {
	return xxhash.Sum64(it.body())
}

func parseItem(id uuid.UUID, body []byte) (it Item, err error) {
	it.ID = id
	for len(body) > 0 {
		var lit byte
		var field []byte
		lit, field, body, err = takeAny(body)
		if err != nil {
			return
		}
		switch lit {
		case 'S':
			it.Text = string(field)
		case 'R':
			if len(field) != 8 {
				return it, rowbind_errors.ErrBadRecord
			}
			it.Rev = binary.LittleEndian.Uint64(field)
		}
	}
	return
}

func parseList(val []byte) ([]uuid.UUID, error) {
	if len(val)%16 != 0 {
		return nil, rowbind_errors.ErrBadRecord
	}
	ids := make([]uuid.UUID, len(val)/16)
	for i := range ids {
		copy(ids[i][:], val[i*16:])
	}
	return ids, nil
}

func listValue(ids []uuid.UUID) []byte {
	val := make([]byte, 0, len(ids)*16)
	for _, id := range ids {
		val = append(val, id[:]...)
	}
	return val
}
