// Package workload generates a steady stream of random edits against a
// store list, so that a bound view has something to animate.
package workload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drpcorg/rowbind/store"
	"github.com/drpcorg/rowbind/utils"
)

var ErrEmpty = errors.New("workload: list is empty")

var words = []string{
	"amber", "birch", "cedar", "delta", "ember", "fjord", "grove", "heron",
	"iris", "juniper", "kelp", "lotus", "maple", "nectar", "opal", "pine",
}

const seedInserts = 5

type Randomizer struct {
	Store *store.Store
	List  uuid.UUID

	// Create and Update run on the randomizer's goroutine after the
	// commit; a sectioned demo uses Create to start a child randomizer.
	Create func(it store.Item)
	Update func(it store.Item)

	InsertEvery time.Duration
	UpdateEvery time.Duration
	DeleteEvery time.Duration

	Seed uint64
	Log  utils.Logger

	lock   sync.Mutex
	rnd    *rand.Rand
	serial int
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (r *Randomizer) setDefaults() {
	if r.InsertEvery == 0 {
		r.InsertEvery = time.Second
	}
	if r.UpdateEvery == 0 {
		r.UpdateEvery = time.Second
	}
	if r.DeleteEvery == 0 {
		r.DeleteEvery = 3400 * time.Millisecond
	}
	if r.Log == nil {
		r.Log = utils.NewDefaultLogger(slog.LevelWarn)
	}
	if r.rnd == nil {
		r.rnd = rand.New(rand.NewPCG(r.Seed, r.Seed^0x9e3779b97f4a7c15))
	}
}

func (r *Randomizer) text() string {
	r.serial++
	return fmt.Sprintf("%s %d", words[r.rnd.IntN(len(words))], r.serial)
}

func (r *Randomizer) InsertRow() (it store.Item, err error) {
	r.lock.Lock()
	r.setDefaults()
	err = r.Store.Write(func(tx *store.Tx) error {
		n, err := tx.Len(r.List)
		if err != nil {
			return err
		}
		it, err = tx.Insert(r.List, r.rnd.IntN(n+1), r.text())
		return err
	})
	r.lock.Unlock()
	if err == nil && r.Create != nil {
		r.Create(it)
	}
	return
}

func (r *Randomizer) UpdateRow() (it store.Item, err error) {
	r.lock.Lock()
	r.setDefaults()
	err = r.Store.Write(func(tx *store.Tx) error {
		n, err := tx.Len(r.List)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEmpty
		}
		it, err = tx.Update(r.List, r.rnd.IntN(n), r.text())
		return err
	})
	r.lock.Unlock()
	if err == nil && r.Update != nil {
		r.Update(it)
	}
	return
}

func (r *Randomizer) DeleteRow() (it store.Item, err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.setDefaults()
	err = r.Store.Write(func(tx *store.Tx) error {
		n, err := tx.Len(r.List)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEmpty
		}
		it, err = tx.Remove(r.List, r.rnd.IntN(n))
		return err
	})
	return
}

// Start seeds the list with a few rows and keeps editing it until Stop
// or ctx is done.
func (r *Randomizer) Start(ctx context.Context) error {
	r.lock.Lock()
	r.setDefaults()
	if r.cancel != nil {
		r.lock.Unlock()
		return errors.New("workload: already started")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.lock.Unlock()

	for i := 0; i < seedInserts; i++ {
		if _, err := r.InsertRow(); err != nil {
			r.Stop()
			return err
		}
	}
	r.wg.Add(1)
	go r.run(ctx)
	return nil
}

func (r *Randomizer) run(ctx context.Context) {
	defer r.wg.Done()
	ins := time.NewTicker(r.InsertEvery)
	upd := time.NewTicker(r.UpdateEvery)
	del := time.NewTicker(r.DeleteEvery)
	defer ins.Stop()
	defer upd.Stop()
	defer del.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-ins.C:
			_, err = r.InsertRow()
		case <-upd.C:
			_, err = r.UpdateRow()
		case <-del.C:
			_, err = r.DeleteRow()
		}
		switch {
		case err == nil, errors.Is(err, ErrEmpty):
		default:
			// the list's owner may be gone, nothing left to edit
			r.Log.InfoCtx(ctx, "randomizer stops", "list", r.List, "err", err)
			return
		}
	}
}

func (r *Randomizer) Stop() {
	r.lock.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.lock.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}
