package workload

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drpcorg/rowbind/loop"
	"github.com/drpcorg/rowbind/store"
	"github.com/drpcorg/rowbind/utils"
)

func openStore(t *testing.T) *store.Store {
	s, err := store.Open(t.TempDir(), store.Options{
		Loop: loop.New(),
		Log:  utils.NewDefaultLogger(slog.LevelError),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRandomizer_Steps(t *testing.T) {
	s := openStore(t)
	var created []store.Item
	r := &Randomizer{Store: s, List: store.RootList, Seed: 3, Create: func(it store.Item) {
		created = append(created, it)
	}}

	_, err := r.UpdateRow()
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = r.DeleteRow()
	assert.ErrorIs(t, err, ErrEmpty)

	for i := 0; i < 4; i++ {
		_, err = r.InsertRow()
		require.NoError(t, err)
	}
	assert.Len(t, created, 4)

	upd, err := r.UpdateRow()
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.Rev)

	del, err := r.DeleteRow()
	require.NoError(t, err)
	items, err := s.Items(store.RootList)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	for _, it := range items {
		assert.NotEqual(t, del.ID, it.ID)
	}
}

func TestRandomizer_StartStop(t *testing.T) {
	s := openStore(t)
	var children atomic.Int32
	r := &Randomizer{
		Store:       s,
		List:        store.RootList,
		InsertEvery: time.Millisecond,
		UpdateEvery: 2 * time.Millisecond,
		DeleteEvery: time.Hour,
		Create: func(store.Item) {
			children.Add(1)
		},
	}
	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()))
	assert.Eventually(t, func() bool { return children.Load() > seedInserts }, 5*time.Second, time.Millisecond)
	r.Stop()

	n := children.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, children.Load())
	items, err := s.Items(store.RootList)
	require.NoError(t, err)
	assert.Len(t, items, int(n))
}

func TestRandomizer_StopsWhenOwnerIsGone(t *testing.T) {
	s := openStore(t)
	parent := &Randomizer{Store: s, List: store.RootList}
	sec, err := parent.InsertRow()
	require.NoError(t, err)

	child := &Randomizer{Store: s, List: sec.ID, InsertEvery: time.Millisecond, UpdateEvery: time.Hour, DeleteEvery: time.Hour}
	require.NoError(t, child.Start(context.Background()))
	_, err = parent.DeleteRow()
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		child.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("child randomizer kept running")
	}
	child.Stop()
}
