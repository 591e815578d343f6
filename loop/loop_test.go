package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_FlushOrder(t *testing.T) {
	l := New()
	var got []int
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Post(func() { got = append(got, i) }))
	}
	assert.Equal(t, 3, l.Pending())
	assert.Equal(t, 3, l.Flush())
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, 0, l.Flush())
}

func TestLoop_PostFromTaskIsDeferred(t *testing.T) {
	l := New()
	var got []string
	_ = l.Post(func() {
		got = append(got, "outer")
		_ = l.Post(func() { got = append(got, "deferred") })
		got = append(got, "outer done")
	})
	_ = l.Post(func() { got = append(got, "second") })
	l.Flush()
	assert.Equal(t, []string{"outer", "outer done", "second", "deferred"}, got)
}

func TestLoop_RunConcurrentProducers(t *testing.T) {
	const N = 1 << 8
	const K = 1 << 3

	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	check := [K]int{}
	done := make(chan error)
	go func() { done <- l.Run(ctx) }()

	var wg sync.WaitGroup
	for k := 0; k < K; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			for n := 0; n < N; n++ {
				assert.NoError(t, l.Post(func() {
					// per-producer order is preserved
					assert.Equal(t, check[k], n)
					check[k] = n + 1
				}))
			}
		}(k)
	}
	wg.Wait()
	require.NoError(t, l.Do(ctx, func() {}))
	for k := 0; k < K; k++ {
		assert.Equal(t, N, check[k])
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestLoop_Close(t *testing.T) {
	l := New()
	ran := false
	_ = l.Post(func() { ran = true })
	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Post(func() {}), ErrClosed)
	assert.ErrorIs(t, l.Run(context.Background()), ErrClosed)
	assert.True(t, ran)
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrClosed)
}
