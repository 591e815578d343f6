// Package loop is the single consumption context binding engines run on.
// Producers on any goroutine Post tasks; one consumer runs them in post
// order, so engine state is never touched concurrently.
package loop

import (
	"context"
	"errors"
	"sync"
)

type Task = func()

var ErrClosed = errors.New("loop is closed")

type Loop struct {
	tasks  []Task
	lock   sync.Mutex
	cond   sync.Cond
	closed bool
}

func New() *Loop {
	l := &Loop{}
	l.cond.L = &l.lock
	return l
}

// Post enqueues a task to run after everything already queued. Posting
// from inside a running task defers it to the next quantum.
func (l *Loop) Post(task Task) error {
	l.lock.Lock()
	if l.closed {
		l.lock.Unlock()
		return ErrClosed
	}
	was0 := len(l.tasks) == 0
	l.tasks = append(l.tasks, task)
	if was0 {
		l.cond.Broadcast()
	}
	l.lock.Unlock()
	return nil
}

func (l *Loop) take() (tasks []Task) {
	l.lock.Lock()
	tasks = l.tasks
	l.tasks = nil
	l.lock.Unlock()
	return
}

// Flush runs queued tasks on the calling goroutine, including the ones
// posted meanwhile, until the queue is empty.
func (l *Loop) Flush() (n int) {
	for {
		tasks := l.take()
		if len(tasks) == 0 {
			return
		}
		for _, task := range tasks {
			task()
			n++
		}
	}
}

// Pending reports the number of queued tasks.
func (l *Loop) Pending() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.tasks)
}

// Run consumes tasks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		l.lock.Lock()
		l.cond.Broadcast()
		l.lock.Unlock()
	})
	defer stop()
	for {
		l.lock.Lock()
		for len(l.tasks) == 0 && !l.closed && ctx.Err() == nil {
			l.cond.Wait()
		}
		tasks := l.tasks
		l.tasks = nil
		closed := l.closed
		l.lock.Unlock()

		for _, task := range tasks {
			task()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if closed {
			return ErrClosed
		}
	}
}

// Do posts task and waits until the consumer has run it.
func (l *Loop) Do(ctx context.Context, task Task) error {
	done := make(chan struct{})
	err := l.Post(func() {
		defer close(done)
		task()
	})
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close rejects further posts; tasks already queued still run.
func (l *Loop) Close() error {
	l.lock.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.lock.Unlock()
	return nil
}
