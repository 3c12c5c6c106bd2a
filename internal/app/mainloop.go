package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var ErrLoopClosed = errors.New("main loop closed")

const (
	callQueued int32 = iota
	callStarted
	callAbandoned
)

// MainLoop is the single owning context for application-logic calls.
// Posted functions run one at a time in post order. The queue is unbounded.
type MainLoop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

func NewMainLoop() *MainLoop {
	l := &MainLoop{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Post enqueues fn without blocking. It reports false once the loop is closed.
func (l *MainLoop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, fn)
	l.cond.Signal()
	return true
}

// Do runs fn on the loop and waits for it to finish. If ctx ends while fn is
// still queued, fn is skipped and ctx.Err() is returned; once fn has started,
// Do waits for it and returns nil.
func (l *MainLoop) Do(ctx context.Context, fn func()) error {
	var claim atomic.Int32
	finished := make(chan struct{})
	if !l.Post(func() {
		if !claim.CompareAndSwap(callQueued, callStarted) {
			return
		}
		defer close(finished)
		fn()
	}) {
		return ErrLoopClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		if claim.CompareAndSwap(callQueued, callAbandoned) {
			return ctx.Err()
		}
		<-finished
		return nil
	}
}

// Run executes posted functions until ctx ends, then drains what is queued.
func (l *MainLoop) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, l.close)
	defer stop()
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Done is closed after Run has drained the queue.
func (l *MainLoop) Done() <-chan struct{} { return l.done }

func (l *MainLoop) close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}
