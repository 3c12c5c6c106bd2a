package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
)

func TestMainLoopRunsInPostOrder(t *testing.T) {
	l := NewMainLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		})
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("position %d: expected %d, got %d", i, i, v)
		}
	}
}

func TestMainLoopDo(t *testing.T) {
	l := NewMainLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	ran := false
	if err := l.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("expected fn to run")
	}
}

func TestMainLoopDrainsOnCancel(t *testing.T) {
	l := NewMainLoop()
	var count int
	for i := 0; i < 10; i++ {
		l.Post(func() { count++ })
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l.Run(ctx)

	if count != 10 {
		t.Fatalf("expected 10 drained, got %d", count)
	}
	select {
	case <-l.Done():
	default:
		t.Fatal("expected Done to be closed")
	}
	if l.Post(func() {}) {
		t.Fatal("expected Post to fail after close")
	}
	if err := l.Do(context.Background(), func() {}); !errors.Is(err, ErrLoopClosed) {
		t.Fatalf("expected ErrLoopClosed, got %v", err)
	}
}

func TestMainLoopDoHonorsContext(t *testing.T) {
	l := NewMainLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMainLoopDoSkipsAbandonedCall(t *testing.T) {
	l := NewMainLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	release := make(chan struct{})
	l.Post(func() { <-release })

	d := newTestDispatcher()
	callCtx, callCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer callCancel()
	err := l.Do(callCtx, func() {
		d.Handle(domain.NotifyOnKillChannel, core.MethodCall{
			Method:    domain.MethodSetNotificationOnKill,
			Arguments: map[string]any{"title": "t", "description": "d"},
		})
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(release)
	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.PendingNotification(); ok {
		t.Fatal("abandoned call must not change state")
	}
}

func TestMainLoopDoWaitsForStartedCall(t *testing.T) {
	l := NewMainLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	started := make(chan struct{})
	callCtx, callCancel := context.WithCancel(context.Background())
	ran := false
	errc := make(chan error, 1)
	go func() {
		errc <- l.Do(callCtx, func() {
			close(started)
			time.Sleep(20 * time.Millisecond)
			ran = true
		})
	}()

	<-started
	callCancel()
	if err := <-errc; err != nil {
		t.Fatalf("expected nil once the call started, got %v", err)
	}
	if !ran {
		t.Fatal("expected call to complete")
	}
}
