package notify

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrRepeatingUnsupported = errors.New("repeating notifications are not supported")

// scheduler runs delayed triggers and lets shutdown wait for them.
type scheduler struct {
	wg sync.WaitGroup
}

func (s *scheduler) after(delay time.Duration, fn func()) {
	s.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer s.wg.Done()
		fn()
	})
}

func (s *scheduler) drain(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
