package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
)

var errLinkLost = errors.New("link lost")

type sinkCall struct {
	method string
	data   []byte
	flag   bool
}

type fakeSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (s *fakeSink) AudioDataReceived(data []byte) {
	s.record(sinkCall{method: domain.MethodAudioDataReceived, data: data})
}

func (s *fakeSink) RecordingStatus(recording bool) {
	s.record(sinkCall{method: domain.MethodRecordingStatus, flag: recording})
}

func (s *fakeSink) WalSyncStatus(synced bool) {
	s.record(sinkCall{method: domain.MethodWalSyncStatus, flag: synced})
}

func (s *fakeSink) record(c sinkCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *fakeSink) snapshot() []sinkCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkCall(nil), s.calls...)
}

type fakeLink struct {
	msgs      chan domain.RawMessage
	lost      chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	lostOnce  sync.Once
}

func newFakeLink() *fakeLink {
	return &fakeLink{
		msgs:   make(chan domain.RawMessage, 64),
		lost:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

func (l *fakeLink) Receive() (domain.RawMessage, error) {
	select {
	case m := <-l.msgs:
		return m, nil
	case <-l.lost:
		return nil, errLinkLost
	case <-l.closed:
		return nil, errors.New("closed")
	}
}

func (l *fakeLink) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *fakeLink) drop() {
	l.lostOnce.Do(func() { close(l.lost) })
}

type dialResult struct {
	link core.PeerLink
	err  error
}

// fakeDialer hands out queued results; Dial blocks until one is queued.
type fakeDialer struct {
	results chan dialResult
	mu      sync.Mutex
	dials   int
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{results: make(chan dialResult, 8)}
}

func (d *fakeDialer) queue(link core.PeerLink, err error) {
	d.results <- dialResult{link: link, err: err}
}

func (d *fakeDialer) Dial(ctx context.Context) (core.PeerLink, error) {
	d.mu.Lock()
	d.dials++
	d.mu.Unlock()
	select {
	case r := <-d.results:
		return r.link, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type fakeCenter struct {
	mu   sync.Mutex
	reqs []domain.NotificationRequest
	err  error
}

func (c *fakeCenter) Add(ctx context.Context, req domain.NotificationRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.reqs = append(c.reqs, req)
	return nil
}

func (c *fakeCenter) Drain(ctx context.Context) {}

func (c *fakeCenter) requests() []domain.NotificationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.NotificationRequest(nil), c.reqs...)
}

// stateRecorder collects transitions and lets tests wait for one.
type stateRecorder struct {
	mu      sync.Mutex
	changes []core.StateChange
	ch      chan core.StateChange
}

func newStateRecorder() *stateRecorder {
	return &stateRecorder{ch: make(chan core.StateChange, 64)}
}

func (r *stateRecorder) handle(c core.StateChange) {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	r.mu.Unlock()
	r.ch <- c
}

func (r *stateRecorder) waitFor(to domain.SessionState) (core.StateChange, bool) {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case c := <-r.ch:
			if c.To == to {
				return c, true
			}
		case <-timeout:
			return core.StateChange{}, false
		}
	}
}

func (r *stateRecorder) all() []core.StateChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.StateChange(nil), r.changes...)
}
