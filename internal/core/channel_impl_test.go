package core

import (
	"errors"
	"testing"
)

type recordingConn struct {
	frames []Frame
	fail   bool
}

func (c *recordingConn) TrySend(f Frame) error {
	if c.fail {
		return errors.New("full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordingConn) Close() {}

func TestChannelHubBroadcast(t *testing.T) {
	hub := NewChannelHub("com.friend.watch")
	a, b, slow := &recordingConn{}, &recordingConn{}, &recordingConn{fail: true}
	hub.AddConn("a", a)
	hub.AddConn("slow", slow)
	hub.AddConn("b", b)

	res := hub.Broadcast(Frame("x"))
	if res.SendTo != 2 {
		t.Errorf("expected 2 sends, got %d", res.SendTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "slow" {
		t.Errorf("expected slow dropped, got %v", res.Dropped)
	}
	if len(a.frames) != 1 || len(b.frames) != 1 {
		t.Errorf("expected one frame each, got %d and %d", len(a.frames), len(b.frames))
	}
}

func TestChannelHubRemoveConn(t *testing.T) {
	hub := NewChannelHub("c")
	a := &recordingConn{}
	hub.AddConn("a", a)
	hub.AddConn("a", a)
	if hub.ConnCount() != 1 {
		t.Fatalf("expected 1 conn, got %d", hub.ConnCount())
	}
	hub.RemoveConn("a")
	hub.RemoveConn("a")
	if hub.ConnCount() != 0 {
		t.Fatalf("expected 0 conns, got %d", hub.ConnCount())
	}
	if res := hub.Broadcast(Frame("x")); res.SendTo != 0 || len(res.Dropped) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if hub.Name() != "c" {
		t.Fatalf("unexpected name %q", hub.Name())
	}
}
