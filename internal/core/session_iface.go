package core

import (
	"context"

	"github.com/dkeye/watchbridge/internal/domain"
)

// StateChange is reported to observers on every session transition.
type StateChange struct {
	Session domain.SessionID
	From    domain.SessionState
	To      domain.SessionState
	Err     error
}

type (
	StateHandler   func(StateChange)
	MessageHandler func(domain.RawMessage)
)

// PeerLink is a live connection to the companion device.
// Owned by the transport; the transport must Close() it.
type PeerLink interface {
	// Receive blocks until the next peer message or link failure.
	Receive() (domain.RawMessage, error)
	Close() error
}

type PeerDialer interface {
	Dial(ctx context.Context) (PeerLink, error)
}

// SessionTransport owns the session state and the live peer link.
type SessionTransport interface {
	Activate(ctx context.Context)
	Deactivate()
	CurrentState() domain.SessionState
	SessionID() domain.SessionID

	OnStateChanged(StateHandler)
	// OnMessage handlers only see messages received while Activated.
	OnMessage(MessageHandler)
}
