package core

// Frame is an encoded method call ready for a channel connection.
type Frame []byte

type ConnID string

// ChannelConnection abstracts an application-logic endpoint.
// Owned by the adapter; the adapter must Close() it.
type ChannelConnection interface {
	TrySend(Frame) error
	Close()
}
