package core

import "github.com/dkeye/watchbridge/internal/domain"

// PublishResult reports delivery stats/backpressure to the dispatcher.
type PublishResult struct {
	SendTo  int
	Dropped []ConnID
}

type ChannelInfo struct {
	Name      domain.ChannelName `json:"name"`
	ConnCount int                `json:"conn_count"`
}

// ChannelHub is the set of connections attached to one named channel.
// It owns the membership set but never touches transport resources.
type ChannelHub interface {
	Name() domain.ChannelName
	ConnCount() int

	AddConn(id ConnID, conn ChannelConnection)
	RemoveConn(id ConnID)
	Broadcast(data Frame) PublishResult
}

type ChannelFactory interface {
	GetOrCreate(name domain.ChannelName) ChannelHub
	List() []ChannelInfo
}
