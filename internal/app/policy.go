package app

import (
	"fmt"

	"github.com/dkeye/watchbridge/internal/core"
)

type BackpressureAction int

const (
	KickConnection BackpressureAction = iota
	DropFrame
)

// Policy decides what happens to a connection that could not take a frame.
type Policy interface {
	OnBackPressure(hub core.ChannelHub, id core.ConnID) BackpressureAction
}

// SimplePolicy disconnects any listener that falls behind.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(hub core.ChannelHub, id core.ConnID) BackpressureAction {
	return KickConnection
}

// DropPolicy keeps slow listeners attached and loses the frame for them.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(hub core.ChannelHub, id core.ConnID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps the dispatcher.backpressure setting to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "kick", "":
		return SimplePolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
