package orch

import (
	"context"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/dkeye/watchbridge/internal/observability"
	"github.com/rs/zerolog/log"
)

type Status struct {
	Session     domain.SessionID    `json:"session"`
	State       domain.SessionState `json:"state"`
	Channels    []core.ChannelInfo  `json:"channels"`
	Connections int                 `json:"connections"`
	Clients     map[string]int      `json:"clients"`
}

func (o *Orchestrator) OnStateChanged(change core.StateChange) {
	observability.RecordTransition(change.From.String(), change.To.String())
	ev := log.Info()
	if change.Err != nil {
		ev = log.Error().Err(change.Err)
	}
	ev.Str("module", "orch").
		Str("session", string(change.Session)).
		Str("from", change.From.String()).
		Str("to", change.To.String()).
		Msg("session state changed")
}

// Activate re-activates after a failure; it is a no-op while a session is live.
func (o *Orchestrator) Activate() domain.SessionState {
	ctx := o.rootCtx
	if ctx == nil {
		ctx = context.Background()
	}
	o.Transport.Activate(ctx)
	return o.Transport.CurrentState()
}

func (o *Orchestrator) Deactivate() domain.SessionState {
	o.Transport.Deactivate()
	return o.Transport.CurrentState()
}

func (o *Orchestrator) Status() Status {
	st := Status{
		Session: o.Transport.SessionID(),
		State:   o.Transport.CurrentState(),
	}
	if o.Dispatcher != nil && o.Dispatcher.Channels != nil {
		st.Channels = o.Dispatcher.Channels.List()
	}
	if o.Registry != nil {
		st.Connections = o.Registry.Count()
		st.Clients = o.Registry.Clients()
	}
	return st
}
