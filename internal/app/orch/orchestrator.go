package orch

import (
	"context"

	"github.com/dkeye/watchbridge/internal/app"
	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Loop       *app.MainLoop
	Transport  core.SessionTransport
	Router     *app.Router
	Dispatcher *app.Dispatcher
	Notifier   *app.TerminationNotifier
	Registry   *app.Registry

	rootCtx context.Context
}

// Start wires observers, runs the main loop and activates the session.
// ctx bounds the process lifetime, not a single request.
func (o *Orchestrator) Start(ctx context.Context) {
	o.rootCtx = ctx
	o.Transport.OnStateChanged(o.OnStateChanged)
	o.Transport.OnMessage(o.OnPeerMessage)
	go o.Loop.Run(ctx)
	o.Transport.Activate(ctx)
}

// OnPeerMessage runs on the link goroutine and hands off to the main loop,
// so arrival order is kept for frames and status events alike.
func (o *Orchestrator) OnPeerMessage(raw domain.RawMessage) {
	if !o.Loop.Post(func() { o.Router.OnMessage(raw) }) {
		log.Warn().Str("module", "orch").Msg("main loop closed, peer message dropped")
	}
}
