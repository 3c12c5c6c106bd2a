package orch

import (
	"context"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// HandleCommand runs an inbound call on the main loop and returns its ack.
func (o *Orchestrator) HandleCommand(ctx context.Context, channel domain.ChannelName, call core.MethodCall) (core.MethodResult, error) {
	var res core.MethodResult
	err := o.Loop.Do(ctx, func() {
		res = o.Dispatcher.Handle(channel, call)
	})
	return res, err
}

// Teardown lets queued work settle, fires the kill notification and ends
// the session. ctx bounds the wait for the loop only.
func (o *Orchestrator) Teardown(ctx context.Context) {
	select {
	case <-o.Loop.Done():
	case <-ctx.Done():
		log.Warn().Str("module", "orch").Msg("main loop did not drain before teardown")
	}
	o.Notifier.OnTeardown(context.WithoutCancel(ctx))
	o.Transport.Deactivate()
	if o.Registry != nil {
		o.Registry.CancelAll()
	}
}
