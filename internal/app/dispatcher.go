package app

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/dkeye/watchbridge/internal/observability"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
)

type killNotificationArgs struct {
	Title       *string `mapstructure:"title"`
	Description *string `mapstructure:"description"`
}

// Dispatcher is the method-name-addressed surface between the bridge and
// application logic. Inbound calls must arrive on the main loop.
type Dispatcher struct {
	Registry *Registry
	Channels core.ChannelFactory
	Policy   Policy
	// Strict reports malformed arguments instead of ignoring them.
	Strict bool

	mu      sync.Mutex
	pending *domain.PendingNotification
}

func NewDispatcher(reg *Registry, channels core.ChannelFactory, policy Policy) *Dispatcher {
	return &Dispatcher{
		Registry: reg,
		Channels: channels,
		Policy:   policy,
	}
}

// Handle acknowledges an inbound call immediately.
func (d *Dispatcher) Handle(channel domain.ChannelName, call core.MethodCall) core.MethodResult {
	res := d.route(channel, call)
	observability.RecordInboundCall(string(channel), call.Method, string(res.Status))
	return res
}

func (d *Dispatcher) route(channel domain.ChannelName, call core.MethodCall) core.MethodResult {
	if channel == domain.NotifyOnKillChannel && call.Method == domain.MethodSetNotificationOnKill {
		return d.setNotificationOnKill(call)
	}
	log.Warn().Str("module", "app.dispatcher").Str("channel", string(channel)).Str("method", call.Method).Msg("method not implemented")
	return core.MethodResult{Method: call.Method, Status: core.StatusNotImplemented}
}

func (d *Dispatcher) setNotificationOnKill(call core.MethodCall) core.MethodResult {
	log.Info().Str("module", "app.dispatcher").Str("method", call.Method).Msg("handle method call")

	args, err := decodeKillNotificationArgs(call.Arguments)
	if err == nil && args.Title != nil && args.Description != nil {
		d.mu.Lock()
		d.pending = &domain.PendingNotification{Title: *args.Title, Body: *args.Description}
		d.mu.Unlock()
		return core.MethodResult{Method: call.Method, Status: core.StatusOK}
	}

	ev := log.Warn().Str("module", "app.dispatcher").Str("method", call.Method)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("malformed arguments ignored")
	if d.Strict {
		msg := "title and description must be strings"
		if err != nil {
			msg = err.Error()
		}
		return core.MethodResult{Method: call.Method, Status: core.StatusInvalidArguments, Error: msg}
	}
	return core.MethodResult{Method: call.Method, Status: core.StatusOK}
}

// decodeKillNotificationArgs matches argument keys exactly; "Title" is not "title".
func decodeKillNotificationArgs(in any) (killNotificationArgs, error) {
	var args killNotificationArgs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:    &args,
		MatchName: func(key, field string) bool { return key == field },
	})
	if err != nil {
		return args, err
	}
	return args, dec.Decode(in)
}

// PendingNotification returns the cached notification, if one was set.
func (d *Dispatcher) PendingNotification() (domain.PendingNotification, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return domain.PendingNotification{}, false
	}
	return *d.pending, true
}

func (d *Dispatcher) AudioDataReceived(data []byte) {
	d.invoke(domain.WatchChannel, domain.MethodAudioDataReceived, data)
}

func (d *Dispatcher) RecordingStatus(recording bool) {
	d.invoke(domain.WatchChannel, domain.MethodRecordingStatus, recording)
}

func (d *Dispatcher) WalSyncStatus(synced bool) {
	d.invoke(domain.WatchChannel, domain.MethodWalSyncStatus, synced)
}

// invoke sends one frame to every connection on channel without waiting.
func (d *Dispatcher) invoke(channel domain.ChannelName, method string, args any) {
	frame, err := json.Marshal(core.MethodCall{Method: method, Arguments: args})
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("method", method).Msg("invoke marshal")
		return
	}
	observability.RecordOutboundCall(string(channel), method)

	hub := d.Channels.GetOrCreate(channel)
	res := hub.Broadcast(frame)
	if res.SendTo == 0 && len(res.Dropped) == 0 {
		log.Debug().Str("module", "app.dispatcher").Str("channel", string(channel)).Str("method", method).Msg("no listeners")
	}
	if d.Policy == nil {
		return
	}
	for _, id := range res.Dropped {
		switch d.Policy.OnBackPressure(hub, id) {
		case KickConnection:
			log.Warn().Str("module", "app.dispatcher").Str("conn", string(id)).Msg("kicking slow connection")
			hub.RemoveConn(id)
			if d.Registry != nil {
				d.Registry.Cancel(id)
			}
		case DropFrame:
			log.Debug().Str("module", "app.dispatcher").Str("conn", string(id)).Str("method", method).Msg("frame dropped for slow connection")
		}
	}
}
