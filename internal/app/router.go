package app

import (
	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/dkeye/watchbridge/internal/observability"
	"github.com/rs/zerolog/log"
)

// Classify maps a raw peer payload onto a PeerMessage. It never fails.
func Classify(raw domain.RawMessage) domain.PeerMessage {
	if data, ok := raw[domain.KeyAudioData].([]byte); ok {
		return domain.AudioFrame{Data: data}
	}
	if s, ok := raw[domain.KeyStatus].(string); ok {
		if kind, ok := domain.ParseStatus(s); ok {
			return domain.StatusEvent{Kind: kind}
		}
	}
	return domain.Unrecognized{}
}

// Router forwards each classified message to the sink at most once.
// It holds no state and neither buffers nor reorders.
type Router struct {
	sink core.EventSink
}

func NewRouter(sink core.EventSink) *Router {
	return &Router{sink: sink}
}

func (r *Router) OnMessage(raw domain.RawMessage) {
	switch m := Classify(raw).(type) {
	case domain.AudioFrame:
		observability.RecordPeerMessage("audio")
		r.sink.AudioDataReceived(m.Data)
	case domain.StatusEvent:
		observability.RecordPeerMessage("status")
		switch m.Kind {
		case domain.RecordingStarted:
			r.sink.RecordingStatus(true)
		case domain.RecordingStopped:
			r.sink.RecordingStatus(false)
		case domain.WalSyncComplete:
			r.sink.WalSyncStatus(true)
		}
	default:
		observability.RecordPeerMessage("unrecognized")
		log.Debug().Str("module", "app.router").Int("keys", len(raw)).Msg("unrecognized peer message dropped")
	}
}
