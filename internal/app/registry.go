package app

import (
	"context"
	"sync"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Channel     domain.ChannelName
	ClientToken string
	Cancel      context.CancelFunc
}

// Registry tracks live channel connections so they can be cancelled.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[core.ConnID]*connEntry),
	}
}

func (r *Registry) Bind(
	id core.ConnID,
	channel domain.ChannelName,
	clientToken string,
	cancel context.CancelFunc,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{
		Channel:     channel,
		ClientToken: clientToken,
		Cancel:      cancel,
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("channel", string(channel)).Msg("bound connection")
}

func (r *Registry) Unbind(id core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unbind connection")
}

// Clients counts live connections per client token.
func (r *Registry) Clients() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, e := range r.conns {
		out[e.ClientToken]++
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Cancel stops the pumps of a connection; the adapter cleans up.
func (r *Registry) Cancel(id core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("channel", string(e.Channel)).Str("client", e.ClientToken).Msg("canceled connection")
	return true
}

// CancelAll is used at shutdown.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	ids := make([]core.ConnID, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	for _, id := range ids {
		r.Cancel(id)
	}
}
