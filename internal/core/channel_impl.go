package core

import (
	"sync"

	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// channelHub is a threadsafe in-memory connection set.
// It never closes adapter-owned resources.
type channelHub struct {
	name  domain.ChannelName
	mu    sync.RWMutex
	conns map[ConnID]ChannelConnection
	order []ConnID
}

func NewChannelHub(name domain.ChannelName) ChannelHub {
	return &channelHub{
		name:  name,
		conns: make(map[ConnID]ChannelConnection),
	}
}

func (h *channelHub) Name() domain.ChannelName { return h.name }

func (h *channelHub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *channelHub) AddConn(id ConnID, conn ChannelConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[id]; !ok {
		h.order = append(h.order, id)
	}
	h.conns[id] = conn
	log.Info().Str("module", "core.channel").Str("channel", string(h.name)).Str("conn", string(id)).Msg("connection added")
}

func (h *channelHub) RemoveConn(id ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[id]; !ok {
		return
	}
	delete(h.conns, id)
	for i, cid := range h.order {
		if cid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "core.channel").Str("channel", string(h.name)).Str("conn", string(id)).Msg("connection removed")
}

// Broadcast hands data to every connection in attach order.
func (h *channelHub) Broadcast(data Frame) PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := PublishResult{}
	for _, id := range h.order {
		if err := h.conns[id].TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, id)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.channel").Str("channel", string(h.name)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
