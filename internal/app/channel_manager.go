package app

import (
	"sort"
	"sync"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
)

type ChannelManagerImpl struct {
	mu       sync.RWMutex
	channels map[domain.ChannelName]core.ChannelHub
}

func NewChannelManager() core.ChannelFactory {
	return &ChannelManagerImpl{channels: make(map[domain.ChannelName]core.ChannelHub)}
}

func (f *ChannelManagerImpl) GetOrCreate(name domain.ChannelName) core.ChannelHub {
	f.mu.RLock()
	hub, ok := f.channels[name]
	f.mu.RUnlock()
	if ok {
		return hub
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if hub, ok = f.channels[name]; ok {
		return hub
	}
	hub = core.NewChannelHub(name)
	f.channels[name] = hub
	return hub
}

func (f *ChannelManagerImpl) List() []core.ChannelInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]core.ChannelInfo, 0, len(f.channels))
	for name, h := range f.channels {
		out = append(out, core.ChannelInfo{Name: name, ConnCount: h.ConnCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
