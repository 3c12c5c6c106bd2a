package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/rs/zerolog/log"
)

// Transport owns the companion session state and its live link.
type Transport struct {
	dialer    core.PeerDialer
	reconnect time.Duration

	mu     sync.Mutex
	id     domain.SessionID
	state  domain.SessionState
	link   core.PeerLink
	cancel context.CancelFunc

	stateHandlers []core.StateHandler
	msgHandlers   []core.MessageHandler
}

func NewTransport(dialer core.PeerDialer, reconnectInterval time.Duration) *Transport {
	if reconnectInterval <= 0 {
		reconnectInterval = 2 * time.Second
	}
	return &Transport{
		dialer:    dialer,
		reconnect: reconnectInterval,
		state:     domain.NotActivated,
	}
}

func (t *Transport) CurrentState() domain.SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Transport) SessionID() domain.SessionID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *Transport) OnStateChanged(h core.StateHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stateHandlers = append(t.stateHandlers, h)
}

func (t *Transport) OnMessage(h core.MessageHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgHandlers = append(t.msgHandlers, h)
}

// Activate starts a session unless one is already live. A deactivated
// session is never revived; a new session instance replaces it.
func (t *Transport) Activate(ctx context.Context) {
	t.mu.Lock()
	if state := t.state; state.IsLive() {
		t.mu.Unlock()
		log.Debug().Str("module", "app.transport").Str("state", state.String()).Msg("activate ignored")
		return
	}
	if t.state == domain.Deactivated || t.id == "" {
		t.id = domain.NewSessionID()
		t.state = domain.NotActivated
	}
	id := t.id
	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	change, handlers := t.setStateLocked(domain.Activating, nil)
	t.mu.Unlock()

	log.Info().Str("module", "app.transport").Str("session", string(id)).Msg("activating")
	notify(handlers, change)
	go t.run(runCtx, id)
}

// Deactivate ends the current session instance. It is terminal.
func (t *Transport) Deactivate() {
	t.mu.Lock()
	if t.state == domain.Deactivated {
		t.mu.Unlock()
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	link := t.link
	t.link = nil
	change, handlers := t.setStateLocked(domain.Deactivated, nil)
	t.mu.Unlock()

	if link != nil {
		_ = link.Close()
	}
	log.Info().Str("module", "app.transport").Str("session", string(change.Session)).Msg("deactivated")
	notify(handlers, change)
}

func (t *Transport) run(ctx context.Context, id domain.SessionID) {
	link, err := t.dialer.Dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug().Str("module", "app.transport").Str("session", string(id)).Msg("activation canceled")
			return
		}
		log.Error().Err(err).Str("module", "app.transport").Str("session", string(id)).Msg("activation failed")
		t.fail(id, err)
		return
	}
	if !t.attach(id, link) {
		_ = link.Close()
		return
	}

	for {
		msg, err := link.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Str("module", "app.transport").Str("session", string(id)).Msg("link lost")
			if !t.transition(id, domain.Inactive, err) {
				return
			}
			_ = link.Close()
			if link = t.redial(ctx, id); link == nil {
				return
			}
			continue
		}
		t.deliver(id, msg)
	}
}

// redial waits for the link to return while the session is Inactive.
func (t *Transport) redial(ctx context.Context, id domain.SessionID) core.PeerLink {
	ticker := time.NewTicker(t.reconnect)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		link, err := t.dialer.Dial(ctx)
		if err != nil {
			log.Debug().Err(err).Str("module", "app.transport").Str("session", string(id)).Msg("reconnect failed")
			continue
		}
		if t.attach(id, link) {
			return link
		}
		_ = link.Close()
		return nil
	}
}

// attach installs link and moves the session to Activated.
func (t *Transport) attach(id domain.SessionID, link core.PeerLink) bool {
	t.mu.Lock()
	if t.id != id || t.state == domain.Deactivated {
		t.mu.Unlock()
		return false
	}
	t.link = link
	change, handlers := t.setStateLocked(domain.Activated, nil)
	t.mu.Unlock()

	log.Info().Str("module", "app.transport").Str("session", string(id)).Msg("activated")
	notify(handlers, change)
	return true
}

func (t *Transport) fail(id domain.SessionID, err error) {
	t.mu.Lock()
	if t.id != id || t.state == domain.Deactivated {
		t.mu.Unlock()
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	change, handlers := t.setStateLocked(domain.Deactivated, err)
	t.mu.Unlock()
	notify(handlers, change)
}

func (t *Transport) transition(id domain.SessionID, to domain.SessionState, err error) bool {
	t.mu.Lock()
	if t.id != id || t.state == domain.Deactivated {
		t.mu.Unlock()
		return false
	}
	t.link = nil
	change, handlers := t.setStateLocked(to, err)
	t.mu.Unlock()
	notify(handlers, change)
	return true
}

func (t *Transport) deliver(id domain.SessionID, msg domain.RawMessage) {
	t.mu.Lock()
	if t.id != id || t.state != domain.Activated {
		t.mu.Unlock()
		log.Debug().Str("module", "app.transport").Str("session", string(id)).Msg("message outside active session dropped")
		return
	}
	handlers := append([]core.MessageHandler(nil), t.msgHandlers...)
	t.mu.Unlock()
	for _, h := range handlers {
		h(msg)
	}
}

// setStateLocked must be called with t.mu held.
func (t *Transport) setStateLocked(to domain.SessionState, err error) (core.StateChange, []core.StateHandler) {
	change := core.StateChange{Session: t.id, From: t.state, To: to, Err: err}
	t.state = to
	return change, append([]core.StateHandler(nil), t.stateHandlers...)
}

func notify(handlers []core.StateHandler, change core.StateChange) {
	for _, h := range handlers {
		h(change)
	}
}
