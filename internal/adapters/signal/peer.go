package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrUnsupportedPeerURL = errors.New("peer url must use ws or wss")

// PeerDialer reaches the companion device over a WebSocket.
// Binary frames carry audio; text frames carry JSON objects.
type PeerDialer struct {
	URL        string
	Header     http.Header
	Dialer     *websocket.Dialer
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewPeerDialer(rawURL string, handshake time.Duration, readLimit int64, pingPeriod time.Duration) (*PeerDialer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse peer url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPeerURL, rawURL)
	}
	return &PeerDialer{
		URL: rawURL,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshake,
		},
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}, nil
}

func (d *PeerDialer) Dial(ctx context.Context) (core.PeerLink, error) {
	conn, resp, err := d.Dialer.DialContext(ctx, d.URL, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial peer: %w", err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	log.Info().Str("module", "signal.peer").Str("url", d.URL).Msg("peer link established")
	return newWSPeerLink(conn, d.PingPeriod), nil
}

type wsPeerLink struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func newWSPeerLink(conn *websocket.Conn, pingPeriod time.Duration) *wsPeerLink {
	l := &wsPeerLink{conn: conn, done: make(chan struct{})}
	if pingPeriod > 0 {
		pongWait := pingPeriod * 10 / 9
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go l.keepalive(pingPeriod)
	}
	return l
}

func (l *wsPeerLink) keepalive(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			if err := l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "signal.peer").Msg("ping failed")
				return
			}
		}
	}
}

// Receive decodes the next frame. A text frame that is not a JSON object
// yields an empty message, which classifies as unrecognized.
func (l *wsPeerLink) Receive() (domain.RawMessage, error) {
	for {
		mt, data, err := l.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		switch mt {
		case websocket.BinaryMessage:
			return domain.RawMessage{domain.KeyAudioData: data}, nil
		case websocket.TextMessage:
			var m map[string]any
			if err := json.Unmarshal(data, &m); err != nil {
				log.Warn().Err(err).Str("module", "signal.peer").Msg("bad peer json")
				return domain.RawMessage{}, nil
			}
			return domain.RawMessage(m), nil
		}
	}
}

func (l *wsPeerLink) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.conn.Close()
	})
	return err
}
