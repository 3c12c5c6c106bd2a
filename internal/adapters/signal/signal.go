package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dkeye/watchbridge/internal/app/orch"
	"github.com/dkeye/watchbridge/internal/core"
	"github.com/dkeye/watchbridge/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// ChannelWSController attaches application-logic WebSocket clients to
// named method channels.
type ChannelWSController struct {
	Orch       *orch.Orchestrator
	SendBuffer int
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewChannelWSController(o *orch.Orchestrator, sendBuffer int, readLimit int64, pingPeriod time.Duration) *ChannelWSController {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &ChannelWSController{
		Orch:       o,
		SendBuffer: sendBuffer,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

type WsChannelConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsChannelConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsChannelConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChannelName extracts the channel from a "/*name" route parameter.
func ChannelName(c *gin.Context) domain.ChannelName {
	return domain.ChannelName(strings.TrimPrefix(c.Param("name"), "/"))
}

// HandleChannel upgrades the request. ctx must outlive the request.
func (ctl *ChannelWSController) HandleChannel(ctx context.Context, c *gin.Context) {
	name := ChannelName(c)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing channel"})
		return
	}
	if !name.Known() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown channel"})
		return
	}
	token := c.GetString("client_token")
	id := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("client", token).Str("channel", string(name)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsChannelConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	context.AfterFunc(ctx, conn.Close)
	hub := ctl.Orch.Dispatcher.Channels.GetOrCreate(name)
	ctl.Orch.Registry.Bind(id, name, token, cancel)
	hub.AddConn(id, conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, hub, conn)
}
