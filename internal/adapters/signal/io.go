package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/watchbridge/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *ChannelWSController) writePump(ctx context.Context, c *WsChannelConn) {
	var ping <-chan time.Time
	if ctl.PingPeriod > 0 {
		ticker := time.NewTicker(ctl.PingPeriod)
		defer ticker.Stop()
		ping = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *ChannelWSController) readPump(
	ctx context.Context,
	cancel context.CancelFunc,
	id core.ConnID,
	hub core.ChannelHub,
	c *WsChannelConn,
) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		hub.RemoveConn(id)
		ctl.Orch.Registry.Unbind(id)
		cancel()
		c.Close()
	}()

	if ctl.PingPeriod > 0 {
		pongWait := ctl.PingPeriod * 10 / 9
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
			}
			return
		}
		if !ctl.handleCall(ctx, hub, c, data) {
			return
		}
	}
}

// handleCall reports false once the main loop can no longer take calls.
func (ctl *ChannelWSController) handleCall(ctx context.Context, hub core.ChannelHub, c *WsChannelConn, data []byte) bool {
	var call core.MethodCall
	if err := json.Unmarshal(data, &call); err != nil || call.Method == "" {
		log.Warn().Err(err).Str("module", "signal").Msg("bad method call")
		ctl.sendJSON(c, core.MethodResult{Status: core.StatusInvalidArguments, Error: "bad_payload"})
		return true
	}
	res, err := ctl.Orch.HandleCommand(ctx, hub.Name(), call)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("method", call.Method).Msg("call not handled")
		return false
	}
	ctl.sendJSON(c, res)
	return true
}

func (ctl *ChannelWSController) sendJSON(c *WsChannelConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
