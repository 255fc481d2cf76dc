package signal

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/app"
	"github.com/peerdeck/peerdeck/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(connID core.ConnID, c *Conn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", string(connID)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(connID core.ConnID, c *Conn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("readPump closing")
		c.Close()
		ctl.limiter.Forget(connID)
		ctl.Dispatcher.Enqueue(app.Inbound{Conn: connID, Gone: true})
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("readPump read error")
			return
		}
		if !ctl.limiter.Allow(connID) {
			log.Warn().Str("module", "signal").Str("conn", string(connID)).Msg("rate limit exceeded, frame dropped")
			continue
		}
		ctl.Dispatcher.Enqueue(app.Inbound{Conn: connID, Data: data})
	}
}
