package signal

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/app"
	"github.com/peerdeck/peerdeck/internal/config"
	"github.com/peerdeck/peerdeck/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Dispatcher *app.Dispatcher
	Hub        *core.Hub
	Cfg        *config.Config
	limiter    *ConnRateLimiter
}

func NewController(dispatcher *app.Dispatcher, hub *core.Hub, cfg *config.Config) *Controller {
	return &Controller{
		Dispatcher: dispatcher,
		Hub:        hub,
		Cfg:        cfg,
		limiter:    NewConnRateLimiter(cfg.RateLimit, cfg.RateWindow),
	}
}

type Conn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *Conn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
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

// HandleSignal upgrades the request and binds the socket into the hub and
// dispatcher. Each socket gets its own connection id; the client token is
// only a log correlation handle, two tabs are two connections.
func (ctl *Controller) HandleSignal(c *gin.Context) {
	token := c.GetString("client_token")
	connID := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(connID)).Str("token", token).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &Conn{
		conn: ws,
		send: make(chan []byte, 32),
	}
	ctl.Hub.Register(connID, conn)

	go ctl.writePump(connID, conn)
	go ctl.readPump(connID, conn)
}
