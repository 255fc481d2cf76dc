package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/adapters/signal"
	"github.com/peerdeck/peerdeck/internal/app"
	"github.com/peerdeck/peerdeck/internal/config"
	"github.com/peerdeck/peerdeck/internal/core"
)

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, dispatcher *app.Dispatcher, store *core.Store, hub *core.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("PeerdeckSessions", sessionStore))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewController(dispatcher, hub, cfg)
	rest := NewRestHandlers(store, dispatcher.Presence())

	api := r.Group("/api")
	api.GET("/ws/signal", ctrl.HandleSignal)
	api.GET("/rooms/:id/status", rest.RoomStatus)

	r.GET("/healthz", rest.Health)

	return r
}
