package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peerdeck/peerdeck/internal/app"
	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

type RestHandlers struct {
	store    *core.Store
	presence *app.Presence
}

func NewRestHandlers(store *core.Store, presence *app.Presence) *RestHandlers {
	return &RestHandlers{store: store, presence: presence}
}

// RoomStatus returns the live presence snapshot of a room.
func (h *RestHandlers) RoomStatus(c *gin.Context) {
	roomID := domain.RoomID(domain.CleanString(c.Param("id"), domain.MaxStringLen))
	if !h.store.Has(roomID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, h.presence.Status(roomID))
}

func (h *RestHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
