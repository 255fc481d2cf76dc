package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/peerdeck/peerdeck/internal/app"
	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

type nopSender struct{}

func (nopSender) TrySend([]byte) error { return nil }

func setupStatusRouter() (*gin.Engine, *core.Store, *core.Hub, *core.Directory) {
	gin.SetMode(gin.TestMode)
	store := core.NewStore(time.Hour)
	dir := core.NewDirectory()
	hub := core.NewHub()
	h := NewRestHandlers(store, app.NewPresence(hub, dir))

	r := gin.New()
	r.GET("/api/rooms/:id/status", h.RoomStatus)
	r.GET("/healthz", h.Health)
	return r, store, hub, dir
}

func TestRoomStatusUnknownRoom(t *testing.T) {
	r, _, _, _ := setupStatusRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/ghost/status", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"room not found"}`, w.Body.String())
}

func TestRoomStatusCounts(t *testing.T) {
	r, store, hub, dir := setupStatusRouter()

	store.Set("deck", domain.NewRoom("deck", "k", ""))
	hub.Register("ed", nopSender{})
	hub.Register("vw", nopSender{})
	hub.JoinRoom("ed", "deck")
	hub.JoinRoom("vw", "deck")
	dir.SetRole("ed", domain.RoleEditor)
	dir.SetRole("vw", domain.RoleViewer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/rooms/deck/status", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"connected":2,"viewers":1,"editors":1}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	r, _, _, _ := setupStatusRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
