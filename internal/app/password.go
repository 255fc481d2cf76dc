package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

// handleUpdatePassword sets or clears the room's viewer password. The whole
// room is told whether a password now gates joining, never the password
// itself.
func (d *Dispatcher) handleUpdatePassword(conn core.ConnID, data []byte) {
	var p passwordPayload
	_ = json.Unmarshal(data, &p)

	roomID := domain.RoomID(domain.CleanString(p.RoomID, domain.MaxStringLen))
	editorKey := domain.CleanString(p.EditorKey, domain.MaxStringLen)

	room, _ := d.store.Get(roomID)
	if err := AuthorizeMutation(room, editorKey); err != nil {
		d.sendError(conn, err)
		return
	}

	room.ViewerPassword = domain.CleanString(p.ViewerPassword, domain.MaxStringLen)
	d.store.Set(roomID, room)

	d.hub.EmitToRoom(roomID, roomPwChangeMsg{
		Event:   EvtRoomPwChange,
		BlankPw: room.ViewerPassword == "",
	})
	log.Info().Str("module", "app.password").Str("room", string(roomID)).Bool("blank", room.ViewerPassword == "").Msg("viewer password changed")
}

// handleGetPassword returns the room snapshot, credentials included, to the
// requester only.
func (d *Dispatcher) handleGetPassword(conn core.ConnID, data []byte) {
	var p passwordPayload
	_ = json.Unmarshal(data, &p)

	roomID := domain.RoomID(domain.CleanString(p.RoomID, domain.MaxStringLen))
	editorKey := domain.CleanString(p.EditorKey, domain.MaxStringLen)

	room, _ := d.store.Get(roomID)
	if err := AuthorizeMutation(room, editorKey); err != nil {
		d.sendError(conn, err)
		return
	}

	d.hub.EmitTo(conn, getPwMsg{Event: EvtEditorGetPw, Room: *room})
}
