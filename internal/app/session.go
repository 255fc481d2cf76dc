package app

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

// handleJoin creates the room on first sight of an unknown id, otherwise
// authorizes against the existing one. Failure leaves the connection roomless
// and only the requester hears about it.
func (d *Dispatcher) handleJoin(conn core.ConnID, data []byte) {
	var p joinPayload
	_ = json.Unmarshal(data, &p)

	roomID := domain.RoomID(domain.CleanString(p.RoomID, domain.MaxStringLen))
	editorKey := domain.CleanString(p.EditorKey, domain.MaxStringLen)
	viewerPassword := domain.CleanString(p.ViewerPassword, domain.MaxStringLen)

	if roomID == "" {
		d.sendError(conn, ErrRoomNotFound)
		return
	}

	room, ok := d.store.Get(roomID)
	var role domain.Role
	if !ok {
		// First join creates the room; the creator is the editor. A missing
		// key is generated server-side and returned in join-success.
		if editorKey == "" {
			editorKey = uuid.NewString()
		}
		room = domain.NewRoom(roomID, editorKey, viewerPassword)
		d.store.Set(roomID, room)
		role = domain.RoleEditor
		log.Info().Str("module", "app.session").Str("room", string(roomID)).Str("conn", string(conn)).Msg("room created")
	} else {
		if err := AuthorizeJoin(room, editorKey, viewerPassword); err != nil {
			log.Info().Str("module", "app.session").Str("room", string(roomID)).Str("conn", string(conn)).Str("reason", err.Error()).Msg("join denied")
			d.sendError(conn, err)
			return
		}
		role = ResolveRole(room, editorKey)
	}

	// Joining moves the connection out of any room it was still in.
	prevRoom, hadPrev := d.dir.Room(conn)

	d.dir.SetRoom(conn, roomID)
	d.dir.SetRole(conn, role)
	d.hub.JoinRoom(conn, roomID)

	d.hub.EmitTo(conn, joinSuccessMsg{Event: EvtJoinSuccess, Room: room.ViewFor(role)})
	d.broadcastStatus(roomID)
	if hadPrev && prevRoom != roomID {
		d.broadcastStatus(prevRoom)
	}
	log.Info().Str("module", "app.session").Str("room", string(roomID)).Str("conn", string(conn)).Str("role", string(role)).Msg("joined")
}

// handleLeave detaches the connection from its room but keeps the socket.
func (d *Dispatcher) handleLeave(conn core.ConnID) {
	roomID, ok := d.dir.Room(conn)
	d.dir.Clear(conn)
	if !ok {
		return
	}
	d.hub.LeaveRoom(conn, roomID)
	d.broadcastStatus(roomID)
	log.Info().Str("module", "app.session").Str("room", string(roomID)).Str("conn", string(conn)).Msg("left room")
}

// handleDisconnect is terminal for the connection.
func (d *Dispatcher) handleDisconnect(conn core.ConnID) {
	roomID, hadRoom := d.dir.Room(conn)
	d.dir.Clear(conn)
	d.hub.Unregister(conn)
	if hadRoom {
		d.broadcastStatus(roomID)
	}
	log.Info().Str("module", "app.session").Str("conn", string(conn)).Msg("disconnected")
}
