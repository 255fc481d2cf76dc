package app

import (
	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

// RoomStatus is the live presence snapshot for a room.
type RoomStatus struct {
	Connected int `json:"connected"`
	Viewers   int `json:"viewers"`
	Editors   int `json:"editors"`
}

// Presence derives live counts from the hub's membership and the directory's
// recorded roles. Counts are computed fresh on every call; the hub is the
// source of truth and incremental counters would drift from it.
type Presence struct {
	hub *core.Hub
	dir *core.Directory
}

func NewPresence(hub *core.Hub, dir *core.Directory) *Presence {
	return &Presence{hub: hub, dir: dir}
}

// Status tallies the room's members by role. Members with no recorded role
// still count as connected.
func (p *Presence) Status(roomID domain.RoomID) RoomStatus {
	members := p.hub.MembersOf(roomID)
	roles := p.dir.Roles(members)

	status := RoomStatus{Connected: len(members)}
	for _, role := range roles {
		switch role {
		case domain.RoleEditor:
			status.Editors++
		case domain.RoleViewer:
			status.Viewers++
		}
	}
	return status
}
