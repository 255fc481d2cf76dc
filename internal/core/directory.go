package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/domain"
)

type dirEntry struct {
	room domain.RoomID
	role domain.Role
}

// Directory maps live connections to their joined room and role. Entries are
// transient: they live exactly as long as the socket and are removed
// explicitly on leave or disconnect, never by timer.
type Directory struct {
	mu      sync.RWMutex
	entries map[ConnID]*dirEntry
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[ConnID]*dirEntry)}
}

func (d *Directory) entry(id ConnID) *dirEntry {
	e, ok := d.entries[id]
	if !ok {
		e = &dirEntry{}
		d.entries[id] = e
	}
	return e
}

// SetRoom records the room a connection has joined; empty clears it.
func (d *Directory) SetRoom(id ConnID, room domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entry(id).room = room
}

// SetRole records the connection's role; empty clears it.
func (d *Directory) SetRole(id ConnID, role domain.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entry(id).role = role
}

func (d *Directory) Room(id ConnID) (domain.RoomID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	if !ok || e.room == "" {
		return "", false
	}
	return e.room, true
}

func (d *Directory) Role(id ConnID) (domain.Role, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	if !ok || e.role == "" {
		return "", false
	}
	return e.role, true
}

// Roles resolves many connections in one pass, for presence tallies.
// Connections with no recorded role are absent from the result.
func (d *Directory) Roles(ids []ConnID) map[ConnID]domain.Role {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[ConnID]domain.Role, len(ids))
	for _, id := range ids {
		if e, ok := d.entries[id]; ok && e.role != "" {
			out[id] = e.role
		}
	}
	return out
}

// Clear drops both room and role for a connection.
func (d *Directory) Clear(id ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, id)
	log.Debug().Str("module", "core.directory").Str("conn", string(id)).Msg("connection cleared")
}
