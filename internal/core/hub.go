package core

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/domain"
)

// Hub is the in-process pub/sub substrate: it tracks which connections are
// members of which room and fans frames out to them. It never closes
// adapter-owned resources.
type Hub struct {
	mu     sync.RWMutex
	conns  map[ConnID]Sender
	rooms  map[domain.RoomID]map[ConnID]struct{}
	byConn map[ConnID]domain.RoomID
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[ConnID]Sender),
		rooms:  make(map[domain.RoomID]map[ConnID]struct{}),
		byConn: make(map[ConnID]domain.RoomID),
	}
}

// Register makes a connection addressable. Must happen before any join.
func (h *Hub) Register(id ConnID, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = s
	log.Info().Str("module", "core.hub").Str("conn", string(id)).Msg("connection registered")
}

// Unregister drops the connection and any room membership it still holds.
func (h *Hub) Unregister(id ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.byConn[id]; ok {
		h.dropMember(room, id)
	}
	delete(h.conns, id)
	log.Info().Str("module", "core.hub").Str("conn", string(id)).Msg("connection unregistered")
}

func (h *Hub) JoinRoom(id ConnID, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.byConn[id]; ok && prev != room {
		h.dropMember(prev, id)
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[ConnID]struct{})
		h.rooms[room] = members
	}
	members[id] = struct{}{}
	h.byConn[id] = room
}

func (h *Hub) LeaveRoom(id ConnID, room domain.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropMember(room, id)
}

// dropMember removes id from a room set; caller holds the write lock.
func (h *Hub) dropMember(room domain.RoomID, id ConnID) {
	if members, ok := h.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if h.byConn[id] == room {
		delete(h.byConn, id)
	}
}

// MembersOf returns the current membership of a room.
func (h *Hub) MembersOf(room domain.RoomID) []ConnID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.rooms[room]
	out := make([]ConnID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// EmitTo sends one event to one connection.
func (h *Hub) EmitTo(id ConnID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.hub").Msg("emit marshal")
		return
	}
	h.mu.RLock()
	s, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := s.TrySend(data); err != nil {
		log.Warn().Str("module", "core.hub").Str("conn", string(id)).Msg("frame dropped")
	}
}

// EmitToRoom fans one event out to every member of a room.
func (h *Hub) EmitToRoom(room domain.RoomID, v any) {
	h.emitRoom(room, "", v)
}

// EmitToRoomExcept fans one event out to every member except the sender.
func (h *Hub) EmitToRoomExcept(room domain.RoomID, except ConnID, v any) {
	h.emitRoom(room, except, v)
}

func (h *Hub) emitRoom(room domain.RoomID, except ConnID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.hub").Msg("emit marshal")
		return
	}

	h.mu.RLock()
	targets := make([]Sender, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		if id == except {
			continue
		}
		if s, ok := h.conns[id]; ok {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	dropped := 0
	for _, s := range targets {
		if err := s.TrySend(data); err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		log.Warn().Str("module", "core.hub").Str("room", string(room)).Int("dropped", dropped).Msg("slow members skipped")
	}
}
