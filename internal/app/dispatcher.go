package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

// Inbound is one queued transport event. Data is nil for a disconnect.
type Inbound struct {
	Conn core.ConnID
	Data []byte
	Gone bool
}

// Dispatcher is the protocol state machine. All inbound events for all
// connections drain through one queue processed by a single goroutine, so
// handler bodies mutate room and connection state without locking against
// each other. The expiry sweep ticks inside the same loop for the same
// reason.
type Dispatcher struct {
	store    *core.Store
	dir      *core.Directory
	hub      *core.Hub
	presence *Presence

	queue chan Inbound
	sweep time.Duration
}

func NewDispatcher(store *core.Store, dir *core.Directory, hub *core.Hub, queueSize int, sweep time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 512
	}
	return &Dispatcher{
		store:    store,
		dir:      dir,
		hub:      hub,
		presence: NewPresence(hub, dir),
		queue:    make(chan Inbound, queueSize),
		sweep:    sweep,
	}
}

func (d *Dispatcher) Presence() *Presence { return d.presence }

// Enqueue hands a transport event to the dispatcher without blocking.
// Returns false if the queue is full and the event was dropped.
func (d *Dispatcher) Enqueue(ev Inbound) bool {
	select {
	case d.queue <- ev:
		return true
	default:
		log.Warn().Str("module", "app.dispatcher").Str("conn", string(ev.Conn)).Msg("queue full, event dropped")
		return false
	}
}

// Run processes the queue until ctx is done. It should run in exactly one
// goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	log.Info().Str("module", "app.dispatcher").Msg("dispatcher running")
	ticker := time.NewTicker(d.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.dispatcher").Msg("dispatcher stopped")
			return
		case ev := <-d.queue:
			d.dispatch(ev)
		case now := <-ticker.C:
			d.expireRooms(now)
		}
	}
}

func (d *Dispatcher) dispatch(ev Inbound) {
	if ev.Gone {
		d.handleDisconnect(ev.Conn)
		return
	}

	var env envelope
	if err := json.Unmarshal(ev.Data, &env); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Str("conn", string(ev.Conn)).Msg("bad json frame")
		return
	}

	switch env.Event {
	case EvtCreateOrJoin:
		d.handleJoin(ev.Conn, ev.Data)
	case EvtEditorControls:
		d.handleState(ev.Conn, ev.Data, FieldControls)
	case EvtEditorElements:
		d.handleState(ev.Conn, ev.Data, FieldElements)
	case EvtEditorDrawings:
		d.handleState(ev.Conn, ev.Data, FieldDrawings)
	case EvtEditorSlides:
		d.handleSlides(ev.Conn, ev.Data)
	case EvtUpdateRoomPw:
		d.handleUpdatePassword(ev.Conn, ev.Data)
	case EvtEditorGetPw:
		d.handleGetPassword(ev.Conn, ev.Data)
	case EvtLeaveRoom:
		d.handleLeave(ev.Conn)
	default:
		log.Warn().Str("module", "app.dispatcher").Str("event", env.Event).Msg("unknown event")
	}
}

// expireRooms publishes room-expired to each dead room's members and drops
// their memberships. Ticks are serialized with message handling, so no
// handler ever observes a half-expired room.
func (d *Dispatcher) expireRooms(now time.Time) {
	for _, roomID := range d.store.SweepExpired(now) {
		members := d.hub.MembersOf(roomID)
		d.hub.EmitToRoom(roomID, roomExpiredMsg{Event: EvtRoomExpired})
		for _, member := range members {
			d.dir.SetRoom(member, "")
			d.hub.LeaveRoom(member, roomID)
		}
		log.Info().Str("module", "app.dispatcher").Str("room", string(roomID)).Int("members", len(members)).Msg("room expired, members notified")
	}
}

func (d *Dispatcher) sendError(conn core.ConnID, err error) {
	d.hub.EmitTo(conn, joinErrorMsg{Event: EvtJoinError, Reason: err.Error()})
}

func (d *Dispatcher) broadcastStatus(roomID domain.RoomID) {
	d.hub.EmitToRoom(roomID, roomStatusMsg{Event: EvtRoomStatus, RoomStatus: d.presence.Status(roomID)})
}
