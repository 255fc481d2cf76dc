package app

import (
	"encoding/json"
	"reflect"

	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

var updateEventFor = map[StateField]string{
	FieldControls: EvtUpdateControls,
	FieldElements: EvtUpdateElements,
	FieldDrawings: EvtUpdateDrawings,
}

// handleState applies one bounded partial update to one slide and relays it
// to the rest of the room.
func (d *Dispatcher) handleState(conn core.ConnID, data []byte, field StateField) {
	var p statePayload
	_ = json.Unmarshal(data, &p)

	roomID := domain.RoomID(domain.CleanString(p.RoomID, domain.MaxStringLen))
	editorKey := domain.CleanString(p.EditorKey, domain.MaxStringLen)
	slideID := domain.CleanString(p.SlideID, domain.MaxStringLen)

	room, _ := d.store.Get(roomID)
	if err := AuthorizeMutation(room, editorKey); err != nil {
		d.sendError(conn, err)
		return
	}

	state := domain.CleanState(p.State)

	// Identical controls resubmitted by polling-style senders are a no-op:
	// no merge, no broadcast.
	if field == FieldControls && room.State != nil && reflect.DeepEqual(state.Controls, room.State.Controls) {
		log.Debug().Str("module", "app.state").Str("room", string(roomID)).Msg("duplicate controls suppressed")
		return
	}

	// Merging through the stored slide extends the room's lifetime; the
	// live mirror below deliberately does not on its own.
	if ApplyPartial(room, slideID, field, state) {
		d.store.Touch(roomID)
	}
	d.mirrorState(room, field, state)

	d.hub.EmitToRoomExcept(roomID, conn, updateStateMsg{
		Event:   updateEventFor[field],
		RoomID:  roomID,
		SlideID: slideID,
		State:   boundedState(field, state),
	})
}

// mirrorState keeps room.State tracking the slide currently on screen so late
// reads see the live value without walking the slide list.
func (d *Dispatcher) mirrorState(room *domain.Room, field StateField, state domain.SlideState) {
	if room.State == nil {
		room.State = &domain.SlideState{}
	}
	switch field {
	case FieldControls:
		room.State.Controls = state.Controls
	case FieldElements:
		room.State.Elements = domain.CleanSeq(state.Elements, domain.MaxStateSeqLen)
	case FieldDrawings:
		room.State.Drawings = domain.CleanSeq(state.Drawings, domain.MaxStateSeqLen)
	}
}

// boundedState shapes the relayed payload: only the updated field, bounded to
// what was stored.
func boundedState(field StateField, state domain.SlideState) domain.SlideState {
	var out domain.SlideState
	switch field {
	case FieldControls:
		out.Controls = state.Controls
	case FieldElements:
		out.Elements = domain.CleanSeq(state.Elements, domain.MaxStateSeqLen)
	case FieldDrawings:
		out.Drawings = domain.CleanSeq(state.Drawings, domain.MaxStateSeqLen)
	}
	return out
}

// handleSlides replaces the room's slide list wholesale and re-inserts the
// room, resetting its expiry. The live state mirror does not survive the
// replacement.
func (d *Dispatcher) handleSlides(conn core.ConnID, data []byte) {
	var p slidesPayload
	_ = json.Unmarshal(data, &p)

	roomID := domain.RoomID(domain.CleanString(p.RoomID, domain.MaxStringLen))
	editorKey := domain.CleanString(p.EditorKey, domain.MaxStringLen)

	room, _ := d.store.Get(roomID)
	if err := AuthorizeMutation(room, editorKey); err != nil {
		d.sendError(conn, err)
		return
	}

	slides := domain.CleanSlides(p.Slides)
	room.Slides = slides
	room.State = nil
	d.store.Set(roomID, room)

	d.hub.EmitToRoomExcept(roomID, conn, updateSlidesMsg{
		Event:  EvtUpdateSlides,
		RoomID: roomID,
		Slides: slides,
	})
	log.Info().Str("module", "app.state").Str("room", string(roomID)).Int("slides", len(slides)).Msg("slides replaced")
}
