package app

import (
	"github.com/rs/zerolog/log"

	"github.com/peerdeck/peerdeck/internal/domain"
)

// StateField names one independently updatable part of a slide's state.
type StateField string

const (
	FieldControls StateField = "controls"
	FieldElements StateField = "elements"
	FieldDrawings StateField = "drawings"
)

// ApplyPartial replaces one field of one slide's state wholesale,
// last write wins. Sequences are bounded to the stored cap. An unknown slide
// id is a logged no-op; it never creates the slide and never errors.
// Returns whether a slide was updated so the caller can decide to extend the
// room's lifetime.
func ApplyPartial(room *domain.Room, slideID string, field StateField, state domain.SlideState) bool {
	slide := room.FindSlide(slideID)
	if slide == nil {
		log.Warn().Str("module", "app.merge").Str("room", string(room.ID)).Str("slide", slideID).Msg("update for unknown slide dropped")
		return false
	}
	switch field {
	case FieldControls:
		slide.State.Controls = state.Controls
	case FieldElements:
		slide.State.Elements = domain.CleanSeq(state.Elements, domain.MaxStateSeqLen)
	case FieldDrawings:
		slide.State.Drawings = domain.CleanSeq(state.Drawings, domain.MaxStateSeqLen)
	}
	return true
}
