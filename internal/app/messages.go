package app

import (
	"github.com/peerdeck/peerdeck/internal/domain"
)

// Inbound event names. Every frame is a flat JSON object tagged by "event".
const (
	EvtCreateOrJoin   = "create-or-join"
	EvtEditorControls = "editor-controls"
	EvtEditorElements = "editor-elements"
	EvtEditorDrawings = "editor-drawings"
	EvtEditorSlides   = "editor-slides"
	EvtLeaveRoom      = "leave-room"
	EvtUpdateRoomPw   = "update-room-pw"
	EvtEditorGetPw    = "editor-get-pw"
)

// Outbound event names.
const (
	EvtJoinSuccess    = "join-success"
	EvtJoinError      = "join-error"
	EvtRoomStatus     = "room-status"
	EvtUpdateControls = "update-controls"
	EvtUpdateElements = "update-elements"
	EvtUpdateDrawings = "update-drawings"
	EvtUpdateSlides   = "update-slides"
	EvtRoomPwChange   = "room-pw-change"
	EvtRoomExpired    = "room-expired"
)

type envelope struct {
	Event string `json:"event"`
}

type joinPayload struct {
	RoomID         string `json:"roomId"`
	EditorKey      string `json:"editorKey"`
	ViewerPassword string `json:"viewerPassword"`
}

type statePayload struct {
	RoomID    string            `json:"roomId"`
	EditorKey string            `json:"editorKey"`
	SlideID   string            `json:"slideId"`
	State     domain.SlideState `json:"state"`
}

type slidesPayload struct {
	RoomID    string         `json:"roomId"`
	EditorKey string         `json:"editorKey"`
	Slides    []domain.Slide `json:"slides"`
}

type passwordPayload struct {
	RoomID         string `json:"roomId"`
	EditorKey      string `json:"editorKey"`
	ViewerPassword string `json:"viewerPassword"`
}

type joinSuccessMsg struct {
	Event string `json:"event"`
	domain.Room
}

type joinErrorMsg struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

type roomStatusMsg struct {
	Event string `json:"event"`
	RoomStatus
}

// updateStateMsg relays a state mutation to the rest of the room. The editor
// key is never relayed.
type updateStateMsg struct {
	Event   string            `json:"event"`
	RoomID  domain.RoomID     `json:"roomId"`
	SlideID string            `json:"slideId"`
	State   domain.SlideState `json:"state"`
}

type updateSlidesMsg struct {
	Event  string         `json:"event"`
	RoomID domain.RoomID  `json:"roomId"`
	Slides []domain.Slide `json:"slides"`
}

type roomPwChangeMsg struct {
	Event   string `json:"event"`
	BlankPw bool   `json:"blankPw"`
}

type roomExpiredMsg struct {
	Event string `json:"event"`
}

type getPwMsg struct {
	Event string `json:"event"`
	domain.Room
}
