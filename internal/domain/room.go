// Package domain contains session entities without transport or lifecycle logic.
package domain

import "encoding/json"

type RoomID string

type Role string

const (
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// SlideState is the live sub-state of a slide. Each field is replaced
// wholesale on update, last write wins.
type SlideState struct {
	Controls map[string]any    `json:"controls,omitempty"`
	Elements []json.RawMessage `json:"elements,omitempty"`
	Drawings []json.RawMessage `json:"drawings,omitempty"`
}

type Slide struct {
	ID    string     `json:"id"`
	State SlideState `json:"state"`
}

// Room is a named collaborative session. EditorKey is immutable once set;
// ViewerPassword empty means no password. State mirrors the sub-state of the
// slide currently being presented and is dropped when Slides is replaced.
type Room struct {
	ID             RoomID      `json:"roomId"`
	EditorKey      string      `json:"editorKey"`
	ViewerPassword string      `json:"viewerPassword"`
	Slides         []Slide     `json:"slides"`
	State          *SlideState `json:"state,omitempty"`
}

func NewRoom(id RoomID, editorKey, viewerPassword string) *Room {
	return &Room{
		ID:             id,
		EditorKey:      editorKey,
		ViewerPassword: viewerPassword,
		Slides:         []Slide{},
	}
}

// FindSlide returns the slide with the given id, linear scan.
func (r *Room) FindSlide(id string) *Slide {
	for i := range r.Slides {
		if r.Slides[i].ID == id {
			return &r.Slides[i]
		}
	}
	return nil
}

// ViewFor returns a copy of the room shaped for the given role. Viewers never
// see the editor key.
func (r *Room) ViewFor(role Role) Room {
	view := *r
	if role != RoleEditor {
		view.EditorKey = ""
	}
	return view
}
