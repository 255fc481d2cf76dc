package app

import (
	"errors"

	"github.com/peerdeck/peerdeck/internal/domain"
)

// Denial reasons double as wire-level join-error messages, hence the casing.
var (
	ErrRoomNotFound       = errors.New("Room not found")
	ErrBadEditorKey       = errors.New("Bad editor key")
	ErrViewerPassword     = errors.New("Room has viewer password set but did not match")
	ErrBadEditorKeyUpdate = errors.New("Bad editor key, cannot update")
)

// AuthorizeJoin validates join credentials against a room. A nil room fails
// closed instead of being dereferenced.
func AuthorizeJoin(room *domain.Room, editorKey, viewerPassword string) error {
	if room == nil {
		return ErrRoomNotFound
	}
	if editorKey != "" && editorKey != room.EditorKey {
		return ErrBadEditorKey
	}
	if room.ViewerPassword != "" && room.ViewerPassword != viewerPassword {
		return ErrViewerPassword
	}
	return nil
}

// AuthorizeMutation is the stricter check for slide/control/element/drawing/
// password updates: the editor key must be present and match exactly.
func AuthorizeMutation(room *domain.Room, editorKey string) error {
	if room == nil {
		return ErrRoomNotFound
	}
	if editorKey == "" || editorKey != room.EditorKey {
		return ErrBadEditorKeyUpdate
	}
	return nil
}

// ResolveRole decides the role for a successful join. A supplied key that did
// not grant editor is discarded so a connection can never retain a wrong key.
func ResolveRole(room *domain.Room, editorKey string) domain.Role {
	if editorKey != "" && editorKey == room.EditorKey {
		return domain.RoleEditor
	}
	return domain.RoleViewer
}
