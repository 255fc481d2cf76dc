package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerdeck/peerdeck/internal/core"
	"github.com/peerdeck/peerdeck/internal/domain"
)

// recorder is a Sender that keeps every frame for inspection.
type recorder struct {
	frames [][]byte
}

func (r *recorder) TrySend(data []byte) error {
	r.frames = append(r.frames, data)
	return nil
}

func (r *recorder) last(t *testing.T) map[string]any {
	t.Helper()
	require.NotEmpty(t, r.frames)
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.frames[len(r.frames)-1], &out))
	return out
}

func (r *recorder) events(t *testing.T) []string {
	t.Helper()
	out := make([]string, 0, len(r.frames))
	for _, frame := range r.frames {
		var env struct {
			Event string `json:"event"`
		}
		require.NoError(t, json.Unmarshal(frame, &env))
		out = append(out, env.Event)
	}
	return out
}

func (r *recorder) reset() { r.frames = nil }

type fixture struct {
	store *core.Store
	dir   *core.Directory
	hub   *core.Hub
	d     *Dispatcher
}

func newFixture(ttl time.Duration) *fixture {
	store := core.NewStore(ttl)
	dir := core.NewDirectory()
	hub := core.NewHub()
	return &fixture{
		store: store,
		dir:   dir,
		hub:   hub,
		d:     NewDispatcher(store, dir, hub, 64, time.Minute),
	}
}

func (f *fixture) connect(id core.ConnID) *recorder {
	r := &recorder{}
	f.hub.Register(id, r)
	return r
}

func (f *fixture) send(conn core.ConnID, frame string) {
	f.d.dispatch(Inbound{Conn: conn, Data: []byte(frame)})
}

func TestCreateRoomGeneratesEditorKey(t *testing.T) {
	f := newFixture(time.Hour)
	ed := f.connect("ed")

	f.send("ed", `{"event":"create-or-join","roomId":"deck"}`)

	require.Equal(t, []string{"join-success", "room-status"}, ed.events(t))
	var success struct {
		EditorKey string `json:"editorKey"`
	}
	require.NoError(t, json.Unmarshal(ed.frames[0], &success))
	assert.NotEmpty(t, success.EditorKey, "server must generate a key when none is supplied")

	role, _ := f.dir.Role("ed")
	assert.Equal(t, domain.RoleEditor, role)

	room, ok := f.store.Get("deck")
	require.True(t, ok)
	assert.Equal(t, success.EditorKey, room.EditorKey)
}

func TestViewerJoinBlanksEditorKey(t *testing.T) {
	f := newFixture(time.Hour)
	ed := f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"topsecret"}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)

	require.Contains(t, vw.events(t), "join-success")
	var success struct {
		EditorKey      string `json:"editorKey"`
		ViewerPassword string `json:"viewerPassword"`
	}
	require.NoError(t, json.Unmarshal(vw.frames[0], &success))
	assert.Empty(t, success.EditorKey)
	assert.Empty(t, success.ViewerPassword)

	role, _ := f.dir.Role("vw")
	assert.Equal(t, domain.RoleViewer, role)

	// The creator's key survives the viewer join.
	room, _ := f.store.Get("deck")
	assert.Equal(t, "topsecret", room.EditorKey)

	// Presence is broadcast to the whole room, editor included.
	status := ed.last(t)
	assert.Equal(t, "room-status", status["event"])
	assert.Equal(t, float64(2), status["connected"])
	assert.Equal(t, float64(1), status["viewers"])
	assert.Equal(t, float64(1), status["editors"])
}

func TestJoinWithWrongPassword(t *testing.T) {
	f := newFixture(time.Hour)
	f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k","viewerPassword":"secret"}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck","viewerPassword":"wrong"}`)

	denial := vw.last(t)
	assert.Equal(t, "join-error", denial["event"])
	assert.Equal(t, "Room has viewer password set but did not match", denial["reason"])

	// The denied connection holds no room mapping and no membership.
	_, ok := f.dir.Room("vw")
	assert.False(t, ok)
	assert.Equal(t, []core.ConnID{"ed"}, f.hub.MembersOf("deck"))
}

func TestViewerCannotMutate(t *testing.T) {
	f := newFixture(time.Hour)
	f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("ed", `{"event":"editor-slides","roomId":"deck","editorKey":"k","slides":[{"id":"s1","state":{}}]}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	vw.reset()

	f.send("vw", `{"event":"editor-slides","roomId":"deck","slides":[]}`)

	denial := vw.last(t)
	assert.Equal(t, "join-error", denial["event"])
	assert.Equal(t, "Bad editor key, cannot update", denial["reason"])

	room, _ := f.store.Get("deck")
	assert.Len(t, room.Slides, 1, "denied mutation must not be applied")
}

func TestMutationOnMissingRoomFailsClosed(t *testing.T) {
	f := newFixture(time.Hour)
	ed := f.connect("ed")

	f.send("ed", `{"event":"editor-controls","roomId":"ghost","editorKey":"k","slideId":"s1","state":{"controls":{}}}`)

	denial := ed.last(t)
	assert.Equal(t, "join-error", denial["event"])
	assert.Equal(t, "Room not found", denial["reason"])
}

func TestElementUpdateRelayedExceptSender(t *testing.T) {
	f := newFixture(time.Hour)
	ed := f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("ed", `{"event":"editor-slides","roomId":"deck","editorKey":"k","slides":[{"id":"s1","state":{}}]}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	ed.reset()
	vw.reset()

	f.send("ed", `{"event":"editor-elements","roomId":"deck","editorKey":"k","slideId":"s1","state":{"elements":[{"x":1}]}}`)

	room, _ := f.store.Get("deck")
	assert.Len(t, room.Slides[0].State.Elements, 1)

	update := vw.last(t)
	assert.Equal(t, "update-elements", update["event"])
	assert.Equal(t, "s1", update["slideId"])
	_, leaked := update["editorKey"]
	assert.False(t, leaked, "editor key must not be relayed")

	assert.Empty(t, ed.frames, "sender must not receive its own broadcast")
}

func TestElementBounding(t *testing.T) {
	f := newFixture(time.Hour)
	f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("ed", `{"event":"editor-slides","roomId":"deck","editorKey":"k","slides":[{"id":"s1","state":{}}]}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	vw.reset()

	elems := strings.TrimSuffix(strings.Repeat(`{},`, 5000), ",")
	f.send("ed", fmt.Sprintf(`{"event":"editor-elements","roomId":"deck","editorKey":"k","slideId":"s1","state":{"elements":[%s]}}`, elems))

	room, _ := f.store.Get("deck")
	assert.Len(t, room.Slides[0].State.Elements, domain.MaxStateSeqLen)

	var update struct {
		State domain.SlideState `json:"state"`
	}
	require.NoError(t, json.Unmarshal(vw.frames[len(vw.frames)-1], &update))
	assert.Len(t, update.State.Elements, domain.MaxStateSeqLen, "broadcast array is bounded too")
}

func TestDuplicateControlsSuppressed(t *testing.T) {
	f := newFixture(time.Hour)
	f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("ed", `{"event":"editor-slides","roomId":"deck","editorKey":"k","slides":[{"id":"s1","state":{}}]}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	vw.reset()

	frame := `{"event":"editor-controls","roomId":"deck","editorKey":"k","slideId":"s1","state":{"controls":{"page":2,"selectedSp":"sp1"}}}`
	f.send("ed", frame)
	assert.Len(t, vw.frames, 1)

	f.send("ed", frame)
	assert.Len(t, vw.frames, 1, "identical controls must not broadcast again")
}

func TestUnknownSlideUpdateIsSilentNoop(t *testing.T) {
	f := newFixture(time.Hour)
	ed := f.connect("ed")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("ed", `{"event":"editor-slides","roomId":"deck","editorKey":"k","slides":[{"id":"s1","state":{}}]}`)
	ed.reset()

	f.send("ed", `{"event":"editor-drawings","roomId":"deck","editorKey":"k","slideId":"ghost","state":{"drawings":[{}]}}`)

	assert.Empty(t, ed.events(t), "no error surfaces to the sender")
	room, _ := f.store.Get("deck")
	assert.Len(t, room.Slides, 1)
	assert.Nil(t, room.Slides[0].State.Drawings)
}

func TestPasswordChangeAndRetrieval(t *testing.T) {
	f := newFixture(time.Hour)
	ed := f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	ed.reset()
	vw.reset()

	f.send("ed", `{"event":"update-room-pw","roomId":"deck","editorKey":"k","viewerPassword":"hush"}`)

	// The whole room hears that a password now exists, nothing more.
	for _, r := range []*recorder{ed, vw} {
		change := r.last(t)
		assert.Equal(t, "room-pw-change", change["event"])
		assert.Equal(t, false, change["blankPw"])
		_, leaked := change["viewerPassword"]
		assert.False(t, leaked)
	}

	vw.reset()
	f.send("ed", `{"event":"editor-get-pw","roomId":"deck","editorKey":"k"}`)
	snapshot := ed.last(t)
	assert.Equal(t, "editor-get-pw", snapshot["event"])
	assert.Equal(t, "hush", snapshot["viewerPassword"])
	assert.Empty(t, vw.frames, "snapshot goes to the requester only")
}

func TestLeaveAndDisconnectUpdatePresence(t *testing.T) {
	f := newFixture(time.Hour)
	ed := f.connect("ed")
	f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	ed.reset()

	f.send("vw", `{"event":"leave-room","roomId":"deck"}`)

	status := ed.last(t)
	assert.Equal(t, "room-status", status["event"])
	assert.Equal(t, float64(1), status["connected"])
	assert.Equal(t, float64(0), status["viewers"])

	_, ok := f.dir.Room("vw")
	assert.False(t, ok)

	// Viewer rejoins, then its socket dies.
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	ed.reset()
	f.d.dispatch(Inbound{Conn: "vw", Gone: true})

	status = ed.last(t)
	assert.Equal(t, "room-status", status["event"])
	assert.Equal(t, float64(1), status["connected"])
	assert.Equal(t, []core.ConnID{"ed"}, f.hub.MembersOf("deck"), "only the editor remains")
}

func TestRoomExpiryNotifiesMembersOnce(t *testing.T) {
	f := newFixture(30 * time.Millisecond)
	ed := f.connect("ed")
	vw := f.connect("vw")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"k"}`)
	f.send("vw", `{"event":"create-or-join","roomId":"deck"}`)
	ed.reset()
	vw.reset()

	time.Sleep(50 * time.Millisecond)
	f.d.expireRooms(time.Now())

	assert.Equal(t, []string{"room-expired"}, ed.events(t))
	assert.Equal(t, []string{"room-expired"}, vw.events(t))
	assert.False(t, f.store.Has("deck"))
	_, ok := f.dir.Room("ed")
	assert.False(t, ok)

	// A second sweep is quiet.
	ed.reset()
	f.d.expireRooms(time.Now())
	assert.Empty(t, ed.frames)
}

func TestEditorKeyImmutableAcrossViewerJoins(t *testing.T) {
	f := newFixture(time.Hour)
	f.connect("ed")

	f.send("ed", `{"event":"create-or-join","roomId":"deck","editorKey":"original"}`)
	for i := 0; i < 5; i++ {
		id := core.ConnID(fmt.Sprintf("vw%d", i))
		f.connect(id)
		f.send(id, fmt.Sprintf(`{"event":"create-or-join","roomId":"deck","editorKey":"guess%d"}`, i))
	}

	room, _ := f.store.Get("deck")
	assert.Equal(t, "original", room.EditorKey)
}

func TestMalformedFramesNeverFault(t *testing.T) {
	f := newFixture(time.Hour)
	f.connect("ed")

	f.send("ed", `not json at all`)
	f.send("ed", `{"event":"no-such-event"}`)
	f.send("ed", `{"event":"editor-controls"}`)
	f.send("ed", `{"event":"create-or-join"}`)
	f.send("ed", `{"event":"leave-room"}`)

	assert.Equal(t, 0, f.store.Len())
}
