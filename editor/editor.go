// Package editor binds the object model, undo history, pointer gestures and
// layer ordering into one editing session for a single label canvas.
package editor

import (
	"encoding/json"

	"labelpro/canvas"
	"labelpro/history"
	"labelpro/interaction"
	"labelpro/layers"
)

// Editor is a single-user editing session. Every change to the object list
// goes through the history so it can be undone; a pointer gesture is
// committed once, when it ends. Editor is not safe for concurrent use.
type Editor struct {
	settings canvas.Settings
	extra    map[string]json.RawMessage

	history  *history.History[[]canvas.Object]
	engine   *interaction.Engine
	live     []canvas.Object // object list while a gesture is active
	selected string
}

// New opens an editing session on t.
func New(t canvas.Template, view interaction.View) *Editor {
	h := history.New(t.Objects, history.WithEqual(history.SameSlice[canvas.Object]))
	e := &Editor{engine: interaction.NewEngine(view), history: h}
	e.setTemplate(t)
	return e
}

func (e *Editor) setTemplate(t canvas.Template) {
	e.settings = t.Settings
	e.extra = t.Extra
}

// Load replaces the session with a fresh state built from t.
func (e *Editor) Load(t canvas.Template) {
	e.engine.PointerLeave()
	e.live = nil
	e.selected = ""
	e.history.Reset(t.Objects)
	e.setTemplate(t)
}

// Template serializes the current state for saving.
func (e *Editor) Template() canvas.Template {
	return canvas.Template{Settings: e.settings, Objects: canvas.Clone(e.Objects()), Extra: e.extra}
}

// Objects is the list to paint, bottom first.
func (e *Editor) Objects() []canvas.Object {
	if e.live != nil {
		return e.live
	}
	return e.history.Present()
}

func (e *Editor) Settings() canvas.Settings { return e.settings }

// SetSettings replaces the canvas settings. Settings are not part of the
// undo history.
func (e *Editor) SetSettings(s canvas.Settings) { e.settings = s }

// SetView updates the zoom and canvas origin used to read pointer input.
func (e *Editor) SetView(v interaction.View) { e.engine.View = v }

func (e *Editor) View() interaction.View { return e.engine.View }

// Selected returns the selected object id.
func (e *Editor) Selected() (string, bool) {
	return e.selected, e.selected != ""
}

// Select makes id the only selected object. Unknown ids clear the selection.
func (e *Editor) Select(id string) {
	if canvas.IndexOf(e.Objects(), id) < 0 {
		id = ""
	}
	e.selected = id
}

func (e *Editor) ClearSelection() { e.selected = "" }

func (e *Editor) commit(next []canvas.Object) {
	e.finishGesture()
	e.history.Set(next)
	if e.selected != "" && canvas.IndexOf(next, e.selected) < 0 {
		e.selected = ""
	}
}

// Add places o on top of the stack and selects it.
func (e *Editor) Add(o canvas.Object) {
	e.commit(canvas.Add(e.Objects(), o))
	e.selected = o.Attrs().ID
}

// Update swaps in a full replacement for the object with the same id.
func (e *Editor) Update(o canvas.Object) {
	e.commit(canvas.Replace(e.Objects(), o))
}

// Patch applies a property edit to id.
func (e *Editor) Patch(id string, p canvas.Patch) {
	e.commit(canvas.PatchByID(e.Objects(), id, p))
}

// Delete removes id and drops it from the selection.
func (e *Editor) Delete(id string) {
	e.commit(layers.Delete(e.Objects(), id))
}

func (e *Editor) BringForward(id string) {
	e.commit(layers.BringForward(e.Objects(), id))
}

func (e *Editor) SendBackward(id string) {
	e.commit(layers.SendBackward(e.Objects(), id))
}

func (e *Editor) Undo() bool {
	e.finishGesture()
	ok := e.history.Undo()
	e.Select(e.selected)
	return ok
}

func (e *Editor) Redo() bool {
	e.finishGesture()
	ok := e.history.Redo()
	e.Select(e.selected)
	return ok
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// PointerDown handles a press on the canvas. An empty id is a press on bare
// canvas and clears the selection. A press on an object selects it and
// starts a gesture; it reports false when the press was ignored.
func (e *Editor) PointerDown(pointerID int, id string, handle interaction.Handle, clientX, clientY float64) bool {
	if e.engine.Active() {
		return false
	}
	if id == "" {
		e.selected = ""
		return true
	}
	obj, ok := canvas.Find(e.Objects(), id)
	if !ok {
		return false
	}
	if !e.engine.PointerDown(pointerID, obj, handle, clientX, clientY) {
		return false
	}
	e.selected = id
	e.live = e.history.Present()
	return true
}

// PointerMove updates the live object list for the active gesture.
func (e *Editor) PointerMove(pointerID int, clientX, clientY float64) {
	s, ok := e.engine.Session()
	if !ok || s.PointerID != pointerID {
		return
	}
	if canvas.IndexOf(e.live, s.ObjectID) < 0 {
		e.engine.PointerLeave()
		e.live = nil
		return
	}
	next, ok := e.engine.PointerMove(pointerID, clientX, clientY)
	if !ok {
		return
	}
	e.live = canvas.Replace(e.live, next)
}

// PointerUp ends the gesture and records it as one undo step.
func (e *Editor) PointerUp(pointerID int) {
	if s, ok := e.engine.Session(); !ok || s.PointerID != pointerID {
		return
	}
	e.finishGesture()
}

// PointerLeave treats leaving the canvas as releasing the pointer.
func (e *Editor) PointerLeave() {
	e.finishGesture()
}

func (e *Editor) finishGesture() {
	s, ok := e.engine.PointerLeave()
	live := e.live
	e.live = nil
	if !ok || live == nil {
		return
	}
	if sameGeometry(s.Origin.Attrs(), s.Current.Attrs()) {
		return
	}
	e.history.Set(live)
}

func sameGeometry(a, b canvas.Base) bool {
	return a.X == b.X && a.Y == b.Y && a.Width == b.Width &&
		a.Height == b.Height && a.Rotation == b.Rotation
}
