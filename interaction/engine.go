// Package interaction turns pointer input into object transforms.
//
// A gesture runs Idle -> Active -> Idle. Every move is computed from the
// object as it was at pointer-down, so replaying the same pointer position
// always yields the same result.
package interaction

import (
	"labelpro/canvas"
)

type Kind string

const (
	KindDrag   Kind = "drag"
	KindResize Kind = "resize"
	KindRotate Kind = "rotate"
)

type Handle string

const (
	HandleBody   Handle = ""
	HandleNW     Handle = "nw"
	HandleNE     Handle = "ne"
	HandleSW     Handle = "sw"
	HandleSE     Handle = "se"
	HandleRotate Handle = "rotate"
)

// KindOf maps a handle to the gesture it starts.
func KindOf(h Handle) (Kind, bool) {
	switch h {
	case HandleBody:
		return KindDrag, true
	case HandleNW, HandleNE, HandleSW, HandleSE:
		return KindResize, true
	case HandleRotate:
		return KindRotate, true
	}
	return "", false
}

// View maps client coordinates onto the canvas.
type View struct {
	OriginX float64
	OriginY float64
	Zoom    float64
}

// ToCanvas converts a client position to canvas-local units.
func (v View) ToCanvas(clientX, clientY float64) (float64, float64) {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return (clientX - v.OriginX) / zoom, (clientY - v.OriginY) / zoom
}

// Session is the state of one active gesture.
type Session struct {
	PointerID int
	ObjectID  string
	Kind      Kind
	Handle    Handle
	StartX    float64
	StartY    float64
	Origin    canvas.Object
	Current   canvas.Object
}

// Engine owns at most one gesture at a time. The pointer id that opened the
// session is its owner; input from any other pointer is ignored. Engine is not
// safe for concurrent use.
type Engine struct {
	View    View
	session *Session
}

func NewEngine(view View) *Engine {
	return &Engine{View: view}
}

func (e *Engine) Active() bool { return e.session != nil }

// Session returns a copy of the active session.
func (e *Engine) Session() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// PointerDown opens a gesture on obj. It reports false when a gesture is
// already active or the handle is unknown.
func (e *Engine) PointerDown(pointerID int, obj canvas.Object, handle Handle, clientX, clientY float64) bool {
	if e.session != nil || obj == nil {
		return false
	}
	kind, ok := KindOf(handle)
	if !ok {
		return false
	}
	x, y := e.View.ToCanvas(clientX, clientY)
	e.session = &Session{
		PointerID: pointerID,
		ObjectID:  obj.Attrs().ID,
		Kind:      kind,
		Handle:    handle,
		StartX:    x,
		StartY:    y,
		Origin:    obj,
		Current:   obj,
	}
	return true
}

// PointerMove returns the object transformed for the pointer position. It
// reports false when pointerID does not own the active gesture.
func (e *Engine) PointerMove(pointerID int, clientX, clientY float64) (canvas.Object, bool) {
	s := e.session
	if s == nil || s.PointerID != pointerID {
		return nil, false
	}
	x, y := e.View.ToCanvas(clientX, clientY)
	dx, dy := x-s.StartX, y-s.StartY
	origin := s.Origin.Attrs()

	var next canvas.Base
	switch s.Kind {
	case KindDrag:
		next = Drag(origin, dx, dy)
	case KindResize:
		next = Resize(origin, s.Handle, dx, dy)
	case KindRotate:
		next = Rotate(origin, s.StartX, s.StartY, x, y)
	default:
		return nil, false
	}
	s.Current = s.Origin.WithAttrs(next)
	return s.Current, true
}

// PointerUp ends the gesture owned by pointerID and returns it.
func (e *Engine) PointerUp(pointerID int) (Session, bool) {
	if e.session == nil || e.session.PointerID != pointerID {
		return Session{}, false
	}
	return e.end(), true
}

// PointerLeave ends any active gesture, as if its pointer had been released.
func (e *Engine) PointerLeave() (Session, bool) {
	if e.session == nil {
		return Session{}, false
	}
	return e.end(), true
}

func (e *Engine) end() Session {
	s := *e.session
	e.session = nil
	return s
}
