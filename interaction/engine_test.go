package interaction

import (
	"math"
	"testing"

	"labelpro/canvas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x, y, w, h float64) canvas.Image {
	img := canvas.NewImage("x.png")
	img.X, img.Y, img.Width, img.Height = x, y, w, h
	return img
}

func TestDrag_ExactDelta(t *testing.T) {
	deltas := [][2]float64{{0, 0}, {13.25, -7.5}, {-400, 1e6}, {0.1, 0.2}}
	for _, d := range deltas {
		b := Drag(box(10, 20, 50, 50).Base, d[0], d[1])
		assert.Equal(t, 10+d[0], b.X)
		assert.Equal(t, 20+d[1], b.Y)
		assert.Equal(t, 50.0, b.Width)
	}
}

func TestResize_Handles(t *testing.T) {
	origin := box(100, 100, 80, 60).Base

	se := Resize(origin, HandleSE, 10, 5)
	assert.Equal(t, [4]float64{100, 100, 90, 65}, [4]float64{se.X, se.Y, se.Width, se.Height})

	nw := Resize(origin, HandleNW, 10, 5)
	assert.Equal(t, [4]float64{110, 105, 70, 55}, [4]float64{nw.X, nw.Y, nw.Width, nw.Height})

	ne := Resize(origin, HandleNE, -10, -5)
	assert.Equal(t, [4]float64{100, 95, 70, 65}, [4]float64{ne.X, ne.Y, ne.Width, ne.Height})

	sw := Resize(origin, HandleSW, -10, 5)
	assert.Equal(t, [4]float64{90, 100, 90, 65}, [4]float64{sw.X, sw.Y, sw.Width, sw.Height})
}

func TestResize_FloorKeepsAnchoredEdge(t *testing.T) {
	origin := box(100, 100, 80, 60).Base

	nw := Resize(origin, HandleNW, 500, 500)
	assert.Equal(t, canvas.MinSize, nw.Width)
	assert.Equal(t, canvas.MinSize, nw.Height)
	assert.Equal(t, 180.0, nw.X+nw.Width, "right edge stays anchored")
	assert.Equal(t, 160.0, nw.Y+nw.Height, "bottom edge stays anchored")

	se := Resize(origin, HandleSE, -500, -500)
	assert.Equal(t, canvas.MinSize, se.Width)
	assert.Equal(t, canvas.MinSize, se.Height)
	assert.Equal(t, 100.0, se.X)
	assert.Equal(t, 100.0, se.Y)
}

func TestRotate_FullTurnReturnsToStart(t *testing.T) {
	origin := box(0, 0, 100, 100).Base
	origin.Rotation = 30
	cx, cy := origin.Center()
	startX, startY := cx+50, cy

	for step := 0; step <= 36; step++ {
		theta := float64(step) * 10 * math.Pi / 180
		x, y := cx+50*math.Cos(theta), cy+50*math.Sin(theta)
		b := Rotate(origin, startX, startY, x, y)
		want := NormalizeDegrees(30 + float64(step)*10)
		got := NormalizeDegrees(b.Rotation)
		diff := math.Abs(got - want)
		assert.True(t, diff < 1e-9 || math.Abs(diff-360) < 1e-9, "step %d: got %v want %v", step, got, want)
	}
}

func TestRotate_AllQuadrants(t *testing.T) {
	origin := box(0, 0, 20, 20).Base
	cx, cy := origin.Center()
	// start to the right, sweep to each quadrant
	cases := []struct {
		x, y float64
		want float64
	}{
		{cx, cy + 10, 90},
		{cx - 10, cy + 0.000001, 180},
		{cx, cy - 10, 270},
	}
	for _, c := range cases {
		b := Rotate(origin, cx+10, cy, c.x, c.y)
		assert.InDelta(t, c.want, NormalizeDegrees(b.Rotation), 1e-3)
	}
}

func TestEngine_ZoomCorrectedDrag(t *testing.T) {
	e := NewEngine(View{OriginX: 10, OriginY: 20, Zoom: 2})
	obj := box(5, 5, 40, 40)

	require.True(t, e.PointerDown(1, obj, HandleBody, 110, 220))
	s, ok := e.Session()
	require.True(t, ok)
	assert.Equal(t, KindDrag, s.Kind)
	assert.Equal(t, 50.0, s.StartX)
	assert.Equal(t, 100.0, s.StartY)

	moved, ok := e.PointerMove(1, 130, 200)
	require.True(t, ok)
	assert.Equal(t, 15.0, moved.Attrs().X)
	assert.Equal(t, -5.0, moved.Attrs().Y)

	// moves are computed from the original, not cumulatively
	moved, _ = e.PointerMove(1, 130, 200)
	assert.Equal(t, 15.0, moved.Attrs().X)

	ended, ok := e.PointerUp(1)
	require.True(t, ok)
	assert.Equal(t, 15.0, ended.Current.Attrs().X)
	assert.False(t, e.Active())
}

func TestEngine_SecondPointerDenied(t *testing.T) {
	e := NewEngine(View{Zoom: 1})
	a, b := box(0, 0, 30, 30), box(50, 50, 30, 30)

	require.True(t, e.PointerDown(1, a, HandleSE, 0, 0))
	assert.False(t, e.PointerDown(2, b, HandleBody, 0, 0))

	_, ok := e.PointerMove(2, 10, 10)
	assert.False(t, ok, "non-owner moves are ignored")
	_, ok = e.PointerUp(2)
	assert.False(t, ok)

	s, _ := e.Session()
	assert.Equal(t, a.ID, s.ObjectID)
}

func TestEngine_PointerLeaveEndsGesture(t *testing.T) {
	e := NewEngine(View{Zoom: 1})
	require.True(t, e.PointerDown(7, box(0, 0, 30, 30), HandleRotate, 0, 0))
	_, ok := e.PointerLeave()
	assert.True(t, ok)
	assert.False(t, e.Active())
	_, ok = e.PointerLeave()
	assert.False(t, ok)
}

func TestEngine_UnknownHandle(t *testing.T) {
	e := NewEngine(View{})
	assert.False(t, e.PointerDown(1, box(0, 0, 30, 30), Handle("n"), 0, 0))
	assert.False(t, e.PointerDown(1, nil, HandleBody, 0, 0))
}
