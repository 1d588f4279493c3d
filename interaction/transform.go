package interaction

import (
	"math"
	"strings"

	"labelpro/canvas"
)

// Drag offsets the original position by the pointer delta.
func Drag(b canvas.Base, dx, dy float64) canvas.Base {
	b.X += dx
	b.Y += dy
	return b
}

// Resize grows or shrinks the edges named by handle. West and north edges
// move the origin so the opposite edge stays put, and the size floor never
// moves the anchored edge.
func Resize(b canvas.Base, handle Handle, dx, dy float64) canvas.Base {
	h := string(handle)
	x0, y0, w0, h0 := b.X, b.Y, b.Width, b.Height

	if strings.Contains(h, "e") {
		b.Width = math.Max(w0+dx, canvas.MinSize)
	}
	if strings.Contains(h, "w") {
		b.Width = math.Max(w0-dx, canvas.MinSize)
		b.X = x0 + w0 - b.Width
	}
	if strings.Contains(h, "s") {
		b.Height = math.Max(h0+dy, canvas.MinSize)
	}
	if strings.Contains(h, "n") {
		b.Height = math.Max(h0-dy, canvas.MinSize)
		b.Y = y0 + h0 - b.Height
	}
	return b
}

// Rotate turns the object by the angle the pointer swept around the original
// center, measured from the gesture start point.
func Rotate(b canvas.Base, startX, startY, x, y float64) canvas.Base {
	cx, cy := b.Center()
	start := math.Atan2(startY-cy, startX-cx)
	now := math.Atan2(y-cy, x-cx)
	b.Rotation += (now - start) * 180 / math.Pi
	return b
}

// NormalizeDegrees maps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
