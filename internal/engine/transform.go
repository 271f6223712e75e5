package engine

import (
	"math"

	"github.com/fraction12/wireflow/internal/document"
)

// ResizeBox returns the box produced by dragging handle by (dx, dy) from
// initial. It depends only on its arguments: the gesture always passes the
// box captured at gesture start and the total pointer delta.
//
// The edge or corner opposite the handle is the anchor and stays fixed. The
// moving side is clamped to stay at least MinElementSize from the anchor.
// With keepAspect on a corner handle the axis with the larger delta drives
// and the other follows the initial aspect ratio. For rotated boxes the
// delta is taken in the box's own frame and the result is shifted so the
// anchor keeps its world position. snapFn, when non-nil, quantizes the
// moving coordinates of an unrotated box.
func ResizeBox(initial document.Rect, rotation float64, handle Handle, dx, dy float64, keepAspect bool, snapFn func(float64) float64) (document.Rect, bool) {
	hx, hy, ok := handle.direction()
	if !ok {
		return initial, false
	}
	if rotation != 0 {
		dx, dy = Rotate(-rotation).TransformVector(dx, dy)
		snapFn = nil
	}
	if snapFn == nil {
		snapFn = func(v float64) float64 { return v }
	}

	const minSize = document.MinElementSize
	x1, y1, x2, y2 := initial.X, initial.Y, initial.Right(), initial.Bottom()

	switch hx {
	case 1:
		x2 = max(snapFn(x2+dx), x1+minSize)
	case -1:
		x1 = min(snapFn(x1+dx), x2-minSize)
	}
	switch hy {
	case 1:
		y2 = max(snapFn(y2+dy), y1+minSize)
	case -1:
		y1 = min(snapFn(y1+dy), y2-minSize)
	}

	if keepAspect && hx != 0 && hy != 0 && initial.Width > 0 && initial.Height > 0 {
		ratio := initial.Width / initial.Height
		w, h := x2-x1, y2-y1
		if math.Abs(dx) >= math.Abs(dy) {
			h = w / ratio
		} else {
			w = h * ratio
		}
		if w < minSize {
			w, h = minSize, minSize/ratio
		}
		if h < minSize {
			w, h = minSize*ratio, minSize
		}
		if hx > 0 {
			x2 = x1 + w
		} else {
			x1 = x2 - w
		}
		if hy > 0 {
			y2 = y1 + h
		} else {
			y1 = y2 - h
		}
	}

	r := document.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
	if rotation == 0 {
		return r, true
	}

	bx, by := anchorOf(initial, hx, hy)
	ax, ay := anchorOf(r, hx, hy)
	icx, icy := initial.Center()
	rcx, rcy := r.Center()
	wantX, wantY := RotateAbout(rotation, icx, icy).TransformPoint(bx, by)
	gotX, gotY := RotateAbout(rotation, rcx, rcy).TransformPoint(ax, ay)
	return r.Translate(wantX-gotX, wantY-gotY), true
}

// anchorOf returns the point of r held fixed for a handle direction.
func anchorOf(r document.Rect, hx, hy float64) (float64, float64) {
	cx, cy := r.Center()
	x, y := cx, cy
	switch hx {
	case 1:
		x = r.X
	case -1:
		x = r.Right()
	}
	switch hy {
	case 1:
		y = r.Y
	case -1:
		y = r.Bottom()
	}
	return x, y
}

// RotationAngle returns initial + (current pointer angle − start pointer
// angle) around (cx, cy), normalized to [0, 2π). With snapStep the result
// is rounded to RotationSnapStep degrees.
func RotationAngle(initial, cx, cy, startX, startY, x, y float64, snapStep bool) float64 {
	start := math.Atan2(startY-cy, startX-cx)
	current := math.Atan2(y-cy, x-cx)
	angle := initial + (current - start)
	if snapStep {
		step := RotationSnapStep * math.Pi / 180
		angle = math.Round(angle/step) * step
	}
	angle = math.Mod(angle, 2*math.Pi)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}
