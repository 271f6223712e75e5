package engine

import (
	"math"

	"github.com/fraction12/wireflow/internal/document"
)

// HitTest returns the id of the topmost element or instance at a world
// point, or "". Instances paint above frame elements. Hitting bound text
// returns its container.
func (e *Engine) HitTest(x, y float64) string {
	f := e.activeFrame()
	tol := ConnectorHitTolerance / e.viewport.zoom()

	for i := len(e.doc.ComponentInstances) - 1; i >= 0; i-- {
		inst := &e.doc.ComponentInstances[i]
		if inst.FrameID != f.ID {
			continue
		}
		comp := e.component(inst.ComponentID)
		if comp != nil && document.InstanceBounds(comp, inst).Contains(x, y) {
			return inst.ID
		}
	}

	for i := len(f.Elements) - 1; i >= 0; i-- {
		el := &f.Elements[i]
		if !el.IsVisible() || !hitElement(el, x, y, tol) {
			continue
		}
		if el.IsBoundText() && indexOf(f, el.Text.ContainerID) >= 0 {
			return el.Text.ContainerID
		}
		return el.ID
	}
	return ""
}

func hitElement(el *document.Element, x, y, tol float64) bool {
	switch el.Kind {
	case document.KindArrow, document.KindLine:
		c := el.Connector
		if c == nil {
			return false
		}
		return distToSegment(x, y, c.StartX, c.StartY, c.EndX, c.EndY) <= tol

	case document.KindFreedraw:
		if el.Freedraw == nil || len(el.Freedraw.Points) == 0 {
			return false
		}
		pts := el.Freedraw.Points
		if len(pts) == 1 {
			return math.Hypot(x-pts[0].X, y-pts[0].Y) <= tol
		}
		for i := 1; i < len(pts); i++ {
			if distToSegment(x, y, pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y) <= tol {
				return true
			}
		}
		return false
	}

	lx, ly := ElementTransform(el).Invert().TransformPoint(x, y)
	return el.Bounds().Contains(lx, ly)
}

func distToSegment(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	t = max(0, min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

// HandlePoint is a transform handle position in world coordinates.
type HandlePoint struct {
	Handle Handle  `json:"handle"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

var boxHandles = []Handle{HandleNW, HandleN, HandleNE, HandleE, HandleSE, HandleS, HandleSW, HandleW}

// handlesFor returns the handles available on el. Bound text has none, free
// text only resizes horizontally and connectors expose their endpoints.
func (e *Engine) handlesFor(el *document.Element) []HandlePoint {
	switch {
	case el.IsBoundText():
		return nil
	case el.Kind.IsConnector():
		if el.Connector == nil {
			return nil
		}
		return []HandlePoint{
			{Handle: HandleStart, X: el.Connector.StartX, Y: el.Connector.StartY},
			{Handle: HandleEnd, X: el.Connector.EndX, Y: el.Connector.EndY},
		}
	case el.Kind == document.KindText:
		_, cy := el.Bounds().Center()
		return []HandlePoint{
			{Handle: HandleE, X: el.X + el.Width, Y: cy},
			{Handle: HandleW, X: el.X, Y: cy},
		}
	}

	r := el.Bounds()
	m := ElementTransform(el)
	out := make([]HandlePoint, 0, len(boxHandles)+1)
	for _, h := range boxHandles {
		hx, hy, _ := h.direction()
		lx := r.X + r.Width*(hx+1)/2
		ly := r.Y + r.Height*(hy+1)/2
		wx, wy := m.TransformPoint(lx, ly)
		out = append(out, HandlePoint{Handle: h, X: wx, Y: wy})
	}
	if el.Kind.Rotatable() {
		cx, _ := r.Center()
		wx, wy := m.TransformPoint(cx, r.Y-RotationHandleOffset/e.viewport.zoom())
		out = append(out, HandlePoint{Handle: HandleRotation, X: wx, Y: wy})
	}
	return out
}

// selectedSingle returns the only selected element, if the selection is
// exactly one element.
func (e *Engine) selectedSingle() *document.Element {
	if len(e.selection) != 1 {
		return nil
	}
	return e.element(e.selection[0])
}

// hitHandle returns the handle of the single selected element at a world point.
func (e *Engine) hitHandle(x, y float64) (*document.Element, Handle) {
	el := e.selectedSingle()
	if el == nil {
		return nil, HandleNone
	}
	radius := HandleRadius / e.viewport.zoom()
	for _, hp := range e.handlesFor(el) {
		if math.Hypot(x-hp.X, y-hp.Y) <= radius {
			return el, hp.Handle
		}
	}
	return nil, HandleNone
}
