// Package snap computes target positions for moving geometry: grid
// quantization, alignment guides against sibling elements and connector
// endpoint attachment points.
package snap

import (
	"math"

	"github.com/fraction12/wireflow/internal/document"
)

const (
	DefaultGridSize        = 20.0
	DefaultGuideTolerance  = 5.0
	DefaultConnectorRadius = 16.0
)

// Settings configures the snapping mechanisms.
type Settings struct {
	GridEnabled     bool    `json:"gridEnabled"`
	GridSize        float64 `json:"gridSize"`
	GuideTolerance  float64 `json:"guideTolerance"`
	ConnectorRadius float64 `json:"connectorRadius"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		GridSize:        DefaultGridSize,
		GuideTolerance:  DefaultGuideTolerance,
		ConnectorRadius: DefaultConnectorRadius,
	}
}

// Grid rounds v to the nearest multiple of size. A non-positive size leaves v unchanged.
func Grid(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	return math.Round(v/size) * size
}

// GridValue snaps v when the grid is enabled.
func (s Settings) GridValue(v float64) float64 {
	if !s.GridEnabled {
		return v
	}
	return Grid(v, s.GridSize)
}

// GridPoint snaps both coordinates when the grid is enabled.
func (s Settings) GridPoint(x, y float64) (float64, float64) {
	return s.GridValue(x), s.GridValue(y)
}

// Axis names the coordinate a guide constrains.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Guide is an alignment line surfaced to the renderer. For AxisX the line is
// vertical at Position spanning From..To along y; for AxisY it is horizontal.
type Guide struct {
	Axis     Axis    `json:"axis"`
	Position float64 `json:"position"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
}

type match struct {
	delta  float64
	target float64
	other  document.Rect
	found  bool
}

func edgesX(r document.Rect) [3]float64 { return [3]float64{r.X, r.X + r.Width/2, r.Right()} }
func edgesY(r document.Rect) [3]float64 { return [3]float64{r.Y, r.Y + r.Height/2, r.Bottom()} }

func closest(moving [3]float64, others []document.Rect, edges func(document.Rect) [3]float64, tolerance float64) match {
	best := match{}
	bestDist := math.Inf(1)
	for _, o := range others {
		for _, target := range edges(o) {
			for _, m := range moving {
				d := target - m
				if math.Abs(d) <= tolerance && math.Abs(d) < bestDist {
					bestDist = math.Abs(d)
					best = match{delta: d, target: target, other: o, found: true}
				}
			}
		}
	}
	return best
}

// Align compares the moving box's left/center/right and top/center/bottom
// against every other box and returns the offset that brings the closest
// match within tolerance into alignment, per axis, plus the guides to draw.
func Align(moving document.Rect, others []document.Rect, tolerance float64) (dx, dy float64, guides []Guide) {
	if tolerance <= 0 {
		tolerance = DefaultGuideTolerance
	}

	if mx := closest(edgesX(moving), others, edgesX, tolerance); mx.found {
		dx = mx.delta
		guides = append(guides, Guide{
			Axis:     AxisX,
			Position: mx.target,
			From:     min(moving.Y, mx.other.Y),
			To:       max(moving.Bottom(), mx.other.Bottom()),
		})
	}
	if my := closest(edgesY(moving), others, edgesY, tolerance); my.found {
		dy = my.delta
		guides = append(guides, Guide{
			Axis:     AxisY,
			Position: my.target,
			From:     min(moving.X+dx, my.other.X),
			To:       max(moving.Right()+dx, my.other.Right()),
		})
	}
	return dx, dy, guides
}

// AnchorPoints returns the connector attachment candidates of a box: its
// center followed by the top, right, bottom and left edge midpoints.
func AnchorPoints(r document.Rect) []document.Point {
	cx, cy := r.Center()
	return []document.Point{
		{X: cx, Y: cy},
		{X: cx, Y: r.Y},
		{X: r.Right(), Y: cy},
		{X: cx, Y: r.Bottom()},
		{X: r.X, Y: cy},
	}
}

// Connector returns the nearest anchor point of any target within radius of
// (x, y). ok is false when nothing is close enough.
func Connector(x, y float64, targets []document.Rect, radius float64) (p document.Point, ok bool) {
	if radius <= 0 {
		radius = DefaultConnectorRadius
	}
	best := radius
	for _, t := range targets {
		for _, a := range AnchorPoints(t) {
			d := math.Hypot(a.X-x, a.Y-y)
			if d <= best {
				best = d
				p = a
				ok = true
			}
		}
	}
	return p, ok
}
