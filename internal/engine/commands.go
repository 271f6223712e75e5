package engine

import (
	"encoding/json"
	"math"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/snap"
)

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path" or "text"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix, identity when absent
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Dash        []float64     `json:"dash,omitempty"`        // Line dash pattern
	Overlay     bool          `json:"overlay,omitempty"`     // Interaction chrome, not document content

	// "text" ops: Lines start at (X, Y), each LineHeight below the previous,
	// aligned within Width.
	Lines      []string `json:"lines,omitempty"`
	X          float64  `json:"x,omitempty"`
	Y          float64  `json:"y,omitempty"`
	Width      float64  `json:"width,omitempty"`
	FontSize   float64  `json:"fontSize,omitempty"`
	FontFamily string   `json:"fontFamily,omitempty"`
	LineHeight float64  `json:"lineHeight,omitempty"`
	Align      string   `json:"align,omitempty"`
}

const (
	defaultStroke = "#1e1e1e"
	overlayStroke = "#3b82f6"
	guideStroke   = "#f43f5e"
	arrowHeadSize = 12.0
	arrowHeadTilt = 25 * math.Pi / 180
	// kappa places cubic control points so four segments approximate an ellipse.
	kappa = 0.5522847498
)

// CompileDrawCommands generates a draw command buffer from a view.
// Commands are in painter's order (back to front): frame elements,
// instances, then overlays.
func CompileDrawCommands(v View, m document.Measurer) []DrawCommand {
	var commands []DrawCommand
	rotated := rotatedContainers(v.Frame.Elements)
	for i := range v.Frame.Elements {
		compileElement(&v.Frame.Elements[i], v.Frame.Elements[i].ID, rotated, m, &commands)
	}
	for _, inst := range v.Instances {
		rotated := rotatedContainers(inst.Elements)
		for i := range inst.Elements {
			compileElement(&inst.Elements[i], inst.ID, rotated, m, &commands)
		}
	}
	if v.Draft != nil {
		compileElement(v.Draft, "", nil, m, &commands)
	}
	compileOverlays(v, &commands)
	return commands
}

// rotatedContainers indexes the transforms of rotated elements by id. Bound
// text is laid out unrotated and drawn with its container's transform.
func rotatedContainers(els []document.Element) map[string]Matrix2D {
	var out map[string]Matrix2D
	for i := range els {
		if t := ElementTransform(&els[i]); !t.IsIdentity() {
			if out == nil {
				out = make(map[string]Matrix2D)
			}
			out[els[i].ID] = t
		}
	}
	return out
}

// compileElement emits the commands for one element. objectID correlates
// hits back to the element or, for instance members, to the instance.
func compileElement(el *document.Element, objectID string, rotated map[string]Matrix2D, m document.Measurer, commands *[]DrawCommand) {
	if !el.IsVisible() {
		return
	}
	stroke, fill := defaultStroke, ""
	if el.Style != nil {
		if el.Style.StrokeColor != "" {
			stroke = el.Style.StrokeColor
		}
		fill = el.Style.FillColor
	}
	var transform []float64
	if t := ElementTransform(el); !t.IsIdentity() {
		transform = t.ToSlice()
	}
	cmd := DrawCommand{
		Op:          "path",
		ObjectID:    objectID,
		Transform:   transform,
		Fill:        fill,
		Stroke:      stroke,
		StrokeWidth: 2,
	}

	switch el.Kind {
	case document.KindRectangle:
		cmd.Path = rectPath(el.Bounds())
	case document.KindEllipse:
		cmd.Path = ellipsePath(el.Bounds())
	case document.KindDiamond:
		cmd.Path = diamondPath(el.Bounds())
	case document.KindArrow, document.KindLine:
		if el.Connector == nil {
			return
		}
		c := el.Connector
		cmd.Fill = ""
		cmd.Path = []PathCommand{{"M", c.StartX, c.StartY}, {"L", c.EndX, c.EndY}}
		if el.Kind == document.KindArrow {
			cmd.Path = append(cmd.Path, arrowHead(c)...)
		}
	case document.KindFreedraw:
		if el.Freedraw == nil || len(el.Freedraw.Points) == 0 {
			return
		}
		cmd.Fill = ""
		for i, p := range el.Freedraw.Points {
			op := "L"
			if i == 0 {
				op = "M"
			}
			cmd.Path = append(cmd.Path, PathCommand{op, p.X, p.Y})
		}
	case document.KindText:
		if el.Text == nil || el.Text.Content == "" {
			return
		}
		align := el.Text.TextAlign
		if align == "" {
			align = "left"
		}
		if t, ok := rotated[el.Text.ContainerID]; ok && el.IsBoundText() {
			transform = t.ToSlice()
		}
		*commands = append(*commands, DrawCommand{
			Op:         "text",
			ObjectID:   objectID,
			Transform:  transform,
			Fill:       stroke,
			Lines:      document.TextLines(el, m),
			X:          el.X,
			Y:          el.Y,
			Width:      el.Width,
			FontSize:   el.Text.FontSize,
			FontFamily: el.Text.FontFamily,
			LineHeight: document.LineHeight(el.Text.FontSize),
			Align:      align,
		})
		return
	}
	*commands = append(*commands, cmd)
}

func compileOverlays(v View, commands *[]DrawCommand) {
	if v.SelectionBox != nil {
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			Path:        rectPath(*v.SelectionBox),
			Stroke:      overlayStroke,
			StrokeWidth: 1,
			Dash:        []float64{4, 4},
			Overlay:     true,
		})
	}
	for _, h := range v.Handles {
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			Path:        ellipsePath(document.Rect{X: h.X - HandleRadius/2, Y: h.Y - HandleRadius/2, Width: HandleRadius, Height: HandleRadius}),
			Fill:        "#ffffff",
			Stroke:      overlayStroke,
			StrokeWidth: 1,
			Overlay:     true,
		})
	}
	for _, g := range v.Guides {
		path := []PathCommand{{"M", g.Position, g.From}, {"L", g.Position, g.To}}
		if g.Axis == snap.AxisY {
			path = []PathCommand{{"M", g.From, g.Position}, {"L", g.To, g.Position}}
		}
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			Path:        path,
			Stroke:      guideStroke,
			StrokeWidth: 1,
			Overlay:     true,
		})
	}
	if v.Marquee != nil {
		*commands = append(*commands, DrawCommand{
			Op:          "path",
			Path:        rectPath(*v.Marquee),
			Fill:        "rgba(59,130,246,0.08)",
			Stroke:      overlayStroke,
			StrokeWidth: 1,
			Overlay:     true,
		})
	}
}

func rectPath(r document.Rect) []PathCommand {
	return []PathCommand{
		{"M", r.X, r.Y},
		{"L", r.Right(), r.Y},
		{"L", r.Right(), r.Bottom()},
		{"L", r.X, r.Bottom()},
		{"Z"},
	}
}

func diamondPath(r document.Rect) []PathCommand {
	cx, cy := r.Center()
	return []PathCommand{
		{"M", cx, r.Y},
		{"L", r.Right(), cy},
		{"L", cx, r.Bottom()},
		{"L", r.X, cy},
		{"Z"},
	}
}

func ellipsePath(r document.Rect) []PathCommand {
	cx, cy := r.Center()
	rx, ry := r.Width/2, r.Height/2
	ox, oy := rx*kappa, ry*kappa
	return []PathCommand{
		{"M", cx + rx, cy},
		{"C", cx + rx, cy + oy, cx + ox, cy + ry, cx, cy + ry},
		{"C", cx - ox, cy + ry, cx - rx, cy + oy, cx - rx, cy},
		{"C", cx - rx, cy - oy, cx - ox, cy - ry, cx, cy - ry},
		{"C", cx + ox, cy - ry, cx + rx, cy - oy, cx + rx, cy},
		{"Z"},
	}
}

// arrowHead returns the two barbs at the connector's end point.
func arrowHead(c *document.ConnectorData) []PathCommand {
	dx, dy := c.EndX-c.StartX, c.EndY-c.StartY
	if dx == 0 && dy == 0 {
		return nil
	}
	angle := math.Atan2(dy, dx)
	var out []PathCommand
	for _, tilt := range []float64{arrowHeadTilt, -arrowHeadTilt} {
		a := angle + math.Pi + tilt
		out = append(out,
			PathCommand{"M", c.EndX, c.EndY},
			PathCommand{"L", c.EndX + arrowHeadSize*math.Cos(a), c.EndY + arrowHeadSize*math.Sin(a)},
		)
	}
	return out
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
