package engine

import "github.com/fraction12/wireflow/internal/document"

// State is the active interaction state. Exactly one is active at a time.
type State string

const (
	StateIdle        State = "idle-select"
	StateDrawing     State = "drawing"
	StateDragging    State = "dragging-element"
	StateResizing    State = "resizing"
	StateRotating    State = "rotating"
	StatePanning     State = "panning"
	StateMarquee     State = "marquee-selecting"
	StateTextEditing State = "text-editing"
)

// Tool is the active canvas tool.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolRectangle Tool = "rectangle"
	ToolEllipse   Tool = "ellipse"
	ToolDiamond   Tool = "diamond"
	ToolText      Tool = "text"
	ToolArrow     Tool = "arrow"
	ToolLine      Tool = "line"
	ToolFreedraw  Tool = "freedraw"
	ToolPan       Tool = "pan"
)

// Kind returns the element kind the tool draws, or "" for non-drawing tools.
func (t Tool) Kind() document.ElementKind {
	switch t {
	case ToolRectangle:
		return document.KindRectangle
	case ToolEllipse:
		return document.KindEllipse
	case ToolDiamond:
		return document.KindDiamond
	case ToolText:
		return document.KindText
	case ToolArrow:
		return document.KindArrow
	case ToolLine:
		return document.KindLine
	case ToolFreedraw:
		return document.KindFreedraw
	}
	return ""
}

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	return t == ToolSelect || t == ToolPan || t.Kind() != ""
}

// toolKeys maps single-letter shortcuts to tools.
var toolKeys = map[string]Tool{
	"v": ToolSelect,
	"r": ToolRectangle,
	"o": ToolEllipse,
	"d": ToolDiamond,
	"t": ToolText,
	"a": ToolArrow,
	"l": ToolLine,
	"p": ToolFreedraw,
	"h": ToolPan,
}

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = 0
	ButtonMiddle  Button = 1
)

// PointerEvent is a pointer sample in screen coordinates.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Shift  bool    `json:"shift"`
	Alt    bool    `json:"alt"`
	Ctrl   bool    `json:"ctrl"`
	Meta   bool    `json:"meta"`
	// Outside marks a release outside any valid target; it cancels the gesture.
	Outside bool `json:"outside"`
}

// KeyEvent is a key press. Key uses DOM key names ("Escape", "ArrowLeft", "z").
type KeyEvent struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
	Alt   bool   `json:"alt"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
}

func (k KeyEvent) command() bool { return k.Ctrl || k.Meta }

// Handle names a transform handle on the selected element.
type Handle string

const (
	HandleNone     Handle = ""
	HandleNW       Handle = "nw"
	HandleN        Handle = "n"
	HandleNE       Handle = "ne"
	HandleE        Handle = "e"
	HandleSE       Handle = "se"
	HandleS        Handle = "s"
	HandleSW       Handle = "sw"
	HandleW        Handle = "w"
	HandleRotation Handle = "rotation"
	HandleStart    Handle = "start"
	HandleEnd      Handle = "end"
)

// direction returns the x and y sign of a box handle: -1 for the west/north
// side, +1 for east/south and 0 when the axis is unaffected.
func (h Handle) direction() (hx, hy float64, ok bool) {
	switch h {
	case HandleNW:
		return -1, -1, true
	case HandleN:
		return 0, -1, true
	case HandleNE:
		return 1, -1, true
	case HandleE:
		return 1, 0, true
	case HandleSE:
		return 1, 1, true
	case HandleS:
		return 0, 1, true
	case HandleSW:
		return -1, 1, true
	case HandleW:
		return -1, 0, true
	}
	return 0, 0, false
}

// Viewport maps screen coordinates to world coordinates.
type Viewport struct {
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
	Zoom float64 `json:"zoom"`
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToWorld converts a screen point to world coordinates.
func (v Viewport) ToWorld(x, y float64) (float64, float64) {
	z := v.zoom()
	return (x - v.PanX) / z, (y - v.PanY) / z
}
