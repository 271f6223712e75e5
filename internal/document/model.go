package document

// SchemaVersion is the persisted DocumentState version.
const SchemaVersion = 1

// MinElementSize is the smallest width/height a box element may be resized to.
const MinElementSize = 10.0

type ElementKind string

const (
	KindRectangle ElementKind = "rectangle"
	KindEllipse   ElementKind = "ellipse"
	KindDiamond   ElementKind = "diamond"
	KindText      ElementKind = "text"
	KindArrow     ElementKind = "arrow"
	KindLine      ElementKind = "line"
	KindFreedraw  ElementKind = "freedraw"
)

// IsContainer reports whether elements of this kind may own bound text.
func (k ElementKind) IsContainer() bool {
	return k == KindRectangle || k == KindEllipse || k == KindDiamond
}

// IsConnector reports whether the kind stores explicit endpoints.
func (k ElementKind) IsConnector() bool {
	return k == KindArrow || k == KindLine
}

// IsBox reports whether the bounding box is the primary geometry.
func (k ElementKind) IsBox() bool {
	return k.IsContainer()
}

// Rotatable reports whether rotation applies to the kind.
func (k ElementKind) Rotatable() bool {
	return k.IsContainer()
}

// Valid reports whether k is a known element kind.
func (k ElementKind) Valid() bool {
	switch k {
	case KindRectangle, KindEllipse, KindDiamond, KindText, KindArrow, KindLine, KindFreedraw:
		return true
	}
	return false
}

type Style struct {
	StrokeColor string `json:"strokeColor,omitempty"`
	FillColor   string `json:"fillColor,omitempty"`
}

type VerticalAlign string

const (
	AlignMiddle VerticalAlign = "middle"
	AlignTop    VerticalAlign = "top"
)

type TextData struct {
	Content       string        `json:"content"`
	FontSize      float64       `json:"fontSize"`
	FontFamily    string        `json:"fontFamily,omitempty"`
	TextAlign     string        `json:"textAlign,omitempty"`
	VerticalAlign VerticalAlign `json:"verticalAlign,omitempty"`
	AutoWidth     bool          `json:"autoWidth"`
	ContainerID   string        `json:"containerId,omitempty"`
}

type ConnectorData struct {
	StartX float64 `json:"startX"`
	StartY float64 `json:"startY"`
	EndX   float64 `json:"endX"`
	EndY   float64 `json:"endY"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type FreedrawData struct {
	Points []Point `json:"points"`
}

// Element is a tagged union over ElementKind. Exactly the payload matching
// Kind is set: Text for text, Connector for arrow/line, Freedraw for freedraw.
type Element struct {
	ID          string      `json:"id"`
	Kind        ElementKind `json:"type"`
	X           float64     `json:"x"`
	Y           float64     `json:"y"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	Rotation    float64     `json:"rotation,omitempty"`
	Style       *Style      `json:"style,omitempty"`
	SemanticTag string      `json:"semanticTag,omitempty"`
	Visible     *bool       `json:"visible,omitempty"`
	Locked      bool        `json:"locked,omitempty"`
	Name        string      `json:"name,omitempty"`

	// At most one of GroupID and ElementGroupID is set.
	GroupID        string `json:"groupId,omitempty"`
	ElementGroupID string `json:"elementGroupId,omitempty"`

	BoundElements []string       `json:"boundElements,omitempty"`
	Text          *TextData      `json:"text,omitempty"`
	Connector     *ConnectorData `json:"connector,omitempty"`
	Freedraw      *FreedrawData  `json:"freedraw,omitempty"`
}

// IsVisible treats a missing visible flag as visible.
func (e Element) IsVisible() bool {
	return e.Visible == nil || *e.Visible
}

// Grouped reports whether the element belongs to any group kind.
func (e Element) Grouped() bool {
	return e.GroupID != "" || e.ElementGroupID != ""
}

// IsBoundText reports whether the element is text owned by a container.
func (e Element) IsBoundText() bool {
	return e.Kind == KindText && e.Text != nil && e.Text.ContainerID != ""
}

// Bounds returns the element's axis-aligned bounding box.
func (e Element) Bounds() Rect {
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

type FrameType string

const (
	FrameTypePage   FrameType = "page"
	FrameTypeModal  FrameType = "modal"
	FrameTypeFlyout FrameType = "flyout"
)

type FrameDocumentation struct {
	Notes       string            `json:"notes,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

type Frame struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type FrameType `json:"type"`
	// Elements are in paint order; the last element is frontmost.
	Elements      []Element           `json:"elements"`
	Documentation *FrameDocumentation `json:"documentation,omitempty"`
	CreatedAt     string              `json:"createdAt"`
}

type ComponentGroup struct {
	ID            string   `json:"id"`
	ComponentType string   `json:"componentType"`
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	ElementIDs    []string `json:"elementIds"`
}

type ElementGroup struct {
	ID         string   `json:"id"`
	ElementIDs []string `json:"elementIds"`
	FrameID    string   `json:"frameId"`
}

// ComponentElementDef is one master element of a UserComponent. Geometry is
// stored relative to the component's top-left corner.
type ComponentElementDef struct {
	ID            string         `json:"id"`
	Kind          ElementKind    `json:"type"`
	OffsetX       float64        `json:"offsetX"`
	OffsetY       float64        `json:"offsetY"`
	Width         float64        `json:"width"`
	Height        float64        `json:"height"`
	Rotation      float64        `json:"rotation,omitempty"`
	Style         *Style         `json:"style,omitempty"`
	SemanticTag   string         `json:"semanticTag,omitempty"`
	Visible       *bool          `json:"visible,omitempty"`
	Name          string         `json:"name,omitempty"`
	BoundElements []string       `json:"boundElements,omitempty"`
	Text          *TextData      `json:"text,omitempty"`
	Connector     *ConnectorData `json:"connector,omitempty"`
	Freedraw      *FreedrawData  `json:"freedraw,omitempty"`
}

type UserComponent struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	MasterElements []ComponentElementDef `json:"masterElements"`
	Width          float64               `json:"width"`
	Height         float64               `json:"height"`
	CreatedAt      string                `json:"createdAt"`
	UpdatedAt      string                `json:"updatedAt"`
}

type Override struct {
	ElementID string `json:"elementId"`
	Property  string `json:"property"`
	Value     string `json:"value"`
}

// Overridable instance properties.
const (
	PropContent     = "content"
	PropStrokeColor = "strokeColor"
	PropFillColor   = "fillColor"
	PropName        = "name"
	PropSemanticTag = "semanticTag"
	PropVisible     = "visible"
)

// ValidProperty reports whether p can be overridden or edited on a master element.
func ValidProperty(p string) bool {
	switch p {
	case PropContent, PropStrokeColor, PropFillColor, PropName, PropSemanticTag, PropVisible:
		return true
	}
	return false
}

type ComponentInstance struct {
	ID          string     `json:"id"`
	ComponentID string     `json:"componentId"`
	FrameID     string     `json:"frameId"`
	X           float64    `json:"x"`
	Y           float64    `json:"y"`
	Overrides   []Override `json:"overrides,omitempty"`
}

// Snapshot is the part of the document captured by history. Selection and
// the active frame are deliberately not part of it.
type Snapshot struct {
	Frames             []Frame             `json:"frames"`
	ComponentGroups    []ComponentGroup    `json:"componentGroups"`
	ElementGroups      []ElementGroup      `json:"elementGroups"`
	UserComponents     []UserComponent     `json:"userComponents"`
	ComponentInstances []ComponentInstance `json:"componentInstances"`
}

// DocumentState is the persisted form of a document.
type DocumentState struct {
	Version            int                 `json:"version"`
	Frames             []Frame             `json:"frames"`
	ComponentGroups    []ComponentGroup    `json:"componentGroups"`
	ElementGroups      []ElementGroup      `json:"elementGroups"`
	UserComponents     []UserComponent     `json:"userComponents"`
	ComponentInstances []ComponentInstance `json:"componentInstances"`
	ActiveFrameID      string              `json:"activeFrameId"`
}

// Snapshot returns a deep copy of the history-relevant part of the state.
func (s *DocumentState) Snapshot() Snapshot {
	return Snapshot{
		Frames:             cloneFrames(s.Frames),
		ComponentGroups:    cloneComponentGroups(s.ComponentGroups),
		ElementGroups:      cloneElementGroups(s.ElementGroups),
		UserComponents:     cloneUserComponents(s.UserComponents),
		ComponentInstances: cloneInstances(s.ComponentInstances),
	}
}

// Restore replaces the history-relevant part of the state with a deep copy of snap.
func (s *DocumentState) Restore(snap Snapshot) {
	c := snap.Clone()
	s.Frames = c.Frames
	s.ComponentGroups = c.ComponentGroups
	s.ElementGroups = c.ElementGroups
	s.UserComponents = c.UserComponents
	s.ComponentInstances = c.ComponentInstances
}
