package document

import (
	"time"

	"github.com/fraction12/wireflow/internal/typeid"
)

// NewFrame creates an empty frame.
func NewFrame(name string, frameType FrameType) Frame {
	if frameType == "" {
		frameType = FrameTypePage
	}
	return Frame{
		ID:        typeid.NewFrameID(),
		Name:      name,
		Type:      frameType,
		Elements:  []Element{},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewEmptyDocument creates a document holding a single empty page.
func NewEmptyDocument() *DocumentState {
	frame := NewFrame("Page 1", FrameTypePage)
	return &DocumentState{
		Version:            SchemaVersion,
		Frames:             []Frame{frame},
		ComponentGroups:    []ComponentGroup{},
		ElementGroups:      []ElementGroup{},
		UserComponents:     []UserComponent{},
		ComponentInstances: []ComponentInstance{},
		ActiveFrameID:      frame.ID,
	}
}

// NewSampleDocument creates a small login wireframe used by demos and the
// wasm playground.
func NewSampleDocument(m Measurer) *DocumentState {
	doc := NewEmptyDocument()
	frame := &doc.Frames[0]
	frame.Name = "Login"

	card := Element{
		ID: typeid.NewElementID(), Kind: KindRectangle,
		X: 340, Y: 140, Width: 600, Height: 420,
		Style: &Style{StrokeColor: "#1e1e1e", FillColor: "#ffffff"},
		Name:  "Card",
	}
	title := Element{
		ID: typeid.NewElementID(), Kind: KindText,
		X: 380, Y: 170,
		Text: &TextData{Content: "Sign in", FontSize: 28, AutoWidth: true},
	}
	email := Element{
		ID: typeid.NewElementID(), Kind: KindRectangle,
		X: 380, Y: 250, Width: 520, Height: 44,
		Style:       &Style{StrokeColor: "#64748b"},
		SemanticTag: "input",
	}
	button := Element{
		ID: typeid.NewElementID(), Kind: KindRectangle,
		X: 380, Y: 460, Width: 160, Height: 48,
		Style:       &Style{StrokeColor: "#1e1e1e", FillColor: "#3b82f6"},
		SemanticTag: "button",
	}
	label := Element{
		ID: typeid.NewElementID(), Kind: KindText,
		Text: &TextData{Content: "Continue", FontSize: DefaultFontSize, TextAlign: "center", VerticalAlign: AlignMiddle},
	}
	button.BoundElements = []string{label.ID}
	SyncBoundText(&button, &label, m)

	for _, el := range []*Element{&card, &title, &email, &button} {
		Normalize(el, m)
	}
	frame.Elements = append(frame.Elements, card, title, email, button, label)
	frame.Documentation = &FrameDocumentation{
		Notes:       "Entry point for returning users.",
		Annotations: map[string]string{button.ID: "Submits the form"},
	}
	return doc
}
