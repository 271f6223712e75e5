package engine

import (
	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/snap"
)

// InstanceView is a component instance resolved for rendering.
type InstanceView struct {
	ID          string             `json:"id"`
	ComponentID string             `json:"componentId"`
	Name        string             `json:"name"`
	Bounds      document.Rect      `json:"bounds"`
	Elements    []document.Element `json:"elements"`
}

// View is the read-only projection of engine state a renderer draws:
// the active frame's elements in paint order, resolved instances painted
// above them and the interaction overlays.
type View struct {
	Frame        document.Frame    `json:"frame"`
	Frames       []FrameSummary    `json:"frames"`
	Instances    []InstanceView    `json:"instances"`
	Selection    []string          `json:"selection"`
	SelectionBox *document.Rect    `json:"selectionBounds,omitempty"`
	Handles      []HandlePoint     `json:"handles,omitempty"`
	Draft        *document.Element `json:"draft,omitempty"`
	Guides       []snap.Guide      `json:"guides,omitempty"`
	Marquee      *document.Rect    `json:"marquee,omitempty"`
	Viewport     Viewport          `json:"viewport"`
	State        State             `json:"state"`
	Tool         Tool              `json:"tool"`
	Editing      string            `json:"editing,omitempty"`
	GridEnabled  bool              `json:"gridEnabled"`
	CanUndo      bool              `json:"canUndo"`
	CanRedo      bool              `json:"canRedo"`
	Revision     uint64            `json:"revision"`
}

// View projects the current state for rendering. The result shares no
// memory with the engine.
func (e *Engine) View() View {
	f := e.activeFrame()
	v := e.frameView(f)
	v.Frames = e.Frames()
	v.Selection = e.Selection()
	if r, ok := e.SelectionBounds(); ok {
		v.SelectionBox = &r
	}
	if el := e.selectedSingle(); el != nil && e.edit == nil && !el.Locked {
		v.Handles = e.handlesFor(el)
	}
	if g := e.gesture; g != nil {
		switch e.state {
		case StateDrawing:
			if g.draft != nil {
				d := g.draft.Clone()
				v.Draft = &d
			}
		case StateMarquee:
			r := g.marquee
			v.Marquee = &r
		}
	}
	v.Guides = append([]snap.Guide(nil), e.guides...)
	v.Viewport = e.viewport
	v.State = e.state
	v.Tool = e.tool
	v.Editing = e.EditingID()
	v.GridEnabled = e.snapping.GridEnabled
	v.CanUndo = e.history.CanUndo()
	v.CanRedo = e.history.CanRedo()
	v.Revision = e.revision
	return v
}

// FrameView projects any frame without interaction overlays, as export
// does.
func (e *Engine) FrameView(frameID string) (View, bool) {
	f := e.frame(frameID)
	if f == nil {
		return View{}, false
	}
	v := e.frameView(f)
	v.Viewport = Viewport{Zoom: 1}
	v.State = StateIdle
	v.Tool = e.tool
	v.Revision = e.revision
	return v, true
}

func (e *Engine) frameView(f *document.Frame) View {
	v := View{Frame: f.Clone()}
	for i := range e.doc.ComponentInstances {
		inst := &e.doc.ComponentInstances[i]
		if inst.FrameID != f.ID {
			continue
		}
		comp := e.component(inst.ComponentID)
		if comp == nil {
			continue
		}
		v.Instances = append(v.Instances, InstanceView{
			ID:          inst.ID,
			ComponentID: comp.ID,
			Name:        comp.Name,
			Bounds:      document.InstanceBounds(comp, inst),
			Elements:    document.ResolveInstance(comp, inst, e.measurer),
		})
	}
	return v
}
