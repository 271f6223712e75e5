package engine

import (
	"slices"

	"github.com/fraction12/wireflow/internal/document"
)

func (e *Engine) activeFrame() *document.Frame {
	if f := e.frame(e.doc.ActiveFrameID); f != nil {
		return f
	}
	if len(e.doc.Frames) == 0 {
		return nil
	}
	return &e.doc.Frames[0]
}

func (e *Engine) frame(id string) *document.Frame {
	for i := range e.doc.Frames {
		if e.doc.Frames[i].ID == id {
			return &e.doc.Frames[i]
		}
	}
	return nil
}

func indexOf(f *document.Frame, id string) int {
	if f == nil {
		return -1
	}
	for i := range f.Elements {
		if f.Elements[i].ID == id {
			return i
		}
	}
	return -1
}

// findElement locates an element anywhere in the document.
func (e *Engine) findElement(id string) (*document.Frame, int) {
	for i := range e.doc.Frames {
		if idx := indexOf(&e.doc.Frames[i], id); idx >= 0 {
			return &e.doc.Frames[i], idx
		}
	}
	return nil, -1
}

func (e *Engine) element(id string) *document.Element {
	f, idx := e.findElement(id)
	if idx < 0 {
		return nil
	}
	return &f.Elements[idx]
}

func (e *Engine) componentGroup(id string) *document.ComponentGroup {
	for i := range e.doc.ComponentGroups {
		if e.doc.ComponentGroups[i].ID == id {
			return &e.doc.ComponentGroups[i]
		}
	}
	return nil
}

func (e *Engine) elementGroup(id string) *document.ElementGroup {
	for i := range e.doc.ElementGroups {
		if e.doc.ElementGroups[i].ID == id {
			return &e.doc.ElementGroups[i]
		}
	}
	return nil
}

func (e *Engine) component(id string) *document.UserComponent {
	for i := range e.doc.UserComponents {
		if e.doc.UserComponents[i].ID == id {
			return &e.doc.UserComponents[i]
		}
	}
	return nil
}

func (e *Engine) instance(id string) *document.ComponentInstance {
	for i := range e.doc.ComponentInstances {
		if e.doc.ComponentInstances[i].ID == id {
			return &e.doc.ComponentInstances[i]
		}
	}
	return nil
}

// memberIDs returns the element ids of either group kind.
func (e *Engine) memberIDs(groupID string) ([]string, bool) {
	if g := e.elementGroup(groupID); g != nil {
		return g.ElementIDs, true
	}
	if g := e.componentGroup(groupID); g != nil {
		return g.ElementIDs, true
	}
	return nil, false
}

// boundText returns the ids of text elements owned by el.
func (e *Engine) boundText(f *document.Frame, el *document.Element) []string {
	var ids []string
	for _, id := range el.BoundElements {
		if i := indexOf(f, id); i >= 0 && f.Elements[i].Kind == document.KindText {
			ids = append(ids, id)
		}
	}
	return ids
}

// withBoundText adds the bound text of every container in ids.
func (e *Engine) withBoundText(f *document.Frame, ids []string) []string {
	out := slices.Clone(ids)
	for _, id := range ids {
		if i := indexOf(f, id); i >= 0 {
			for _, t := range e.boundText(f, &f.Elements[i]) {
				if !slices.Contains(out, t) {
					out = append(out, t)
				}
			}
		}
	}
	return out
}

// syncBoundTextOf re-derives the bound text of the container at idx.
func (e *Engine) syncBoundTextOf(f *document.Frame, idx int) {
	container := &f.Elements[idx]
	for _, id := range container.BoundElements {
		if t := indexOf(f, id); t >= 0 && f.Elements[t].Kind == document.KindText {
			document.SyncBoundText(container, &f.Elements[t], e.measurer)
		}
	}
}

func (e *Engine) isInstance(id string) bool {
	return e.instance(id) != nil
}

// normalizeAt recomputes derived geometry of the element at idx and of any
// bound text it owns.
func (e *Engine) normalizeAt(f *document.Frame, idx int) {
	el := &f.Elements[idx]
	if el.IsBoundText() {
		if ci := indexOf(f, el.Text.ContainerID); ci >= 0 {
			document.SyncBoundText(&f.Elements[ci], el, e.measurer)
			return
		}
	}
	document.Normalize(el, e.measurer)
	e.syncBoundTextOf(f, idx)
}

// Element returns a copy of an element by id.
func (e *Engine) Element(id string) (document.Element, bool) {
	el := e.element(id)
	if el == nil {
		return document.Element{}, false
	}
	return el.Clone(), true
}

// Instance returns a copy of a component instance by id.
func (e *Engine) Instance(id string) (document.ComponentInstance, bool) {
	inst := e.instance(id)
	if inst == nil {
		return document.ComponentInstance{}, false
	}
	out := *inst
	out.Overrides = slices.Clone(inst.Overrides)
	return out, true
}

// ActiveFrameID returns the id of the frame being edited.
func (e *Engine) ActiveFrameID() string { return frameID(e.activeFrame()) }
