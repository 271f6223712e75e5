package engine

import (
	"slices"

	"github.com/fraction12/wireflow/internal/document"
)

// Selection returns the selected element and instance ids.
func (e *Engine) Selection() []string { return slices.Clone(e.selection) }

// SelectionSource reports how the current selection was made.
func (e *Engine) SelectionSource() SelectionSource { return e.selectionSource }

// Select replaces the selection. Unknown ids are dropped and group members
// expand to their whole group.
func (e *Engine) Select(ids []string) {
	if e.edit != nil {
		e.commitTextEdit()
	}
	e.setSelection(ids, SelectionProgrammed)
}

// SelectAll selects every element and instance of the active frame.
func (e *Engine) SelectAll() {
	if e.edit != nil {
		e.commitTextEdit()
	}
	f := e.activeFrame()
	var ids []string
	for i := range f.Elements {
		if !f.Elements[i].IsBoundText() {
			ids = append(ids, f.Elements[i].ID)
		}
	}
	for _, inst := range e.doc.ComponentInstances {
		if inst.FrameID == f.ID {
			ids = append(ids, inst.ID)
		}
	}
	e.setSelection(ids, SelectionAll)
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() { e.clearSelection() }

func (e *Engine) clearSelection() {
	e.selection = nil
	e.selectionSource = SelectionNone
}

func (e *Engine) setSelection(ids []string, source SelectionSource) {
	e.selection = e.expandSelection(ids)
	e.selectionSource = source
	if len(e.selection) == 0 {
		e.selectionSource = SelectionNone
	}
}

// expandSelection resolves ids against the active frame.
func (e *Engine) expandSelection(ids []string) []string {
	return e.expand(ids, e.activeFrame())
}

// expand resolves ids to the set an operation acts on: bound text maps to
// its container, group members expand to every id in their group and
// unknown ids are dropped. When only is non-nil, ids outside that frame are
// dropped too. Order follows first appearance.
func (e *Engine) expand(ids []string, only *document.Frame) []string {
	var out []string
	add := func(id string) {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, id := range ids {
		if inst := e.instance(id); inst != nil {
			if only == nil || inst.FrameID == only.ID {
				add(id)
			}
			continue
		}
		f, idx := e.findElement(id)
		if idx < 0 || (only != nil && f.ID != only.ID) {
			continue
		}
		el := &f.Elements[idx]
		if el.IsBoundText() {
			if ci := indexOf(f, el.Text.ContainerID); ci >= 0 {
				el = &f.Elements[ci]
			}
		}
		switch {
		case el.GroupID != "":
			members, _ := e.memberIDs(el.GroupID)
			for _, m := range members {
				add(m)
			}
		case el.ElementGroupID != "":
			members, _ := e.memberIDs(el.ElementGroupID)
			for _, m := range members {
				add(m)
			}
		default:
			add(el.ID)
		}
	}
	return out
}

// selectedParts splits the selection into element and instance ids.
func (e *Engine) selectedParts() (elements, instances []string) {
	for _, id := range e.selection {
		if e.isInstance(id) {
			instances = append(instances, id)
		} else {
			elements = append(elements, id)
		}
	}
	return elements, instances
}

// SelectionBounds returns the union box of the selection.
func (e *Engine) SelectionBounds() (document.Rect, bool) {
	return e.boundsOf(e.selection)
}

// boundsOf unions the boxes of elements and instances among ids.
func (e *Engine) boundsOf(ids []string) (document.Rect, bool) {
	var (
		r     document.Rect
		found bool
	)
	for _, id := range ids {
		b, ok := e.itemBounds(id)
		if !ok {
			continue
		}
		if !found {
			r, found = b, true
			continue
		}
		r = r.Union(b)
	}
	return r, found
}

func (e *Engine) itemBounds(id string) (document.Rect, bool) {
	if inst := e.instance(id); inst != nil {
		comp := e.component(inst.ComponentID)
		if comp == nil {
			return document.Rect{}, false
		}
		return document.InstanceBounds(comp, inst), true
	}
	el := e.element(id)
	if el == nil {
		return document.Rect{}, false
	}
	return el.Bounds(), true
}
