package engine

import (
	"slices"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/typeid"
)

// GroupSelection groups the selected elements into a new element group.
func (e *Engine) GroupSelection() (string, bool) {
	src := e.selectionSource
	id, ok := e.GroupElements(e.selection)
	if ok {
		e.selectionSource = src
	}
	return id, ok
}

// GroupElements creates an element group from at least two ungrouped
// elements of one frame. Bound text maps to its container, and containers
// bring their bound text along. Instances, elements of different frames
// and already grouped elements reject the whole operation.
func (e *Engine) GroupElements(ids []string) (string, bool) {
	e.finishInteraction()
	f, members, ok := e.groupable(ids)
	if !ok || len(members) < 2 || !e.allowed(ActionGroup, members) {
		return "", false
	}
	g := document.ElementGroup{
		ID:         typeid.NewElementGroupID(),
		ElementIDs: e.withBoundText(f, members),
		FrameID:    f.ID,
	}
	e.mutate(func() bool {
		for _, id := range g.ElementIDs {
			f.Elements[indexOf(f, id)].ElementGroupID = g.ID
		}
		e.doc.ElementGroups = append(e.doc.ElementGroups, g)
		return true
	})
	e.setSelection(g.ElementIDs, SelectionProgrammed)
	return g.ID, true
}

// groupable resolves ids to the ungrouped top-level elements of a single
// frame. Bound text is replaced by its container.
func (e *Engine) groupable(ids []string) (*document.Frame, []string, bool) {
	var (
		frame   *document.Frame
		members []string
	)
	for _, id := range ids {
		f, idx := e.findElement(id)
		if idx < 0 {
			return nil, nil, false
		}
		if frame != nil && f.ID != frame.ID {
			return nil, nil, false
		}
		frame = f
		el := &f.Elements[idx]
		if el.IsBoundText() {
			if ci := indexOf(f, el.Text.ContainerID); ci >= 0 {
				el = &f.Elements[ci]
			}
		}
		if el.Grouped() {
			return nil, nil, false
		}
		if !slices.Contains(members, el.ID) {
			members = append(members, el.ID)
		}
	}
	return frame, members, frame != nil
}

// UngroupSelection ungroups every group touched by the selection.
func (e *Engine) UngroupSelection() bool {
	var groups []string
	for _, id := range e.selection {
		el := e.element(id)
		if el == nil {
			continue
		}
		for _, g := range []string{el.GroupID, el.ElementGroupID} {
			if g != "" && !slices.Contains(groups, g) {
				groups = append(groups, g)
			}
		}
	}
	return e.ungroup(groups)
}

// Ungroup detaches every member of a group of either kind and removes the
// group record. Members are kept.
func (e *Engine) Ungroup(groupID string) bool {
	return e.ungroup([]string{groupID})
}

func (e *Engine) ungroup(groupIDs []string) bool {
	e.finishInteraction()
	return e.mutate(func() bool {
		changed := false
		for _, id := range groupIDs {
			if e.elementGroup(id) != nil {
				e.dissolveElementGroup(id)
				changed = true
				continue
			}
			g := e.componentGroup(id)
			if g == nil {
				continue
			}
			for _, m := range g.ElementIDs {
				if el := e.element(m); el != nil && el.GroupID == id {
					el.GroupID = ""
				}
			}
			e.doc.ComponentGroups = slices.DeleteFunc(e.doc.ComponentGroups, func(g document.ComponentGroup) bool { return g.ID == id })
			changed = true
		}
		return changed
	})
}

// DeleteGroup deletes every member of a group and the group record.
func (e *Engine) DeleteGroup(groupID string) bool {
	e.finishInteraction()
	members, ok := e.memberIDs(groupID)
	if !ok || !e.allowed(ActionDelete, members) {
		return false
	}
	members = slices.Clone(members)
	return e.mutate(func() bool {
		return e.deleteElements(members) > 0
	})
}

// DeleteComponentGroup deletes a component group with its members.
func (e *Engine) DeleteComponentGroup(groupID string) bool {
	if e.componentGroup(groupID) == nil {
		return false
	}
	return e.DeleteGroup(groupID)
}

// MoveGroup translates every member of a group by (dx, dy). A component
// group's origin moves with it.
func (e *Engine) MoveGroup(groupID string, dx, dy float64) bool {
	e.finishInteraction()
	members, ok := e.memberIDs(groupID)
	if !ok {
		return false
	}
	return e.translate(slices.Clone(members), dx, dy, ActionDrag)
}

// CreateComponentGroup clusters ungrouped elements of one frame into a
// component group of the given type, as the semantic widget gesture does.
// The origin is the top-left corner of the members' bounds.
func (e *Engine) CreateComponentGroup(componentType string, ids []string) (string, bool) {
	e.finishInteraction()
	if componentType == "" {
		return "", false
	}
	f, members, ok := e.groupable(ids)
	if !ok || len(members) == 0 {
		return "", false
	}
	members = e.withBoundText(f, members)
	r, _ := e.boundsOf(members)
	g := document.ComponentGroup{
		ID:            typeid.NewComponentGroupID(),
		ComponentType: componentType,
		X:             r.X,
		Y:             r.Y,
		ElementIDs:    members,
	}
	e.mutate(func() bool {
		for _, id := range members {
			f.Elements[indexOf(f, id)].GroupID = g.ID
		}
		e.doc.ComponentGroups = append(e.doc.ComponentGroups, g)
		return true
	})
	e.setSelection(members, SelectionProgrammed)
	return g.ID, true
}

// InstantiateTemplate stamps a template onto the active frame with its
// top-left corner at (x, y) and returns the new component group id.
func (e *Engine) InstantiateTemplate(name string, x, y float64) (string, bool) {
	e.finishInteraction()
	if e.templates == nil {
		return "", false
	}
	t, ok := e.templates.Lookup(name)
	if !ok || len(t.Elements) == 0 {
		return "", false
	}
	f := e.activeFrame()
	g := document.ComponentGroup{
		ID:            typeid.NewComponentGroupID(),
		ComponentType: t.ComponentType,
		X:             x,
		Y:             y,
	}

	els := make([]document.Element, 0, len(t.Elements))
	for _, def := range t.Elements {
		el := document.ElementFromDef(def, x, y)
		el.GroupID = g.ID
		els = append(els, el)
	}
	remapIDs(els, typeid.NewElementID)
	for _, el := range els {
		g.ElementIDs = append(g.ElementIDs, el.ID)
	}

	e.mutate(func() bool {
		start := len(f.Elements)
		f.Elements = append(f.Elements, els...)
		for i := start; i < len(f.Elements); i++ {
			if !f.Elements[i].IsBoundText() {
				e.normalizeAt(f, i)
			}
		}
		e.doc.ComponentGroups = append(e.doc.ComponentGroups, g)
		return true
	})
	e.setSelection(g.ElementIDs, SelectionProgrammed)
	return g.ID, true
}

// remapIDs gives every element a fresh id and rewrites the container
// references between them.
func remapIDs(els []document.Element, newID func() string) map[string]string {
	ids := make(map[string]string, len(els))
	for i := range els {
		next := newID()
		ids[els[i].ID] = next
		els[i].ID = next
	}
	for i := range els {
		el := &els[i]
		if len(el.BoundElements) > 0 {
			bound := el.BoundElements[:0]
			for _, b := range el.BoundElements {
				if id, ok := ids[b]; ok {
					bound = append(bound, id)
				}
			}
			el.BoundElements = bound
			if len(bound) == 0 {
				el.BoundElements = nil
			}
		}
		if el.Text != nil && el.Text.ContainerID != "" {
			el.Text.ContainerID = ids[el.Text.ContainerID]
		}
	}
	return ids
}
