package engine

import (
	"math"
	"slices"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/typeid"
)

// ElementPatch is a partial update of an element's non-geometric
// properties, plus connector endpoints and freedraw points. Nil fields are
// left unchanged.
type ElementPatch struct {
	Content       *string                 `json:"content,omitempty"`
	FontSize      *float64                `json:"fontSize,omitempty"`
	FontFamily    *string                 `json:"fontFamily,omitempty"`
	TextAlign     *string                 `json:"textAlign,omitempty"`
	VerticalAlign *document.VerticalAlign `json:"verticalAlign,omitempty"`
	AutoWidth     *bool                   `json:"autoWidth,omitempty"`
	StrokeColor   *string                 `json:"strokeColor,omitempty"`
	FillColor     *string                 `json:"fillColor,omitempty"`
	Name          *string                 `json:"name,omitempty"`
	SemanticTag   *string                 `json:"semanticTag,omitempty"`
	Visible       *bool                   `json:"visible,omitempty"`
	Connector     *document.ConnectorData `json:"connector,omitempty"`
	Points        []document.Point        `json:"points,omitempty"`
}

// AddElement inserts el into a frame ("" selects the active frame) on top
// of the paint order and returns its id. An empty id is generated; an id
// already in use is rejected. Group membership cannot be set here. Text
// naming an existing container becomes its bound text.
func (e *Engine) AddElement(frameID string, el document.Element) (string, bool) {
	e.finishInteraction()
	var id string
	ok := e.mutate(func() bool {
		f := e.activeFrame()
		if frameID != "" {
			f = e.frame(frameID)
		}
		if f == nil || !el.Kind.Valid() {
			return false
		}
		el = el.Clone()
		if el.ID == "" {
			el.ID = typeid.NewElementID()
		} else if e.element(el.ID) != nil || e.instance(el.ID) != nil {
			return false
		}
		el.GroupID, el.ElementGroupID = "", ""
		el.BoundElements = nil
		clearForeignPayload(&el)

		if el.IsBoundText() {
			ci := indexOf(f, el.Text.ContainerID)
			if ci < 0 || !f.Elements[ci].Kind.IsContainer() {
				el.Text.ContainerID = ""
			} else {
				container := &f.Elements[ci]
				container.BoundElements = append(container.BoundElements, el.ID)
				el.GroupID, el.ElementGroupID = container.GroupID, container.ElementGroupID
				e.addGroupMember(el.GroupID, el.ElementGroupID, el.ID)
			}
		}

		f.Elements = append(f.Elements, el)
		e.normalizeAt(f, len(f.Elements)-1)
		id = el.ID
		return true
	})
	return id, ok
}

// clearForeignPayload keeps only the payload matching the element kind.
func clearForeignPayload(el *document.Element) {
	switch el.Kind {
	case document.KindText:
		el.Connector, el.Freedraw = nil, nil
		if el.Text == nil {
			el.Text = &document.TextData{}
		}
	case document.KindArrow, document.KindLine:
		el.Text, el.Freedraw = nil, nil
	case document.KindFreedraw:
		el.Text, el.Connector = nil, nil
	default:
		el.Text, el.Connector, el.Freedraw = nil, nil, nil
	}
}

// UpdateElement applies a property patch to one element.
func (e *Engine) UpdateElement(id string, p ElementPatch) bool {
	e.finishInteraction()
	if e.element(id) == nil || !e.allowed(ActionEdit, []string{id}) {
		return false
	}
	return e.mutate(func() bool {
		f, idx := e.findElement(id)
		el := &f.Elements[idx]

		if el.Text != nil {
			if p.Content != nil {
				el.Text.Content = *p.Content
			}
			if p.FontSize != nil && *p.FontSize > 0 {
				el.Text.FontSize = *p.FontSize
			}
			if p.FontFamily != nil {
				el.Text.FontFamily = *p.FontFamily
			}
			if p.TextAlign != nil {
				el.Text.TextAlign = *p.TextAlign
			}
			if p.VerticalAlign != nil {
				el.Text.VerticalAlign = *p.VerticalAlign
			}
			if p.AutoWidth != nil && !el.IsBoundText() {
				el.Text.AutoWidth = *p.AutoWidth
			}
		}
		if p.StrokeColor != nil {
			document.ApplyProperty(el, document.PropStrokeColor, *p.StrokeColor)
		}
		if p.FillColor != nil {
			document.ApplyProperty(el, document.PropFillColor, *p.FillColor)
		}
		if p.Name != nil {
			el.Name = *p.Name
		}
		if p.SemanticTag != nil {
			el.SemanticTag = *p.SemanticTag
		}
		if p.Visible != nil {
			v := *p.Visible
			el.Visible = &v
		}
		if p.Connector != nil && el.Kind.IsConnector() {
			c := *p.Connector
			el.Connector = &c
		}
		if p.Points != nil && el.Kind == document.KindFreedraw {
			el.Freedraw = &document.FreedrawData{Points: slices.Clone(p.Points)}
		}

		e.normalizeAt(f, idx)
		return true
	})
}

// MoveElements translates elements and instances by (dx, dy). Group members
// move their whole group.
func (e *Engine) MoveElements(ids []string, dx, dy float64) bool {
	e.finishInteraction()
	return e.translate(e.expand(ids, nil), dx, dy, ActionDrag)
}

// Nudge moves the selection by (dx, dy).
func (e *Engine) Nudge(dx, dy float64) bool {
	return e.translate(e.selection, dx, dy, ActionNudge)
}

func (e *Engine) translate(ids []string, dx, dy float64, action Action) bool {
	if len(ids) == 0 || (dx == 0 && dy == 0) {
		return false
	}
	if !e.allowed(action, ids) {
		return false
	}
	return e.mutate(func() bool {
		moved := false
		for _, id := range ids {
			if inst := e.instance(id); inst != nil {
				inst.X += dx
				inst.Y += dy
				moved = true
				continue
			}
			f, idx := e.findElement(id)
			if idx < 0 {
				continue
			}
			// Bound text follows its container.
			if el := &f.Elements[idx]; el.IsBoundText() && indexOf(f, el.Text.ContainerID) >= 0 {
				continue
			}
			document.Translate(&f.Elements[idx], dx, dy)
			e.syncBoundTextOf(f, idx)
			moved = true
		}
		for _, g := range e.componentGroupsOf(ids) {
			g.X += dx
			g.Y += dy
		}
		return moved
	})
}

// componentGroupsOf returns the component groups with a member among ids.
func (e *Engine) componentGroupsOf(ids []string) []*document.ComponentGroup {
	var out []*document.ComponentGroup
	for i := range e.doc.ComponentGroups {
		g := &e.doc.ComponentGroups[i]
		for _, id := range g.ElementIDs {
			if slices.Contains(ids, id) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// ResizeElement sets an element's box. Box kinds are clamped to the minimum
// size, free text changes position and width only, freedraw points are
// rescaled and connector endpoints are fitted to the box keeping their
// direction. Bound text cannot be resized.
func (e *Engine) ResizeElement(id string, r document.Rect) bool {
	e.finishInteraction()
	el := e.element(id)
	if el == nil || el.IsBoundText() || !e.allowed(ActionResize, []string{id}) {
		return false
	}
	return e.mutate(func() bool {
		f, idx := e.findElement(id)
		el := &f.Elements[idx]

		switch el.Kind {
		case document.KindText:
			el.X, el.Y, el.Width = r.X, r.Y, r.Width
			el.Text.AutoWidth = false
		case document.KindFreedraw:
			if el.Freedraw == nil {
				return false
			}
			el.Freedraw.Points = document.FitFreedraw(el.Freedraw.Points, el.Bounds(), r)
		case document.KindArrow, document.KindLine:
			c := el.Connector
			if c == nil {
				return false
			}
			c.StartX, c.EndX = fitSpan(c.StartX, c.EndX, r.X, r.Right())
			c.StartY, c.EndY = fitSpan(c.StartY, c.EndY, r.Y, r.Bottom())
		default:
			el.X, el.Y, el.Width, el.Height = r.X, r.Y, r.Width, r.Height
		}
		e.normalizeAt(f, idx)
		return true
	})
}

// fitSpan maps two coordinates onto lo..hi preserving which one is smaller.
func fitSpan(a, b, lo, hi float64) (float64, float64) {
	if a <= b {
		return lo, hi
	}
	return hi, lo
}

// RotateElement sets the rotation of a container element in radians.
func (e *Engine) RotateElement(id string, radians float64) bool {
	e.finishInteraction()
	el := e.element(id)
	if el == nil || !el.Kind.Rotatable() || !e.allowed(ActionRotate, []string{id}) {
		return false
	}
	return e.mutate(func() bool {
		f, idx := e.findElement(id)
		angle := math.Mod(radians, 2*math.Pi)
		if angle < 0 {
			angle += 2 * math.Pi
		}
		f.Elements[idx].Rotation = angle
		e.syncBoundTextOf(f, idx)
		return true
	})
}

// SetLocked sets or clears the locked flag. Locking is never itself blocked.
func (e *Engine) SetLocked(ids []string, locked bool) bool {
	e.finishInteraction()
	return e.mutate(func() bool {
		changed := false
		for _, id := range ids {
			if el := e.element(id); el != nil && el.Locked != locked {
				el.Locked = locked
				changed = true
			}
		}
		return changed
	})
}

// DeleteElements removes elements and instances. Group members delete their
// whole group's selection set, containers take their bound text with them.
func (e *Engine) DeleteElements(ids []string) bool {
	e.finishInteraction()
	targets := e.expand(ids, nil)
	if len(targets) == 0 || !e.allowed(ActionDelete, targets) {
		return false
	}
	return e.mutate(func() bool {
		var elements []string
		removed := 0
		for _, id := range targets {
			if e.isInstance(id) {
				removed += e.removeInstances(func(inst *document.ComponentInstance) bool { return inst.ID == id })
				continue
			}
			elements = append(elements, id)
		}
		removed += e.deleteElements(elements)
		return removed > 0
	})
}

// DeleteSelection deletes whatever is selected.
func (e *Engine) DeleteSelection() bool {
	return e.DeleteElements(e.selection)
}

// deleteElements removes elements with their bound text and repairs every
// reference to them: container back-references, group member lists,
// annotations and the selection. Element groups left with fewer than two
// members are dissolved.
func (e *Engine) deleteElements(ids []string) int {
	doomed := make(map[string]bool)
	for _, id := range ids {
		f, idx := e.findElement(id)
		if idx < 0 {
			continue
		}
		doomed[id] = true
		for _, t := range e.boundText(f, &f.Elements[idx]) {
			doomed[t] = true
		}
	}
	if len(doomed) == 0 {
		return 0
	}
	gone := func(id string) bool { return doomed[id] }

	for fi := range e.doc.Frames {
		f := &e.doc.Frames[fi]
		f.Elements = slices.DeleteFunc(f.Elements, func(el document.Element) bool { return doomed[el.ID] })
		for i := range f.Elements {
			el := &f.Elements[i]
			if len(el.BoundElements) > 0 {
				el.BoundElements = slices.DeleteFunc(el.BoundElements, gone)
				if len(el.BoundElements) == 0 {
					el.BoundElements = nil
				}
			}
		}
		if f.Documentation != nil {
			for id := range doomed {
				delete(f.Documentation.Annotations, id)
			}
		}
	}

	cgroups := e.doc.ComponentGroups[:0]
	for _, g := range e.doc.ComponentGroups {
		g.ElementIDs = slices.DeleteFunc(g.ElementIDs, gone)
		if len(g.ElementIDs) > 0 {
			cgroups = append(cgroups, g)
		}
	}
	e.doc.ComponentGroups = cgroups

	var dissolved []string
	for i := range e.doc.ElementGroups {
		g := &e.doc.ElementGroups[i]
		g.ElementIDs = slices.DeleteFunc(g.ElementIDs, gone)
		if len(g.ElementIDs) < 2 {
			dissolved = append(dissolved, g.ID)
		}
	}
	for _, id := range dissolved {
		e.dissolveElementGroup(id)
	}

	e.selection = slices.DeleteFunc(slices.Clone(e.selection), gone)
	return len(doomed)
}

// dissolveElementGroup detaches every member and removes the record.
func (e *Engine) dissolveElementGroup(id string) {
	g := e.elementGroup(id)
	if g == nil {
		return
	}
	for _, m := range g.ElementIDs {
		if el := e.element(m); el != nil && el.ElementGroupID == id {
			el.ElementGroupID = ""
		}
	}
	e.doc.ElementGroups = slices.DeleteFunc(e.doc.ElementGroups, func(g document.ElementGroup) bool { return g.ID == id })
}

// BringToFront moves elements to the top of their frame's paint order.
func (e *Engine) BringToFront(ids []string) bool { return e.reorder(ids, true) }

// SendToBack moves elements to the bottom of their frame's paint order.
func (e *Engine) SendToBack(ids []string) bool { return e.reorder(ids, false) }

func (e *Engine) reorder(ids []string, front bool) bool {
	e.finishInteraction()
	return e.mutate(func() bool {
		changed := false
		for fi := range e.doc.Frames {
			f := &e.doc.Frames[fi]
			picked := make(map[string]bool)
			for _, id := range e.withBoundText(f, e.expand(ids, f)) {
				picked[id] = true
			}
			if len(picked) == 0 {
				continue
			}
			var moving, rest []document.Element
			for _, el := range f.Elements {
				if picked[el.ID] {
					moving = append(moving, el)
				} else {
					rest = append(rest, el)
				}
			}
			var next []document.Element
			if front {
				next = append(rest, moving...)
			} else {
				next = append(moving, rest...)
			}
			for i := range next {
				if next[i].ID != f.Elements[i].ID {
					changed = true
					break
				}
			}
			f.Elements = next
		}
		return changed
	})
}
