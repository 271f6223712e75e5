package engine

import (
	"slices"
	"strconv"
	"time"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/typeid"
)

// ComponentDeleteMode selects what happens to instances when their
// component is deleted.
type ComponentDeleteMode string

const (
	// DeleteCascade removes every instance with the component.
	DeleteCascade ComponentDeleteMode = "cascade"
	// DeleteFlatten bakes every instance into independent elements first.
	DeleteFlatten ComponentDeleteMode = "flatten"
)

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// PromoteToComponent turns a group into a reusable component. The members
// become master elements positioned relative to the group's top-left
// corner; the originals and the group record are replaced by a single
// instance at the group's former origin.
func (e *Engine) PromoteToComponent(groupID, name string) (componentID, instanceID string, ok bool) {
	e.finishInteraction()
	members, found := e.memberIDs(groupID)
	if !found || len(members) == 0 || !e.allowed(ActionDelete, members) {
		return "", "", false
	}
	members = slices.Clone(members)
	f, _ := e.findElement(members[0])
	if f == nil {
		return "", "", false
	}
	r, _ := e.boundsOf(members)
	if name == "" {
		name = "Component " + strconv.Itoa(len(e.doc.UserComponents)+1)
	}

	// Master elements keep paint order.
	var els []document.Element
	for _, el := range f.Elements {
		if slices.Contains(members, el.ID) {
			c := el.Clone()
			c.GroupID, c.ElementGroupID, c.Locked = "", "", false
			els = append(els, c)
		}
	}
	remapIDs(els, typeid.NewMasterElementID)

	stamp := now()
	comp := document.UserComponent{
		ID:        typeid.NewComponentID(),
		Name:      name,
		Width:     r.Width,
		Height:    r.Height,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
	for _, el := range els {
		comp.MasterElements = append(comp.MasterElements, document.DefFromElement(el, r.X, r.Y))
	}
	inst := document.ComponentInstance{
		ID:          typeid.NewInstanceID(),
		ComponentID: comp.ID,
		FrameID:     f.ID,
		X:           r.X,
		Y:           r.Y,
	}

	e.mutate(func() bool {
		e.deleteElements(members)
		e.doc.UserComponents = append(e.doc.UserComponents, comp)
		e.doc.ComponentInstances = append(e.doc.ComponentInstances, inst)
		return true
	})
	if f.ID == e.doc.ActiveFrameID {
		e.setSelection([]string{inst.ID}, SelectionProgrammed)
	}
	return comp.ID, inst.ID, true
}

// PlaceInstance adds an instance of a component to a frame ("" selects the
// active frame) with its top-left corner at (x, y).
func (e *Engine) PlaceInstance(componentID, frameID string, x, y float64) (string, bool) {
	e.finishInteraction()
	if e.component(componentID) == nil {
		return "", false
	}
	f := e.activeFrame()
	if frameID != "" {
		f = e.frame(frameID)
	}
	if f == nil {
		return "", false
	}
	inst := document.ComponentInstance{
		ID:          typeid.NewInstanceID(),
		ComponentID: componentID,
		FrameID:     f.ID,
		X:           x,
		Y:           y,
	}
	e.mutate(func() bool {
		e.doc.ComponentInstances = append(e.doc.ComponentInstances, inst)
		return true
	})
	if f.ID == e.doc.ActiveFrameID {
		e.setSelection([]string{inst.ID}, SelectionProgrammed)
	}
	return inst.ID, true
}

// MoveInstance translates an instance by (dx, dy).
func (e *Engine) MoveInstance(id string, dx, dy float64) bool {
	e.finishInteraction()
	if !e.isInstance(id) {
		return false
	}
	return e.translate([]string{id}, dx, dy, ActionDrag)
}

// DeleteInstance removes one instance. The component is kept.
func (e *Engine) DeleteInstance(id string) bool {
	e.finishInteraction()
	return e.mutate(func() bool {
		return e.removeInstances(func(inst *document.ComponentInstance) bool { return inst.ID == id }) > 0
	})
}

// removeInstances deletes every instance matching pred and drops them from
// the selection.
func (e *Engine) removeInstances(pred func(*document.ComponentInstance) bool) int {
	var gone []string
	e.doc.ComponentInstances = slices.DeleteFunc(e.doc.ComponentInstances, func(inst document.ComponentInstance) bool {
		if pred(&inst) {
			gone = append(gone, inst.ID)
			return true
		}
		return false
	})
	if len(gone) > 0 {
		e.selection = slices.DeleteFunc(slices.Clone(e.selection), func(id string) bool {
			return slices.Contains(gone, id)
		})
	}
	return len(gone)
}

// SetInstanceOverride shadows one property of one master element for a
// single instance. Setting the value an override already holds is a no-op.
func (e *Engine) SetInstanceOverride(instanceID, elementID, property, value string) bool {
	e.finishInteraction()
	if !document.ValidProperty(property) || !e.hasMaster(instanceID, elementID) {
		return false
	}
	return e.mutate(func() bool {
		inst := e.instance(instanceID)
		for i := range inst.Overrides {
			ov := &inst.Overrides[i]
			if ov.ElementID == elementID && ov.Property == property {
				if ov.Value == value {
					return false
				}
				ov.Value = value
				return true
			}
		}
		inst.Overrides = append(inst.Overrides, document.Override{ElementID: elementID, Property: property, Value: value})
		return true
	})
}

// ClearInstanceOverride removes an override so the instance follows its
// master again.
func (e *Engine) ClearInstanceOverride(instanceID, elementID, property string) bool {
	e.finishInteraction()
	if e.instance(instanceID) == nil {
		return false
	}
	return e.mutate(func() bool {
		inst := e.instance(instanceID)
		n := len(inst.Overrides)
		inst.Overrides = slices.DeleteFunc(inst.Overrides, func(ov document.Override) bool {
			return ov.ElementID == elementID && ov.Property == property
		})
		if len(inst.Overrides) == 0 {
			inst.Overrides = nil
		}
		return len(inst.Overrides) != n
	})
}

func (e *Engine) hasMaster(instanceID, elementID string) bool {
	inst := e.instance(instanceID)
	if inst == nil {
		return false
	}
	comp := e.component(inst.ComponentID)
	if comp == nil {
		return false
	}
	return slices.ContainsFunc(comp.MasterElements, func(d document.ComponentElementDef) bool { return d.ID == elementID })
}

// UpdateMasterElement edits a property of a master element. Every instance
// picks the change up except where it overrides that property.
func (e *Engine) UpdateMasterElement(componentID, elementID, property, value string) bool {
	e.finishInteraction()
	if !document.ValidProperty(property) || e.component(componentID) == nil {
		return false
	}
	return e.mutate(func() bool {
		comp := e.component(componentID)
		for i := range comp.MasterElements {
			def := &comp.MasterElements[i]
			if def.ID != elementID {
				continue
			}
			if def.Text == nil && property == document.PropContent {
				return false
			}
			document.ApplyDefProperty(def, property, value)
			comp.UpdatedAt = now()
			return true
		}
		return false
	})
}

// RenameComponent changes a component's display name.
func (e *Engine) RenameComponent(id, name string) bool {
	e.finishInteraction()
	if name == "" {
		return false
	}
	return e.mutate(func() bool {
		comp := e.component(id)
		if comp == nil || comp.Name == name {
			return false
		}
		comp.Name = name
		comp.UpdatedAt = now()
		return true
	})
}

// DeleteComponent removes a component and deals with its instances per
// mode. Flatten replaces each instance by its resolved elements, grouped
// into a new element group when there are at least two of them.
func (e *Engine) DeleteComponent(id string, mode ComponentDeleteMode) bool {
	e.finishInteraction()
	if mode != DeleteCascade && mode != DeleteFlatten {
		return false
	}
	return e.mutate(func() bool {
		comp := e.component(id)
		if comp == nil {
			return false
		}
		if mode == DeleteFlatten {
			for i := range e.doc.ComponentInstances {
				inst := &e.doc.ComponentInstances[i]
				if inst.ComponentID == id {
					e.flatten(comp, inst)
				}
			}
		}
		e.removeInstances(func(inst *document.ComponentInstance) bool { return inst.ComponentID == id })
		e.doc.UserComponents = slices.DeleteFunc(e.doc.UserComponents, func(c document.UserComponent) bool { return c.ID == id })
		return true
	})
}

// flatten bakes an instance into its frame as independent elements.
func (e *Engine) flatten(comp *document.UserComponent, inst *document.ComponentInstance) {
	f := e.frame(inst.FrameID)
	if f == nil {
		return
	}
	els := document.ResolveInstance(comp, inst, e.measurer)
	remapIDs(els, typeid.NewElementID)
	if len(els) >= 2 {
		g := document.ElementGroup{ID: typeid.NewElementGroupID(), FrameID: f.ID}
		for i := range els {
			els[i].ElementGroupID = g.ID
			g.ElementIDs = append(g.ElementIDs, els[i].ID)
		}
		e.doc.ElementGroups = append(e.doc.ElementGroups, g)
	}
	f.Elements = append(f.Elements, els...)
}

// ResolvedInstance returns the absolute elements of an instance with its
// overrides applied.
func (e *Engine) ResolvedInstance(id string) ([]document.Element, bool) {
	inst := e.instance(id)
	if inst == nil {
		return nil, false
	}
	comp := e.component(inst.ComponentID)
	if comp == nil {
		return nil, false
	}
	return document.ResolveInstance(comp, inst, e.measurer), true
}

// Component returns a copy of a component by id.
func (e *Engine) Component(id string) (document.UserComponent, bool) {
	comp := e.component(id)
	if comp == nil {
		return document.UserComponent{}, false
	}
	out := *comp
	out.MasterElements = make([]document.ComponentElementDef, len(comp.MasterElements))
	for i, d := range comp.MasterElements {
		out.MasterElements[i] = d.Clone()
	}
	return out, true
}
