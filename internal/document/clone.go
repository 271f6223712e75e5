package document

import "maps"

// Clone returns a deep copy of the snapshot. Nil slices stay nil so that a
// clone compares equal to its source.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Frames:             cloneFrames(s.Frames),
		ComponentGroups:    cloneComponentGroups(s.ComponentGroups),
		ElementGroups:      cloneElementGroups(s.ElementGroups),
		UserComponents:     cloneUserComponents(s.UserComponents),
		ComponentInstances: cloneInstances(s.ComponentInstances),
	}
}

// Clone returns a deep copy of the document state.
func (s *DocumentState) Clone() *DocumentState {
	if s == nil {
		return nil
	}
	return &DocumentState{
		Version:            s.Version,
		Frames:             cloneFrames(s.Frames),
		ComponentGroups:    cloneComponentGroups(s.ComponentGroups),
		ElementGroups:      cloneElementGroups(s.ElementGroups),
		UserComponents:     cloneUserComponents(s.UserComponents),
		ComponentInstances: cloneInstances(s.ComponentInstances),
		ActiveFrameID:      s.ActiveFrameID,
	}
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	out := e
	if e.Style != nil {
		st := *e.Style
		out.Style = &st
	}
	if e.Visible != nil {
		v := *e.Visible
		out.Visible = &v
	}
	out.BoundElements = cloneStrings(e.BoundElements)
	if e.Text != nil {
		t := *e.Text
		out.Text = &t
	}
	if e.Connector != nil {
		c := *e.Connector
		out.Connector = &c
	}
	if e.Freedraw != nil {
		out.Freedraw = &FreedrawData{Points: clonePoints(e.Freedraw.Points)}
	}
	return out
}

// Clone returns a deep copy of the master element definition.
func (d ComponentElementDef) Clone() ComponentElementDef {
	out := d
	if d.Style != nil {
		st := *d.Style
		out.Style = &st
	}
	if d.Visible != nil {
		v := *d.Visible
		out.Visible = &v
	}
	out.BoundElements = cloneStrings(d.BoundElements)
	if d.Text != nil {
		t := *d.Text
		out.Text = &t
	}
	if d.Connector != nil {
		c := *d.Connector
		out.Connector = &c
	}
	if d.Freedraw != nil {
		out.Freedraw = &FreedrawData{Points: clonePoints(d.Freedraw.Points)}
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := f
	if f.Elements != nil {
		out.Elements = make([]Element, len(f.Elements))
		for i, el := range f.Elements {
			out.Elements[i] = el.Clone()
		}
	}
	if f.Documentation != nil {
		doc := FrameDocumentation{Notes: f.Documentation.Notes}
		if f.Documentation.Annotations != nil {
			doc.Annotations = maps.Clone(f.Documentation.Annotations)
		}
		out.Documentation = &doc
	}
	return out
}

func cloneFrames(frames []Frame) []Frame {
	if frames == nil {
		return nil
	}
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = f.Clone()
	}
	return out
}

func cloneComponentGroups(groups []ComponentGroup) []ComponentGroup {
	if groups == nil {
		return nil
	}
	out := make([]ComponentGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].ElementIDs = cloneStrings(g.ElementIDs)
	}
	return out
}

func cloneElementGroups(groups []ElementGroup) []ElementGroup {
	if groups == nil {
		return nil
	}
	out := make([]ElementGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].ElementIDs = cloneStrings(g.ElementIDs)
	}
	return out
}

func cloneUserComponents(components []UserComponent) []UserComponent {
	if components == nil {
		return nil
	}
	out := make([]UserComponent, len(components))
	for i, c := range components {
		out[i] = c
		if c.MasterElements != nil {
			out[i].MasterElements = make([]ComponentElementDef, len(c.MasterElements))
			for j, d := range c.MasterElements {
				out[i].MasterElements[j] = d.Clone()
			}
		}
	}
	return out
}

func cloneInstances(instances []ComponentInstance) []ComponentInstance {
	if instances == nil {
		return nil
	}
	out := make([]ComponentInstance, len(instances))
	for i, inst := range instances {
		out[i] = inst
		if inst.Overrides != nil {
			out[i].Overrides = make([]Override, len(inst.Overrides))
			copy(out[i].Overrides, inst.Overrides)
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func clonePoints(p []Point) []Point {
	if p == nil {
		return nil
	}
	out := make([]Point, len(p))
	copy(out, p)
	return out
}
