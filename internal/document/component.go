package document

import "strconv"

// DefFromElement captures el as a master element positioned relative to (originX, originY).
func DefFromElement(el Element, originX, originY float64) ComponentElementDef {
	c := el.Clone()
	def := ComponentElementDef{
		ID:            c.ID,
		Kind:          c.Kind,
		OffsetX:       c.X - originX,
		OffsetY:       c.Y - originY,
		Width:         c.Width,
		Height:        c.Height,
		Rotation:      c.Rotation,
		Style:         c.Style,
		SemanticTag:   c.SemanticTag,
		Visible:       c.Visible,
		Name:          c.Name,
		BoundElements: c.BoundElements,
		Text:          c.Text,
		Connector:     c.Connector,
		Freedraw:      c.Freedraw,
	}
	if def.Connector != nil {
		def.Connector.StartX -= originX
		def.Connector.StartY -= originY
		def.Connector.EndX -= originX
		def.Connector.EndY -= originY
	}
	if def.Freedraw != nil {
		for i := range def.Freedraw.Points {
			def.Freedraw.Points[i].X -= originX
			def.Freedraw.Points[i].Y -= originY
		}
	}
	return def
}

// ElementFromDef places a master element at (originX, originY).
func ElementFromDef(def ComponentElementDef, originX, originY float64) Element {
	d := def.Clone()
	el := Element{
		ID:            d.ID,
		Kind:          d.Kind,
		X:             originX + d.OffsetX,
		Y:             originY + d.OffsetY,
		Width:         d.Width,
		Height:        d.Height,
		Rotation:      d.Rotation,
		Style:         d.Style,
		SemanticTag:   d.SemanticTag,
		Visible:       d.Visible,
		Name:          d.Name,
		BoundElements: d.BoundElements,
		Text:          d.Text,
		Connector:     d.Connector,
		Freedraw:      d.Freedraw,
	}
	if el.Connector != nil {
		el.Connector.StartX += originX
		el.Connector.StartY += originY
		el.Connector.EndX += originX
		el.Connector.EndY += originY
	}
	if el.Freedraw != nil {
		for i := range el.Freedraw.Points {
			el.Freedraw.Points[i].X += originX
			el.Freedraw.Points[i].Y += originY
		}
	}
	return el
}

// ResolveInstance returns the instance's absolute elements: master geometry
// offset by the placement with the instance's overrides applied. Element ids
// are the master element ids.
func ResolveInstance(comp *UserComponent, inst *ComponentInstance, m Measurer) []Element {
	out := make([]Element, 0, len(comp.MasterElements))
	for _, def := range comp.MasterElements {
		el := ElementFromDef(def, inst.X, inst.Y)
		for _, ov := range inst.Overrides {
			if ov.ElementID == def.ID {
				ApplyProperty(&el, ov.Property, ov.Value)
			}
		}
		if el.Kind == KindText && !el.IsBoundText() {
			Normalize(&el, m)
		}
		out = append(out, el)
	}

	// Bound text follows its container after overrides changed content.
	index := make(map[string]int, len(out))
	for i := range out {
		index[out[i].ID] = i
	}
	for i := range out {
		if !out[i].IsBoundText() {
			continue
		}
		if ci, ok := index[out[i].Text.ContainerID]; ok {
			SyncBoundText(&out[ci], &out[i], m)
		}
	}
	return out
}

// InstanceBounds returns the resolved placement box of an instance.
func InstanceBounds(comp *UserComponent, inst *ComponentInstance) Rect {
	return Rect{X: inst.X, Y: inst.Y, Width: comp.Width, Height: comp.Height}
}

// ApplyProperty sets one overridable property on an element. Unknown
// properties are ignored.
func ApplyProperty(el *Element, property, value string) {
	switch property {
	case PropContent:
		if el.Text != nil {
			el.Text.Content = value
		}
	case PropStrokeColor:
		if el.Style == nil {
			el.Style = &Style{}
		}
		el.Style.StrokeColor = value
	case PropFillColor:
		if el.Style == nil {
			el.Style = &Style{}
		}
		el.Style.FillColor = value
	case PropName:
		el.Name = value
	case PropSemanticTag:
		el.SemanticTag = value
	case PropVisible:
		v, err := strconv.ParseBool(value)
		if err == nil {
			el.Visible = &v
		}
	}
}

// ApplyDefProperty edits a master element definition.
func ApplyDefProperty(def *ComponentElementDef, property, value string) {
	el := ElementFromDef(*def, 0, 0)
	ApplyProperty(&el, property, value)
	*def = DefFromElement(el, 0, 0)
}
