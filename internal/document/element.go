package document

// Normalize recomputes every derived field of el from its primary geometry
// and clamps degenerate boxes. It must run after any mutation of an
// element's position, size, endpoints, points or text content.
func Normalize(el *Element, m Measurer) {
	switch el.Kind {
	case KindArrow, KindLine:
		el.Rotation = 0
		if el.Connector == nil {
			el.Connector = &ConnectorData{StartX: el.X, StartY: el.Y, EndX: el.X + el.Width, EndY: el.Y + el.Height}
		}
		c := el.Connector
		r := RectFromCorners(c.StartX, c.StartY, c.EndX, c.EndY)
		el.X, el.Y, el.Width, el.Height = r.X, r.Y, r.Width, r.Height

	case KindFreedraw:
		el.Rotation = 0
		if el.Freedraw == nil {
			el.Freedraw = &FreedrawData{}
		}
		if len(el.Freedraw.Points) == 0 {
			el.Width, el.Height = 0, 0
			return
		}
		r := PointsBounds(el.Freedraw.Points)
		el.X, el.Y, el.Width, el.Height = r.X, r.Y, r.Width, r.Height

	case KindText:
		el.Rotation = 0
		layoutTextElement(el, m)

	default:
		el.Width = max(el.Width, MinElementSize)
		el.Height = max(el.Height, MinElementSize)
	}
}

// Translate moves an element by (dx, dy), moving connector endpoints and
// freedraw points along with the box.
func Translate(el *Element, dx, dy float64) {
	el.X += dx
	el.Y += dy
	if el.Connector != nil {
		el.Connector.StartX += dx
		el.Connector.StartY += dy
		el.Connector.EndX += dx
		el.Connector.EndY += dy
	}
	if el.Freedraw != nil {
		for i := range el.Freedraw.Points {
			el.Freedraw.Points[i].X += dx
			el.Freedraw.Points[i].Y += dy
		}
	}
}

// SyncBoundText lays text out inside container. The sync is one-way: the
// container is never changed. Layout is unrotated; renderers apply the
// container's rotation to its bound text.
func SyncBoundText(container, text *Element, m Measurer) {
	if text.Text == nil {
		text.Text = &TextData{}
	}
	text.Text.AutoWidth = false
	text.Text.ContainerID = container.ID
	text.Rotation = 0

	text.X = container.X + BoundTextPadding
	text.Width = max(container.Width-2*BoundTextPadding, MinElementSize)
	layoutTextElement(text, m)

	if text.Text.VerticalAlign == AlignTop {
		text.Y = container.Y + BoundTextPadding
		return
	}
	text.Y = container.Y + (container.Height-text.Height)/2
}

// FitFreedraw rescales points taken from the box from into the box to.
func FitFreedraw(points []Point, from, to Rect) []Point {
	out := make([]Point, len(points))
	sx, sy := 1.0, 1.0
	if from.Width > 0 {
		sx = to.Width / from.Width
	}
	if from.Height > 0 {
		sy = to.Height / from.Height
	}
	for i, p := range points {
		out[i] = Point{
			X: to.X + (p.X-from.X)*sx,
			Y: to.Y + (p.Y-from.Y)*sy,
		}
	}
	return out
}
