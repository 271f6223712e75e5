package engine

import (
	"math"
	"slices"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/snap"
	"github.com/fraction12/wireflow/internal/typeid"
)

// gesture is the record of one pointer interaction. Everything a move
// computes derives from the fields captured at gesture start plus the
// current pointer, never from the previous move.
type gesture struct {
	before  document.Snapshot
	frameID string
	startX  float64
	startY  float64
	moved   bool

	// drawing; downX/downY is the unsnapped pointer-down point
	draft *document.Element
	downX float64
	downY float64

	// dragging
	items   []dragItem
	bounds  document.Rect
	origins map[string]document.Point

	// resizing and rotating
	target  string
	handle  Handle
	initial document.Element

	// panning, in screen coordinates
	screenX  float64
	screenY  float64
	viewport Viewport

	// marquee
	marquee  document.Rect
	additive bool
	base     []string
	baseSrc  SelectionSource
}

type dragItem struct {
	id       string
	instance bool
	el       document.Element
	x, y     float64
}

// PointerDown starts a gesture according to the active tool and what lies
// under the pointer.
func (e *Engine) PointerDown(ev PointerEvent) {
	x, y := e.viewport.ToWorld(ev.X, ev.Y)

	if e.edit != nil {
		if e.insideEdit(x, y) {
			return
		}
		e.commitTextEdit()
	}
	if e.gesture != nil {
		e.cancelGesture()
	}

	if ev.Button == ButtonMiddle || e.tool == ToolPan {
		e.beginPan(ev)
		return
	}
	if ev.Button != ButtonPrimary {
		return
	}
	if kind := e.tool.Kind(); kind != "" {
		e.beginDraw(kind, x, y)
		return
	}

	if el, h := e.hitHandle(x, y); el != nil {
		if h == HandleRotation {
			e.beginRotate(el, x, y)
		} else {
			e.beginResize(el, h, x, y)
		}
		return
	}

	id := e.HitTest(x, y)
	if id == "" {
		e.beginMarquee(x, y, ev.Shift)
		return
	}
	switch {
	case ev.Shift:
		e.toggleSelection(id)
		if !slices.Contains(e.selection, id) {
			return
		}
	case !slices.Contains(e.selection, id):
		e.setSelection([]string{id}, SelectionDirect)
	default:
		e.selectionSource = SelectionDirect
	}
	e.beginDrag(x, y)
}

// PointerMove advances the active gesture.
func (e *Engine) PointerMove(ev PointerEvent) {
	g := e.gesture
	if g == nil {
		return
	}
	x, y := e.viewport.ToWorld(ev.X, ev.Y)

	switch e.state {
	case StateDrawing:
		e.drawTo(x, y, ev.Shift)
	case StateDragging:
		e.dragTo(x, y)
	case StateResizing:
		e.resizeTo(x, y, ev.Shift)
	case StateRotating:
		e.rotateTo(x, y, ev.Shift)
	case StateMarquee:
		e.marqueeTo(x, y)
	case StatePanning:
		e.viewport.PanX = g.viewport.PanX + ev.X - g.screenX
		e.viewport.PanY = g.viewport.PanY + ev.Y - g.screenY
	}
}

// PointerUp finishes the active gesture. A release marked Outside cancels it.
func (e *Engine) PointerUp(ev PointerEvent) {
	if e.gesture == nil {
		return
	}
	if ev.Outside {
		e.cancelGesture()
		return
	}
	e.PointerMove(ev)

	g := e.gesture
	switch e.state {
	case StateDrawing:
		e.finishDraw()
		return
	case StateDragging, StateResizing, StateRotating:
		if g.moved {
			e.commit(g.before)
		}
	case StateMarquee:
		e.finishMarquee()
	}
	e.endGesture()
}

// DoubleClick enters text editing on text or on a container's bound text,
// creating the bound text when missing. On empty canvas it places new text.
func (e *Engine) DoubleClick(ev PointerEvent) {
	x, y := e.viewport.ToWorld(ev.X, ev.Y)
	if e.edit != nil {
		if e.insideEdit(x, y) {
			return
		}
		e.commitTextEdit()
	}
	if e.gesture != nil {
		e.cancelGesture()
	}
	if e.tool != ToolSelect {
		return
	}

	f := e.activeFrame()
	id := e.HitTest(x, y)
	if id == "" {
		before := e.doc.Snapshot()
		idx := e.placeText(f, x, y, 0)
		e.beginTextEdit(f, idx, before, true)
		return
	}
	idx := indexOf(f, id)
	if idx < 0 {
		return
	}
	el := &f.Elements[idx]
	switch {
	case el.Kind == document.KindText:
		e.beginTextEdit(f, idx, e.doc.Snapshot(), false)
	case el.Kind.IsContainer():
		e.editBoundText(f, idx)
	}
}

// Cancel aborts the active gesture, or commits text editing.
func (e *Engine) Cancel() {
	if e.edit != nil {
		e.commitTextEdit()
		return
	}
	if e.gesture != nil {
		e.cancelGesture()
	}
}

// Blur handles loss of input focus: text editing commits and pointer
// gestures are cancelled.
func (e *Engine) Blur() {
	if e.edit != nil {
		e.commitTextEdit()
	}
	if e.gesture != nil {
		e.cancelGesture()
	}
}

func (e *Engine) startGesture(state State, x, y float64) *gesture {
	g := &gesture{
		before:  e.doc.Snapshot(),
		frameID: e.activeFrame().ID,
		startX:  x,
		startY:  y,
	}
	e.gesture = g
	e.state = state
	return g
}

func (e *Engine) endGesture() {
	e.gesture = nil
	e.guides = nil
	e.state = StateIdle
}

// cancelGesture discards uncommitted geometry and restores the document
// captured at gesture start.
func (e *Engine) cancelGesture() {
	g := e.gesture
	if g == nil {
		return
	}
	switch e.state {
	case StateDragging, StateResizing, StateRotating:
		if g.moved {
			e.doc.Restore(g.before)
		}
	case StateMarquee:
		e.selection = g.base
		e.selectionSource = g.baseSrc
	case StatePanning:
		e.viewport = g.viewport
	}
	e.endGesture()
}

// --- panning ---

func (e *Engine) beginPan(ev PointerEvent) {
	g := e.startGesture(StatePanning, 0, 0)
	g.screenX, g.screenY = ev.X, ev.Y
	g.viewport = e.viewport
}

// --- drawing ---

func (e *Engine) beginDraw(kind document.ElementKind, x, y float64) {
	g := e.startGesture(StateDrawing, x, y)
	g.downX, g.downY = x, y
	f := e.frame(g.frameID)

	draft := document.Element{ID: typeid.NewElementID(), Kind: kind, X: x, Y: y}
	switch kind {
	case document.KindArrow, document.KindLine:
		sx, sy := e.snapEndpoint(f, x, y)
		g.startX, g.startY = sx, sy
		draft.Connector = &document.ConnectorData{StartX: sx, StartY: sy, EndX: sx, EndY: sy}
	case document.KindFreedraw:
		draft.Freedraw = &document.FreedrawData{Points: []document.Point{{X: x, Y: y}}}
	case document.KindText:
		draft.Text = &document.TextData{FontSize: document.DefaultFontSize}
	default:
		g.startX, g.startY = e.snapping.GridPoint(x, y)
	}
	draft.X, draft.Y = g.startX, g.startY
	g.draft = &draft
}

// drawTo updates the draft from the start point and the current pointer.
func (e *Engine) drawTo(x, y float64, square bool) {
	g := e.gesture
	f := e.frame(g.frameID)
	if math.Hypot(x-g.downX, y-g.downY) >= MinDragDistance {
		g.moved = true
	}
	d := g.draft

	switch d.Kind {
	case document.KindArrow, document.KindLine:
		ex, ey := e.snapEndpoint(f, x, y)
		d.Connector.EndX, d.Connector.EndY = ex, ey
		r := document.RectFromCorners(d.Connector.StartX, d.Connector.StartY, ex, ey)
		d.X, d.Y, d.Width, d.Height = r.X, r.Y, r.Width, r.Height

	case document.KindFreedraw:
		d.Freedraw.Points = append(d.Freedraw.Points, document.Point{X: x, Y: y})
		r := document.PointsBounds(d.Freedraw.Points)
		d.X, d.Y, d.Width, d.Height = r.X, r.Y, r.Width, r.Height

	case document.KindText:
		r := document.RectFromCorners(g.startX, g.startY, x, y)
		d.X, d.Width = r.X, r.Width

	default:
		cx, cy := e.snapping.GridPoint(x, y)
		if square {
			side := max(math.Abs(cx-g.startX), math.Abs(cy-g.startY))
			cx = g.startX + math.Copysign(side, cx-g.startX)
			cy = g.startY + math.Copysign(side, cy-g.startY)
		}
		r := document.RectFromCorners(g.startX, g.startY, cx, cy)
		d.X, d.Y, d.Width, d.Height = r.X, r.Y, r.Width, r.Height
	}
}

// finishDraw commits the draft. Drags shorter than MinDragDistance create
// nothing, except text which is click-to-place.
func (e *Engine) finishDraw() {
	g := e.gesture
	f := e.frame(g.frameID)
	d := g.draft
	e.endGesture()
	e.tool = ToolSelect

	if d.Kind == document.KindText {
		width := 0.0
		if g.moved {
			width = d.Width
		}
		idx := e.placeText(f, d.X, g.startY, width)
		e.beginTextEdit(f, idx, g.before, true)
		return
	}
	if !g.moved {
		return
	}
	if c := d.Connector; c != nil && c.StartX == c.EndX && c.StartY == c.EndY {
		// Both endpoints snapped to the same anchor.
		return
	}

	document.Normalize(d, e.measurer)
	f.Elements = append(f.Elements, *d)
	e.commit(g.before)
	e.setSelection([]string{d.ID}, SelectionDirect)
}

// placeText appends an empty text element. width 0 selects auto-width.
func (e *Engine) placeText(f *document.Frame, x, y, width float64) int {
	el := document.Element{
		ID:   typeid.NewElementID(),
		Kind: document.KindText,
		X:    x,
		Y:    y,
		Text: &document.TextData{FontSize: document.DefaultFontSize, AutoWidth: width <= 0},
	}
	if width > 0 {
		el.Width = width
	}
	document.Normalize(&el, e.measurer)
	f.Elements = append(f.Elements, el)
	return len(f.Elements) - 1
}

// snapEndpoint attaches a connector endpoint to the nearest anchor of
// another element, falling back to the grid.
func (e *Engine) snapEndpoint(f *document.Frame, x, y float64, exclude ...string) (float64, float64) {
	var targets []document.Rect
	for i := range f.Elements {
		el := &f.Elements[i]
		if !el.IsVisible() || el.IsBoundText() || slices.Contains(exclude, el.ID) {
			continue
		}
		targets = append(targets, el.Bounds())
	}
	if p, ok := snap.Connector(x, y, targets, e.snapping.ConnectorRadius); ok {
		return p.X, p.Y
	}
	return e.snapping.GridPoint(x, y)
}

// --- dragging ---

func (e *Engine) toggleSelection(id string) {
	group := e.expandSelection([]string{id})
	if len(group) == 0 {
		return
	}
	sel := e.selection
	if slices.Contains(sel, group[0]) {
		sel = slices.DeleteFunc(slices.Clone(sel), func(s string) bool { return slices.Contains(group, s) })
	} else {
		sel = append(slices.Clone(sel), group...)
	}
	e.setSelection(sel, SelectionDirect)
}

func (e *Engine) beginDrag(x, y float64) {
	elements, _ := e.selectedParts()
	if !e.allowed(ActionDrag, elements) {
		return
	}
	g := e.startGesture(StateDragging, x, y)
	f := e.frame(g.frameID)

	for _, id := range e.selection {
		if inst := e.instance(id); inst != nil {
			g.items = append(g.items, dragItem{id: id, instance: true, x: inst.X, y: inst.Y})
			continue
		}
		if idx := indexOf(f, id); idx >= 0 {
			g.items = append(g.items, dragItem{id: id, el: f.Elements[idx].Clone()})
		}
	}
	g.bounds, _ = e.boundsOf(e.selection)
	g.origins = make(map[string]document.Point)
	for _, cg := range e.componentGroupsOf(e.selection) {
		g.origins[cg.ID] = document.Point{X: cg.X, Y: cg.Y}
	}
}

func (e *Engine) dragTo(x, y float64) {
	g := e.gesture
	f := e.frame(g.frameID)
	dx, dy := x-g.startX, y-g.startY

	e.guides = nil
	switch {
	case dx == 0 && dy == 0:
		// A click without travel never snaps.
	case e.snapping.GridEnabled:
		dx = snap.Grid(g.bounds.X+dx, e.snapping.GridSize) - g.bounds.X
		dy = snap.Grid(g.bounds.Y+dy, e.snapping.GridSize) - g.bounds.Y
	default:
		adjX, adjY, guides := snap.Align(g.bounds.Translate(dx, dy), e.guideTargets(f, g.items), e.snapping.GuideTolerance)
		dx += adjX
		dy += adjY
		e.guides = guides
	}

	for _, it := range g.items {
		if it.instance {
			if inst := e.instance(it.id); inst != nil {
				inst.X, inst.Y = it.x+dx, it.y+dy
			}
			continue
		}
		idx := indexOf(f, it.id)
		if idx < 0 {
			continue
		}
		f.Elements[idx] = it.el.Clone()
		document.Translate(&f.Elements[idx], dx, dy)
		e.syncBoundTextOf(f, idx)
	}
	for id, p := range g.origins {
		if cg := e.componentGroup(id); cg != nil {
			cg.X, cg.Y = p.X+dx, p.Y+dy
		}
	}
	g.moved = dx != 0 || dy != 0
}

// guideTargets returns the boxes alignment guides compare against: every
// visible element and instance not being dragged.
func (e *Engine) guideTargets(f *document.Frame, items []dragItem) []document.Rect {
	moving := make(map[string]bool, len(items))
	for _, it := range items {
		moving[it.id] = true
	}
	var out []document.Rect
	for i := range f.Elements {
		el := &f.Elements[i]
		if moving[el.ID] || !el.IsVisible() || el.IsBoundText() {
			continue
		}
		out = append(out, el.Bounds())
	}
	for i := range e.doc.ComponentInstances {
		inst := &e.doc.ComponentInstances[i]
		if moving[inst.ID] || inst.FrameID != f.ID {
			continue
		}
		if comp := e.component(inst.ComponentID); comp != nil {
			out = append(out, document.InstanceBounds(comp, inst))
		}
	}
	return out
}

// --- resizing ---

func (e *Engine) beginResize(el *document.Element, h Handle, x, y float64) {
	if !e.allowed(ActionResize, []string{el.ID}) {
		return
	}
	g := e.startGesture(StateResizing, x, y)
	g.target = el.ID
	g.handle = h
	g.initial = el.Clone()
}

func (e *Engine) resizeTo(x, y float64, keepAspect bool) {
	g := e.gesture
	f := e.frame(g.frameID)
	idx := indexOf(f, g.target)
	if idx < 0 {
		return
	}
	dx, dy := x-g.startX, y-g.startY

	next, ok := e.resized(f, g.initial, g.handle, dx, dy, keepAspect)
	if !ok {
		return
	}
	f.Elements[idx] = next
	e.normalizeAt(f, idx)
	g.moved = dx != 0 || dy != 0
}

// resized applies a handle drag of (dx, dy) to a copy of initial.
func (e *Engine) resized(f *document.Frame, initial document.Element, h Handle, dx, dy float64, keepAspect bool) (document.Element, bool) {
	next := initial.Clone()
	var gridFn func(float64) float64
	if e.snapping.GridEnabled {
		gridFn = e.snapping.GridValue
	}

	switch {
	case next.Kind.IsConnector():
		if next.Connector == nil {
			return next, false
		}
		c, start := next.Connector, initial.Connector
		switch h {
		case HandleStart:
			c.StartX, c.StartY = e.snapEndpoint(f, start.StartX+dx, start.StartY+dy, next.ID)
		case HandleEnd:
			c.EndX, c.EndY = e.snapEndpoint(f, start.EndX+dx, start.EndY+dy, next.ID)
		default:
			return next, false
		}

	case next.Kind == document.KindText:
		if next.IsBoundText() {
			return next, false
		}
		hx, _, ok := h.direction()
		if !ok || hx == 0 {
			return next, false
		}
		side := HandleE
		if hx < 0 {
			side = HandleW
		}
		r, _ := ResizeBox(initial.Bounds(), 0, side, dx, 0, false, gridFn)
		next.X, next.Width = r.X, r.Width
		next.Text.AutoWidth = false

	case next.Kind == document.KindFreedraw:
		r, ok := ResizeBox(initial.Bounds(), 0, h, dx, dy, keepAspect, gridFn)
		if !ok || next.Freedraw == nil {
			return next, false
		}
		next.Freedraw.Points = document.FitFreedraw(initial.Freedraw.Points, initial.Bounds(), r)

	default:
		r, ok := ResizeBox(initial.Bounds(), initial.Rotation, h, dx, dy, keepAspect, gridFn)
		if !ok {
			return next, false
		}
		next.X, next.Y, next.Width, next.Height = r.X, r.Y, r.Width, r.Height
	}
	return next, true
}

// --- rotating ---

func (e *Engine) beginRotate(el *document.Element, x, y float64) {
	if !el.Kind.Rotatable() || !e.allowed(ActionRotate, []string{el.ID}) {
		return
	}
	g := e.startGesture(StateRotating, x, y)
	g.target = el.ID
	g.initial = el.Clone()
}

func (e *Engine) rotateTo(x, y float64, snapStep bool) {
	g := e.gesture
	f := e.frame(g.frameID)
	idx := indexOf(f, g.target)
	if idx < 0 {
		return
	}
	cx, cy := g.initial.Bounds().Center()
	angle := RotationAngle(g.initial.Rotation, cx, cy, g.startX, g.startY, x, y, snapStep)
	f.Elements[idx].Rotation = angle
	e.syncBoundTextOf(f, idx)
	g.moved = angle != g.initial.Rotation
}

// --- marquee ---

func (e *Engine) beginMarquee(x, y float64, additive bool) {
	base, baseSrc := e.selection, e.selectionSource
	g := e.startGesture(StateMarquee, x, y)
	g.additive = additive
	g.base, g.baseSrc = base, baseSrc
	g.marquee = document.Rect{X: x, Y: y}
	if !additive {
		e.clearSelection()
	}
}

func (e *Engine) marqueeTo(x, y float64) {
	g := e.gesture
	g.marquee = document.RectFromCorners(g.startX, g.startY, x, y)
	g.moved = g.marquee.Width > 0 || g.marquee.Height > 0
}

// finishMarquee selects everything whose box overlaps the marquee. Group
// members expand to their whole group.
func (e *Engine) finishMarquee() {
	g := e.gesture
	if !g.moved {
		return
	}
	var ids []string
	if g.additive {
		ids = slices.Clone(g.base)
	}
	ids = append(ids, e.MarqueeHits(g.marquee)...)
	e.setSelection(ids, SelectionMarquee)
}

// MarqueeHits returns the ids of visible elements and instances of the
// active frame whose boxes overlap r.
func (e *Engine) MarqueeHits(r document.Rect) []string {
	f := e.activeFrame()
	var ids []string
	for i := range f.Elements {
		el := &f.Elements[i]
		if el.IsVisible() && !el.IsBoundText() && r.Overlaps(el.Bounds()) {
			ids = append(ids, el.ID)
		}
	}
	for i := range e.doc.ComponentInstances {
		inst := &e.doc.ComponentInstances[i]
		if inst.FrameID != f.ID {
			continue
		}
		if comp := e.component(inst.ComponentID); comp != nil && r.Overlaps(document.InstanceBounds(comp, inst)) {
			ids = append(ids, inst.ID)
		}
	}
	return ids
}
