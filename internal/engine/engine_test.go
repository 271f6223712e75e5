package engine

import (
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/fraction12/wireflow/internal/document"
)

// mono measures 10px per rune at the default font size.
var mono = document.MonospaceMeasurer{Ratio: 0.625}

type noticeLog struct{ notices []Notice }

func (n *noticeLog) Notify(notice Notice) { n.notices = append(n.notices, notice) }

func newTestEngine(t *testing.T, opts Options) (*Engine, *noticeLog) {
	t.Helper()
	log := &noticeLog{}
	opts.Measurer = mono
	opts.Notifier = log
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(opts), log
}

func addRect(t *testing.T, e *Engine, x, y, w, h float64) string {
	t.Helper()
	id, ok := e.AddElement("", document.Element{Kind: document.KindRectangle, X: x, Y: y, Width: w, Height: h})
	if !ok {
		t.Fatal("AddElement rejected rectangle")
	}
	return id
}

func mustElement(t *testing.T, e *Engine, id string) document.Element {
	t.Helper()
	el, ok := e.Element(id)
	if !ok {
		t.Fatalf("element %s missing", id)
	}
	return el
}

func drag(e *Engine, x0, y0, x1, y1 float64) {
	e.PointerDown(PointerEvent{X: x0, Y: y0})
	e.PointerMove(PointerEvent{X: (x0 + x1) / 2, Y: (y0 + y1) / 2})
	e.PointerUp(PointerEvent{X: x1, Y: y1})
}

func assertRect(t *testing.T, got, want document.Rect) {
	t.Helper()
	const eps = 1e-9
	if math.Abs(got.X-want.X) > eps || math.Abs(got.Y-want.Y) > eps ||
		math.Abs(got.Width-want.Width) > eps || math.Abs(got.Height-want.Height) > eps {
		t.Errorf("rect = %+v, want %+v", got, want)
	}
}

func TestDragCreateRectangle(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.SetTool(ToolRectangle)
	drag(e, 100, 100, 300, 250)

	sel := e.Selection()
	if len(sel) != 1 {
		t.Fatalf("selection = %v, want the new element", sel)
	}
	el := mustElement(t, e, sel[0])
	if el.Kind != document.KindRectangle {
		t.Errorf("kind = %s", el.Kind)
	}
	assertRect(t, el.Bounds(), document.Rect{X: 100, Y: 100, Width: 200, Height: 150})
	if e.Tool() != ToolSelect {
		t.Errorf("tool = %s, want select after drawing", e.Tool())
	}
	if e.State() != StateIdle {
		t.Errorf("state = %s", e.State())
	}
	if !e.CanUndo() {
		t.Error("creation must be undoable")
	}
}

func TestShortDragCreatesNothing(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.SetTool(ToolEllipse)
	drag(e, 100, 100, 102, 101)

	if n := len(e.Document().Frames[0].Elements); n != 0 {
		t.Errorf("elements = %d, want 0", n)
	}
	if e.CanUndo() {
		t.Error("a skipped creation must not record history")
	}
}

func TestResizeHandles(t *testing.T) {
	tests := []struct {
		name   string
		handle Handle
		from   [2]float64
		delta  [2]float64
		want   document.Rect
	}{
		{"se grows", HandleSE, [2]float64{100, 100}, [2]float64{50, 30}, document.Rect{X: 0, Y: 0, Width: 150, Height: 130}},
		{"nw shrinks", HandleNW, [2]float64{0, 0}, [2]float64{20, 20}, document.Rect{X: 20, Y: 20, Width: 80, Height: 80}},
		{"ne", HandleNE, [2]float64{100, 0}, [2]float64{10, -10}, document.Rect{X: 0, Y: -10, Width: 110, Height: 110}},
		{"sw", HandleSW, [2]float64{0, 100}, [2]float64{-10, 10}, document.Rect{X: -10, Y: 0, Width: 110, Height: 110}},
		{"e only", HandleE, [2]float64{100, 50}, [2]float64{25, 40}, document.Rect{X: 0, Y: 0, Width: 125, Height: 100}},
		{"clamped at minimum", HandleSE, [2]float64{100, 100}, [2]float64{-300, -300}, document.Rect{X: 0, Y: 0, Width: 10, Height: 10}},
		{"nw cannot invert", HandleNW, [2]float64{0, 0}, [2]float64{500, 500}, document.Rect{X: 90, Y: 90, Width: 10, Height: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, Options{})
			id := addRect(t, e, 0, 0, 100, 100)
			e.Select([]string{id})

			drag(e, tt.from[0], tt.from[1], tt.from[0]+tt.delta[0], tt.from[1]+tt.delta[1])
			assertRect(t, mustElement(t, e, id).Bounds(), tt.want)
		})
	}
}

func TestResizeKeepsOppositeCorner(t *testing.T) {
	initial := document.Rect{X: 10, Y: 20, Width: 100, Height: 60}
	corners := map[Handle][2]float64{
		HandleNW: {initial.Right(), initial.Bottom()},
		HandleNE: {initial.X, initial.Bottom()},
		HandleSE: {initial.X, initial.Y},
		HandleSW: {initial.Right(), initial.Y},
	}
	deltas := [][2]float64{{15, 7}, {-40, 25}, {-500, -500}, {300, -2}}

	for h, anchor := range corners {
		for _, d := range deltas {
			for _, aspect := range []bool{false, true} {
				r, ok := ResizeBox(initial, 0, h, d[0], d[1], aspect, nil)
				if !ok {
					t.Fatalf("%s rejected", h)
				}
				hx, hy, _ := h.direction()
				ax, ay := anchorOf(r, hx, hy)
				if math.Abs(ax-anchor[0]) > 1e-9 || math.Abs(ay-anchor[1]) > 1e-9 {
					t.Errorf("%s by %v aspect=%v: anchor moved to (%v,%v), want %v", h, d, aspect, ax, ay, anchor)
				}
				if r.Width < document.MinElementSize || r.Height < document.MinElementSize {
					t.Errorf("%s by %v: %+v below minimum size", h, d, r)
				}
			}
		}
	}
}

func TestResizeRotatedKeepsWorldAnchor(t *testing.T) {
	initial := document.Rect{X: 0, Y: 0, Width: 100, Height: 50}
	rotation := math.Pi / 6
	cx, cy := initial.Center()
	wantX, wantY := RotateAbout(rotation, cx, cy).TransformPoint(initial.X, initial.Y)

	r, ok := ResizeBox(initial, rotation, HandleSE, 30, 45, false, nil)
	if !ok {
		t.Fatal("rejected")
	}
	rcx, rcy := r.Center()
	gotX, gotY := RotateAbout(rotation, rcx, rcy).TransformPoint(r.X, r.Y)
	if math.Abs(gotX-wantX) > 1e-9 || math.Abs(gotY-wantY) > 1e-9 {
		t.Errorf("world anchor = (%v,%v), want (%v,%v)", gotX, gotY, wantX, wantY)
	}
}

func TestResizeAspectLock(t *testing.T) {
	r, _ := ResizeBox(document.Rect{Width: 100, Height: 50}, 0, HandleSE, 100, 10, true, nil)
	assertRect(t, r, document.Rect{X: 0, Y: 0, Width: 200, Height: 100})
}

func TestResizeIsPureFunctionOfTotalDelta(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	id := addRect(t, e, 0, 0, 100, 100)
	e.Select([]string{id})

	e.PointerDown(PointerEvent{X: 100, Y: 100})
	for i := 1; i <= 50; i++ {
		e.PointerMove(PointerEvent{X: 100 + float64(i)*1.1, Y: 100 - float64(i)*0.3})
	}
	e.PointerUp(PointerEvent{X: 130, Y: 120})
	assertRect(t, mustElement(t, e, id).Bounds(), document.Rect{X: 0, Y: 0, Width: 130, Height: 120})
}

func TestRotateHandle(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	id := addRect(t, e, 0, 0, 100, 100)
	e.Select([]string{id})

	// The rotation handle sits above the top edge; dragging it to the right
	// of the center turns the box a quarter clockwise.
	e.PointerDown(PointerEvent{X: 50, Y: -RotationHandleOffset})
	if e.State() != StateRotating {
		t.Fatalf("state = %s, want rotating", e.State())
	}
	e.PointerUp(PointerEvent{X: 150, Y: 50})

	if got := mustElement(t, e, id).Rotation; math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("rotation = %v, want π/2", got)
	}
}

func TestRotationSnapStep(t *testing.T) {
	got := RotationAngle(0, 0, 0, 10, 0, 10, 2, true)
	if got != 15*math.Pi/180 {
		t.Errorf("snapped angle = %v", got)
	}
	if got := RotationAngle(0, 0, 0, 10, 0, 10, -0.1, false); got < math.Pi {
		t.Errorf("negative angle not normalized: %v", got)
	}
}

func TestTextResizeIsHorizontalOnly(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	id, _ := e.AddElement("", document.Element{
		Kind: document.KindText, X: 0, Y: 0,
		Text: &document.TextData{Content: "one two three", AutoWidth: true},
	})
	el := mustElement(t, e, id)
	if el.Width != 130 || el.Height != 20 {
		t.Fatalf("auto width layout = %vx%v", el.Width, el.Height)
	}
	e.Select([]string{id})

	drag(e, el.Width, el.Height/2, 70, 300)
	el = mustElement(t, e, id)
	if el.Width != 70 || el.Text.AutoWidth {
		t.Errorf("width = %v autoWidth = %v", el.Width, el.Text.AutoWidth)
	}
	if el.Height != 40 {
		t.Errorf("height = %v, want two wrapped lines", el.Height)
	}
}

func TestConnectorCreateSnapsAndDerivesBounds(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	addRect(t, e, 0, 0, 100, 100)
	e.ClearSelection()

	e.SetTool(ToolArrow)
	drag(e, 52, 3, 300, 300)

	sel := e.Selection()
	if len(sel) != 1 {
		t.Fatalf("selection = %v", sel)
	}
	arrow := mustElement(t, e, sel[0])
	c := arrow.Connector
	if c.StartX != 50 || c.StartY != 0 {
		t.Errorf("start = (%v,%v), want snapped to top midpoint", c.StartX, c.StartY)
	}
	assertRect(t, arrow.Bounds(), document.RectFromCorners(c.StartX, c.StartY, c.EndX, c.EndY))

	// Dragging the end handle moves only that endpoint.
	drag(e, 300, 300, 400, 250)
	arrow = mustElement(t, e, sel[0])
	c = arrow.Connector
	if c.StartX != 50 || c.StartY != 0 || c.EndX != 400 || c.EndY != 250 {
		t.Errorf("endpoints = %+v", *c)
	}
	assertRect(t, arrow.Bounds(), document.RectFromCorners(50, 0, 400, 250))

	e.MoveElements([]string{arrow.ID}, -20, 10)
	arrow = mustElement(t, e, sel[0])
	c = arrow.Connector
	assertRect(t, arrow.Bounds(), document.RectFromCorners(c.StartX, c.StartY, c.EndX, c.EndY))
}

func TestConnectorNeedsRealTravel(t *testing.T) {
	tests := []struct {
		name   string
		x0, y0 float64
		x1, y1 float64
	}{
		// The press snaps to the center anchor 10px away; that is not travel.
		{"click near an anchor", 60, 50, 60, 50},
		// Real travel, but both ends snap to the same anchor.
		{"both ends on one anchor", 45, 50, 55, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, tool := range []Tool{ToolArrow, ToolLine} {
				e, _ := newTestEngine(t, Options{})
				addRect(t, e, 0, 0, 100, 100)
				e.ClearSelection()
				undoDepth := e.history.UndoCount()

				e.SetTool(tool)
				drag(e, tt.x0, tt.y0, tt.x1, tt.y1)

				if n := len(e.Document().Frames[0].Elements); n != 1 {
					t.Errorf("%s: elements = %d, want only the rectangle", tool, n)
				}
				if got := e.history.UndoCount(); got != undoDepth {
					t.Errorf("%s: undo depth = %d, want %d", tool, got, undoDepth)
				}
			}
		})
	}
}

func TestFreedrawBoundsFollowPoints(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.SetTool(ToolFreedraw)
	e.PointerDown(PointerEvent{X: 10, Y: 10})
	e.PointerMove(PointerEvent{X: 40, Y: 5})
	e.PointerMove(PointerEvent{X: 25, Y: 60})
	e.PointerUp(PointerEvent{X: 30, Y: 30})

	id := e.Selection()[0]
	el := mustElement(t, e, id)
	assertRect(t, el.Bounds(), document.PointsBounds(el.Freedraw.Points))

	e.MoveElements([]string{id}, 7, -3)
	el = mustElement(t, e, id)
	assertRect(t, el.Bounds(), document.PointsBounds(el.Freedraw.Points))
	assertRect(t, el.Bounds(), document.Rect{X: 17, Y: 2, Width: 30, Height: 55})
}

func TestUndoRedoRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	a := addRect(t, e, 0, 0, 50, 50)
	b := addRect(t, e, 100, 0, 50, 50)
	e.GroupElements([]string{a, b})
	e.MoveElements([]string{a}, 10, 10)

	before := e.Document().Snapshot()
	if !e.Undo() {
		t.Fatal("Undo() = false")
	}
	if reflect.DeepEqual(e.Document().Snapshot(), before) {
		t.Fatal("undo changed nothing")
	}
	if len(e.Selection()) != 0 {
		t.Error("selection must be cleared after undo")
	}
	if !e.Redo() {
		t.Fatal("Redo() = false")
	}
	if after := e.Document().Snapshot(); !reflect.DeepEqual(after, before) {
		t.Errorf("undo+redo is not a round trip:\n got %+v\nwant %+v", after, before)
	}
}

func TestNewCommitClearsRedo(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	addRect(t, e, 0, 0, 50, 50)
	e.Undo()
	if !e.CanRedo() {
		t.Fatal("redo expected")
	}
	addRect(t, e, 10, 10, 50, 50)
	if e.CanRedo() {
		t.Error("a new commit must clear redo")
	}
}

func TestUndoCancelsGestureFirst(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	id := addRect(t, e, 0, 0, 50, 50)
	e.Select([]string{id})
	e.PointerDown(PointerEvent{X: 25, Y: 25})
	e.PointerMove(PointerEvent{X: 60, Y: 60})

	e.Undo()
	if e.State() != StateIdle {
		t.Errorf("state = %s", e.State())
	}
	if _, ok := e.Element(id); ok {
		t.Error("undo should have removed the element created before the gesture")
	}
}

func TestCancelRestoresDocument(t *testing.T) {
	for _, name := range []string{"escape", "outside"} {
		t.Run(name, func(t *testing.T) {
			e, _ := newTestEngine(t, Options{})
			id := addRect(t, e, 0, 0, 50, 50)
			e.Select([]string{id})
			want := e.Document().Snapshot()

			e.PointerDown(PointerEvent{X: 25, Y: 25})
			e.PointerMove(PointerEvent{X: 125, Y: 85})
			if mustElement(t, e, id).X != 100 {
				t.Fatal("drag did not move the element live")
			}
			if name == "escape" {
				e.KeyDown(KeyEvent{Key: "Escape"})
			} else {
				e.PointerUp(PointerEvent{X: 500, Y: 500, Outside: true})
			}

			if got := e.Document().Snapshot(); !reflect.DeepEqual(got, want) {
				t.Errorf("document not restored")
			}
			if e.State() != StateIdle {
				t.Errorf("state = %s", e.State())
			}
			e.Undo()
			if _, ok := e.Element(id); ok {
				t.Error("cancelled gesture left a history entry")
			}
		})
	}
}

func TestDragSnapsToGrid(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.SetGridEnabled(true)
	id := addRect(t, e, 0, 0, 40, 40)
	e.Select([]string{id})

	drag(e, 10, 10, 23, 17)
	assertRect(t, mustElement(t, e, id).Bounds(), document.Rect{X: 20, Y: 0, Width: 40, Height: 40})
}

func TestDragAlignsToGuides(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	addRect(t, e, 0, 0, 40, 40)
	b := addRect(t, e, 100, 3, 40, 40)
	e.Select([]string{b})

	e.PointerDown(PointerEvent{X: 120, Y: 23})
	e.PointerMove(PointerEvent{X: 122, Y: 24})
	v := e.View()
	if len(v.Guides) != 1 || v.Guides[0].Axis != "y" || v.Guides[0].Position != 0 {
		t.Errorf("guides = %+v", v.Guides)
	}
	e.PointerUp(PointerEvent{X: 122, Y: 24})

	assertRect(t, mustElement(t, e, b).Bounds(), document.Rect{X: 102, Y: 0, Width: 40, Height: 40})
	if len(e.View().Guides) != 0 {
		t.Error("guides must clear when the gesture ends")
	}
}

func TestClickWithoutTravelDoesNotSnap(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	addRect(t, e, 0, 0, 40, 40)
	b := addRect(t, e, 100, 3, 40, 40)
	e.ClearSelection()

	e.PointerDown(PointerEvent{X: 120, Y: 23})
	e.PointerUp(PointerEvent{X: 120, Y: 23})
	if got := mustElement(t, e, b).Y; got != 3 {
		t.Errorf("y = %v, want untouched", got)
	}
	if e.SelectionSource() != SelectionDirect {
		t.Errorf("source = %s", e.SelectionSource())
	}
}

func TestNudge(t *testing.T) {
	tests := []struct {
		name  string
		grid  bool
		key   KeyEvent
		wantX float64
		wantY float64
	}{
		{"one pixel", false, KeyEvent{Key: "ArrowRight"}, 1, 0},
		{"shift ten", false, KeyEvent{Key: "ArrowUp", Shift: true}, 0, -10},
		{"grid step", true, KeyEvent{Key: "ArrowDown"}, 0, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, Options{})
			e.SetGridEnabled(tt.grid)
			id := addRect(t, e, 0, 0, 40, 40)
			e.Select([]string{id})
			if !e.KeyDown(tt.key) {
				t.Fatal("key not consumed")
			}
			el := mustElement(t, e, id)
			if el.X != tt.wantX || el.Y != tt.wantY {
				t.Errorf("position = (%v,%v)", el.X, el.Y)
			}
		})
	}
}

func TestLockedElementRejectsTransforms(t *testing.T) {
	e, log := newTestEngine(t, Options{})
	id := addRect(t, e, 0, 0, 100, 100)
	e.SetLocked([]string{id}, true)
	e.Select([]string{id})
	want := e.Document().Snapshot()

	e.PointerDown(PointerEvent{X: 50, Y: 50})
	if e.State() != StateIdle {
		t.Errorf("drag started on a locked element: %s", e.State())
	}
	e.PointerUp(PointerEvent{X: 80, Y: 80})

	e.PointerDown(PointerEvent{X: 100, Y: 100})
	if e.State() != StateIdle {
		t.Errorf("resize started on a locked element: %s", e.State())
	}
	e.PointerUp(PointerEvent{X: 150, Y: 150})

	if e.KeyDown(KeyEvent{Key: "ArrowLeft"}) {
		t.Error("nudge accepted")
	}
	if e.DeleteSelection() {
		t.Error("delete accepted")
	}
	if e.RotateElement(id, 1) {
		t.Error("rotate accepted")
	}
	if e.UpdateElement(id, ElementPatch{Name: ptr("x")}) {
		t.Error("edit accepted")
	}

	if got := e.Document().Snapshot(); !reflect.DeepEqual(got, want) {
		t.Error("locked element changed")
	}
	if len(log.notices) != 6 {
		t.Fatalf("notices = %d, want one per rejected action", len(log.notices))
	}
	if log.notices[0].Message != "Cannot drag a locked element" || log.notices[0].Level != NoticeWarning {
		t.Errorf("notice = %+v", log.notices[0])
	}

	// Reordering is not on the checklist.
	if !e.SendToBack([]string{addRect(t, e, 0, 0, 10, 10)}) {
		t.Error("reorder should ignore the lock")
	}
}

func ptr[T any](v T) *T { return &v }

func TestLockChecklist(t *testing.T) {
	for _, a := range []Action{ActionDrag, ActionResize, ActionRotate, ActionNudge, ActionDelete, ActionTextEdit, ActionEdit} {
		if !LockEnforced(a) {
			t.Errorf("%s must be lock enforced", a)
		}
	}
	for _, a := range []Action{ActionGroup, ActionReorder} {
		if LockEnforced(a) {
			t.Errorf("%s must not be lock enforced", a)
		}
	}
}

func TestBackspacePolicy(t *testing.T) {
	t.Run("direct only", func(t *testing.T) {
		e, _ := newTestEngine(t, Options{DeletePolicy: DeletePolicy{BackspaceRequiresDirectSelection: true}})
		id := addRect(t, e, 0, 0, 50, 50)

		e.SelectAll()
		if e.KeyDown(KeyEvent{Key: "Backspace"}) {
			t.Error("Backspace deleted a select-all selection")
		}
		if _, ok := e.Element(id); !ok {
			t.Fatal("element deleted")
		}

		e.ClearSelection()
		e.PointerDown(PointerEvent{X: 25, Y: 25})
		e.PointerUp(PointerEvent{X: 25, Y: 25})
		if !e.KeyDown(KeyEvent{Key: "Backspace"}) {
			t.Error("Backspace ignored a clicked selection")
		}
		if _, ok := e.Element(id); ok {
			t.Error("element survived")
		}
	})

	t.Run("delete always deletes", func(t *testing.T) {
		e, _ := newTestEngine(t, Options{DeletePolicy: DeletePolicy{BackspaceRequiresDirectSelection: true}})
		id := addRect(t, e, 0, 0, 50, 50)
		e.SelectAll()
		if !e.KeyDown(KeyEvent{Key: "Delete"}) {
			t.Error("Delete ignored")
		}
		if _, ok := e.Element(id); ok {
			t.Error("element survived")
		}
	})

	t.Run("default treats both keys alike", func(t *testing.T) {
		e, _ := newTestEngine(t, Options{})
		addRect(t, e, 0, 0, 50, 50)
		e.SelectAll()
		if !e.KeyDown(KeyEvent{Key: "Backspace"}) {
			t.Error("Backspace ignored")
		}
	})
}

func TestTextToolPlacesAndEdits(t *testing.T) {
	e, _ := newTestEngine(t, Options{DeletePolicy: DeletePolicy{BackspaceRequiresDirectSelection: true}})
	e.SetTool(ToolText)
	e.PointerDown(PointerEvent{X: 50, Y: 50})
	e.PointerUp(PointerEvent{X: 50, Y: 50})

	if e.State() != StateTextEditing {
		t.Fatalf("state = %s", e.State())
	}
	if e.KeyDown(KeyEvent{Key: "r"}) || e.Tool() != ToolSelect {
		t.Error("tool shortcuts must be suppressed while editing")
	}
	e.TextInput("Hello")
	e.KeyDown(KeyEvent{Key: "Escape"})

	if e.State() != StateIdle {
		t.Errorf("state = %s", e.State())
	}
	id := e.EditingID()
	if id != "" {
		t.Errorf("still editing %s", id)
	}
	sel := e.Selection()
	if len(sel) != 1 || e.SelectionSource() != SelectionTextExit {
		t.Fatalf("selection = %v source = %s", sel, e.SelectionSource())
	}
	el := mustElement(t, e, sel[0])
	if el.Text.Content != "Hello" || !el.Text.AutoWidth || el.Width != 50 {
		t.Errorf("text = %+v width = %v", *el.Text, el.Width)
	}
	if e.KeyDown(KeyEvent{Key: "Backspace"}) {
		t.Error("Backspace right after text exit must be ignored")
	}
	if !e.CanUndo() {
		t.Error("text creation must be undoable")
	}
}

func TestEmptyTextEdit(t *testing.T) {
	t.Run("new text leaves nothing behind", func(t *testing.T) {
		e, _ := newTestEngine(t, Options{})
		e.DoubleClick(PointerEvent{X: 10, Y: 10})
		if e.State() != StateTextEditing {
			t.Fatalf("state = %s", e.State())
		}
		e.Blur()
		if n := len(e.Document().Frames[0].Elements); n != 0 {
			t.Errorf("elements = %d", n)
		}
		if e.CanUndo() {
			t.Error("empty new text must not record history")
		}
	})

	t.Run("existing text is deleted", func(t *testing.T) {
		e, _ := newTestEngine(t, Options{})
		id, _ := e.AddElement("", document.Element{Kind: document.KindText, Text: &document.TextData{Content: "Hello", AutoWidth: true}})
		if !e.EditText(id) {
			t.Fatal("EditText() = false")
		}
		e.TextInput("   ")
		e.KeyDown(KeyEvent{Key: "Escape"})
		if _, ok := e.Element(id); ok {
			t.Fatal("empty text survived")
		}
		e.Undo()
		if el, ok := e.Element(id); !ok || el.Text.Content != "Hello" {
			t.Error("undo did not restore the text")
		}
	})
}

func TestBoundTextEditing(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	box := addRect(t, e, 0, 0, 120, 60)
	e.ClearSelection()

	e.DoubleClick(PointerEvent{X: 60, Y: 30})
	textID := e.EditingID()
	if textID == "" {
		t.Fatal("double-click on a container did not start editing")
	}
	e.TextInput("OK")
	e.PointerDown(PointerEvent{X: 500, Y: 500})
	e.PointerUp(PointerEvent{X: 500, Y: 500})

	container := mustElement(t, e, box)
	text := mustElement(t, e, textID)
	if len(container.BoundElements) != 1 || container.BoundElements[0] != textID || text.Text.ContainerID != box {
		t.Fatalf("binding broken: %v / %q", container.BoundElements, text.Text.ContainerID)
	}
	assertRect(t, text.Bounds(), document.Rect{X: 4, Y: 20, Width: 112, Height: 20})

	// Hit-testing bound text resolves to the container.
	if got := e.HitTest(60, 30); got != box {
		t.Errorf("HitTest = %s, want container", got)
	}

	// Moving the container drags the text along.
	e.MoveElements([]string{box}, 10, 10)
	assertRect(t, mustElement(t, e, textID).Bounds(), document.Rect{X: 14, Y: 30, Width: 112, Height: 20})

	// Emptying the text detaches the back-reference.
	e.EditText(box)
	e.TextInput("")
	e.Blur()
	if _, ok := e.Element(textID); ok {
		t.Error("empty bound text survived")
	}
	if got := mustElement(t, e, box).BoundElements; got != nil {
		t.Errorf("container still references %v", got)
	}
}

func TestDeleteContainerTakesBoundText(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	box := addRect(t, e, 0, 0, 100, 40)
	text, ok := e.AddElement("", document.Element{Kind: document.KindText, Text: &document.TextData{Content: "Go", ContainerID: box}})
	if !ok {
		t.Fatal("bound text rejected")
	}
	if !e.DeleteElements([]string{box}) {
		t.Fatal("DeleteElements() = false")
	}
	if _, ok := e.Element(text); ok {
		t.Error("bound text survived its container")
	}
}

func TestMarqueeSelectsOverlapping(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	a := addRect(t, e, 0, 0, 20, 20)
	b := addRect(t, e, 50, 50, 20, 20)
	addRect(t, e, 300, 300, 20, 20)
	e.ClearSelection()

	drag(e, 10, 100, 60, 5)
	if got := e.Selection(); !reflect.DeepEqual(got, []string{a, b}) {
		t.Errorf("selection = %v, want [%s %s]", got, a, b)
	}
	if e.SelectionSource() != SelectionMarquee {
		t.Errorf("source = %s", e.SelectionSource())
	}
}

func TestPanDoesNotRecordHistory(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	e.SetTool(ToolPan)
	drag(e, 0, 0, 40, -20)
	if v := e.Viewport(); v.PanX != 40 || v.PanY != -20 {
		t.Errorf("viewport = %+v", v)
	}
	if e.CanUndo() {
		t.Error("panning recorded history")
	}

	// Pointer input is converted through the viewport.
	e.SetTool(ToolRectangle)
	drag(e, 40, -20, 140, 80)
	el := mustElement(t, e, e.Selection()[0])
	assertRect(t, el.Bounds(), document.Rect{X: 0, Y: 0, Width: 100, Height: 100})
}

func TestKeyboardShortcuts(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	a := addRect(t, e, 0, 0, 20, 20)
	addRect(t, e, 50, 0, 20, 20)

	e.KeyDown(KeyEvent{Key: "a", Ctrl: true})
	if len(e.Selection()) != 2 {
		t.Fatalf("select all = %v", e.Selection())
	}
	if !e.KeyDown(KeyEvent{Key: "g", Meta: true}) {
		t.Fatal("group shortcut ignored")
	}
	if mustElement(t, e, a).ElementGroupID == "" {
		t.Fatal("not grouped")
	}
	if !e.KeyDown(KeyEvent{Key: "G", Meta: true, Shift: true}) {
		t.Fatal("ungroup shortcut ignored")
	}
	if mustElement(t, e, a).ElementGroupID != "" {
		t.Fatal("still grouped")
	}
	if !e.KeyDown(KeyEvent{Key: "z", Ctrl: true}) || mustElement(t, e, a).ElementGroupID == "" {
		t.Error("undo shortcut did not restore the group")
	}
	if !e.KeyDown(KeyEvent{Key: "y", Ctrl: true}) || mustElement(t, e, a).ElementGroupID != "" {
		t.Error("redo shortcut did not re-apply the ungroup")
	}

	e.KeyDown(KeyEvent{Key: "o"})
	if e.Tool() != ToolEllipse {
		t.Errorf("tool = %s", e.Tool())
	}
	e.KeyDown(KeyEvent{Key: "Escape"})
	if e.Tool() != ToolSelect || len(e.Selection()) != 0 {
		t.Error("Escape must clear selection and return to select")
	}
}

func TestLoadStatePrunesOrphans(t *testing.T) {
	e, log := newTestEngine(t, Options{})
	addRect(t, e, 0, 0, 10, 10)

	s := document.NewEmptyDocument()
	s.ComponentInstances = append(s.ComponentInstances,
		document.ComponentInstance{ID: "inst_a", ComponentID: "comp_missing", FrameID: s.Frames[0].ID},
		document.ComponentInstance{ID: "inst_b", ComponentID: "comp_missing", FrameID: s.Frames[0].ID},
	)
	report := e.LoadState(s)
	if report.OrphanedInstances != 2 {
		t.Errorf("orphaned = %d", report.OrphanedInstances)
	}
	if len(e.Document().ComponentInstances) != 0 {
		t.Error("orphans kept")
	}
	if len(log.notices) != 1 || log.notices[0].Message != "2 component instances removed because their component no longer exists" {
		t.Errorf("notices = %+v", log.notices)
	}
	if e.CanUndo() {
		t.Error("loading must clear history")
	}
}

func TestCommitListenersReceiveCopies(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	var got []*document.DocumentState
	e.OnCommit(func(s *document.DocumentState) { got = append(got, s) })

	id := addRect(t, e, 0, 0, 10, 10)
	e.MoveElements([]string{id}, 5, 0)
	if len(got) != 2 {
		t.Fatalf("listener calls = %d", len(got))
	}
	got[0].Frames[0].Elements[0].X = 999
	if mustElement(t, e, id).X != 5 {
		t.Error("listener state aliases the engine document")
	}
}
