package document

import (
	"reflect"
	"testing"
)

// mono measures every rune as 10px at font size 16 (ratio 0.625).
var mono = MonospaceMeasurer{Ratio: 0.625}

func TestLayoutText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		width   float64
		want    []string
	}{
		{"fits", "hello world", 200, []string{"hello world"}},
		{"wraps greedily", "aaa bbb ccc", 75, []string{"aaa bbb", "ccc"}},
		{"explicit newline", "one\ntwo", 200, []string{"one", "two"}},
		{"empty paragraph kept", "one\n\ntwo", 200, []string{"one", "", "two"}},
		{"long word on own line", "a verylongword b", 40, []string{"a", "verylongword", "b"}},
		{"no wrap when width disabled", "aaa bbb ccc", 0, []string{"aaa bbb ccc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LayoutText(tt.content, tt.width, DefaultFontSize, mono)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LayoutText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	el := Element{Kind: KindText, Width: 75, Text: &TextData{Content: "aaa bbb ccc", FontSize: 16}}
	Normalize(&el, mono)
	if el.Height != 2*LineHeight(16) {
		t.Errorf("height = %v, want two lines", el.Height)
	}

	auto := Element{Kind: KindText, Text: &TextData{Content: "abcd\nab", FontSize: 16, AutoWidth: true}}
	Normalize(&auto, mono)
	if auto.Width != 40 {
		t.Errorf("auto width = %v, want 40", auto.Width)
	}
	if auto.Height != 2*LineHeight(16) {
		t.Errorf("auto height = %v", auto.Height)
	}
}

func TestNormalizeConnectorDerivesBounds(t *testing.T) {
	el := Element{Kind: KindArrow, X: 999, Y: 999, Connector: &ConnectorData{StartX: 50, StartY: 10, EndX: 10, EndY: 80}}
	Normalize(&el, mono)
	want := Rect{X: 10, Y: 10, Width: 40, Height: 70}
	if el.Bounds() != want {
		t.Errorf("bounds = %+v, want %+v", el.Bounds(), want)
	}
}

func TestTranslateKeepsDerivedBounds(t *testing.T) {
	fd := Element{Kind: KindFreedraw, Freedraw: &FreedrawData{Points: []Point{{5, 5}, {15, 25}, {0, 10}}}}
	Normalize(&fd, mono)
	Translate(&fd, 10, -5)
	got := fd.Bounds()
	if got != PointsBounds(fd.Freedraw.Points) {
		t.Errorf("freedraw bounds %+v do not match points", got)
	}

	line := Element{Kind: KindLine, Connector: &ConnectorData{StartX: 0, StartY: 0, EndX: 30, EndY: 0}}
	Normalize(&line, mono)
	Translate(&line, 3, 4)
	c := line.Connector
	if line.Bounds() != RectFromCorners(c.StartX, c.StartY, c.EndX, c.EndY) {
		t.Errorf("line bounds %+v do not match endpoints", line.Bounds())
	}
}

func TestNormalizeClampsBoxes(t *testing.T) {
	el := Element{Kind: KindRectangle, Width: 2, Height: -5}
	Normalize(&el, mono)
	if el.Width != MinElementSize || el.Height != MinElementSize {
		t.Errorf("size = %vx%v, want clamped", el.Width, el.Height)
	}
}

func TestSyncBoundText(t *testing.T) {
	container := Element{ID: "c", Kind: KindRectangle, X: 10, Y: 20, Width: 108, Height: 100}
	text := Element{ID: "t", Kind: KindText, Text: &TextData{Content: "hi", FontSize: 16}}

	SyncBoundText(&container, &text, mono)
	if text.X != 14 || text.Width != 100 {
		t.Errorf("text box x=%v w=%v", text.X, text.Width)
	}
	wantY := 20 + (100-LineHeight(16))/2
	if text.Y != wantY {
		t.Errorf("centred y = %v, want %v", text.Y, wantY)
	}

	text.Text.VerticalAlign = AlignTop
	SyncBoundText(&container, &text, mono)
	if text.Y != 24 {
		t.Errorf("top y = %v, want 24", text.Y)
	}
	if container.X != 10 || container.Width != 108 {
		t.Error("container must not change")
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	doc := NewSampleDocument(mono)
	snap := doc.Snapshot()

	if !reflect.DeepEqual(snap, doc.Snapshot()) {
		t.Fatal("two snapshots of the same state differ")
	}

	doc.Frames[0].Elements[0].X = 12345
	doc.Frames[0].Elements[0].Style.FillColor = "#000000"
	doc.Frames[0].Documentation.Annotations["x"] = "y"

	if snap.Frames[0].Elements[0].X == 12345 {
		t.Error("snapshot shares element storage")
	}
	if snap.Frames[0].Elements[0].Style.FillColor == "#000000" {
		t.Error("snapshot shares style pointer")
	}
	if _, ok := snap.Frames[0].Documentation.Annotations["x"]; ok {
		t.Error("snapshot shares annotation map")
	}
}

func TestResolveInstanceAppliesOverrides(t *testing.T) {
	comp := UserComponent{
		ID:    "comp",
		Width: 100, Height: 40,
		MasterElements: []ComponentElementDef{
			{ID: "box", Kind: KindRectangle, OffsetX: 0, OffsetY: 0, Width: 100, Height: 40, BoundElements: []string{"label"}},
			{ID: "label", Kind: KindText, Text: &TextData{Content: "OK", FontSize: 16, ContainerID: "box"}},
		},
	}
	inst := ComponentInstance{ID: "i", ComponentID: "comp", X: 200, Y: 300,
		Overrides: []Override{{ElementID: "label", Property: PropContent, Value: "Cancel"}}}

	els := ResolveInstance(&comp, &inst, mono)
	if len(els) != 2 {
		t.Fatalf("got %d elements", len(els))
	}
	if els[0].X != 200 || els[0].Y != 300 {
		t.Errorf("box at %v,%v", els[0].X, els[0].Y)
	}
	if els[1].Text.Content != "Cancel" {
		t.Errorf("content = %q, want override", els[1].Text.Content)
	}
	if comp.MasterElements[1].Text.Content != "OK" {
		t.Error("master was modified")
	}
}

func TestDefRoundTrip(t *testing.T) {
	el := Element{ID: "a", Kind: KindArrow, Connector: &ConnectorData{StartX: 110, StartY: 120, EndX: 150, EndY: 160}}
	Normalize(&el, mono)

	def := DefFromElement(el, 100, 100)
	if def.OffsetX != 10 || def.Connector.StartX != 10 || def.Connector.EndY != 60 {
		t.Errorf("def = %+v %+v", def, def.Connector)
	}
	back := ElementFromDef(def, 100, 100)
	if !reflect.DeepEqual(back, el) {
		t.Errorf("round trip = %+v, want %+v", back, el)
	}
}

func TestPruneOrphans(t *testing.T) {
	doc := NewEmptyDocument()
	fid := doc.Frames[0].ID
	doc.Frames[0].Elements = []Element{
		{ID: "a", Kind: KindRectangle, Width: 20, Height: 20, ElementGroupID: "g1"},
		{ID: "b", Kind: KindRectangle, Width: 20, Height: 20, ElementGroupID: "g1"},
		{ID: "t", Kind: KindText, Text: &TextData{Content: "x", ContainerID: "gone"}},
	}
	doc.ElementGroups = []ElementGroup{{ID: "g1", FrameID: fid, ElementIDs: []string{"a", "b", "missing"}}}
	doc.UserComponents = []UserComponent{{ID: "comp"}}
	doc.ComponentInstances = []ComponentInstance{
		{ID: "ok", ComponentID: "comp", FrameID: fid},
		{ID: "orphan", ComponentID: "nope", FrameID: fid},
	}
	doc.ActiveFrameID = "stale"

	report := PruneOrphans(doc, mono)
	if report.OrphanedInstances != 1 {
		t.Errorf("orphaned = %d, want 1", report.OrphanedInstances)
	}
	if len(doc.ComponentInstances) != 1 || doc.ComponentInstances[0].ID != "ok" {
		t.Errorf("instances = %+v", doc.ComponentInstances)
	}
	if got := doc.ElementGroups[0].ElementIDs; !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("group members = %v", got)
	}
	if doc.Frames[0].Elements[2].Text.ContainerID != "" {
		t.Error("dangling container id kept")
	}
	if doc.ActiveFrameID != fid {
		t.Error("active frame not repaired")
	}
}

func TestPruneDissolvesSmallGroupsAndAddsFrame(t *testing.T) {
	doc := &DocumentState{}
	report := PruneOrphans(doc, mono)
	if len(doc.Frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(doc.Frames))
	}
	if report.OrphanedInstances != 0 {
		t.Errorf("orphaned = %d", report.OrphanedInstances)
	}

	fid := doc.Frames[0].ID
	doc.Frames[0].Elements = []Element{{ID: "a", Kind: KindRectangle, ElementGroupID: "g"}}
	doc.ElementGroups = []ElementGroup{{ID: "g", FrameID: fid, ElementIDs: []string{"a"}}}
	PruneOrphans(doc, mono)
	if len(doc.ElementGroups) != 0 || doc.Frames[0].Elements[0].ElementGroupID != "" {
		t.Error("single-member group not dissolved")
	}
}

func TestRectHelpers(t *testing.T) {
	r := RectFromCorners(30, 40, 10, 0)
	if r != (Rect{X: 10, Y: 0, Width: 20, Height: 40}) {
		t.Errorf("RectFromCorners = %+v", r)
	}
	if !r.Overlaps(Rect{X: 30, Y: 40, Width: 5, Height: 5}) {
		t.Error("touching rects should overlap")
	}
	if r.Overlaps(Rect{X: 31, Y: 0, Width: 5, Height: 5}) {
		t.Error("disjoint rects overlap")
	}
	u := r.Union(Rect{X: 0, Y: 50, Width: 0, Height: 0})
	if u != (Rect{X: 0, Y: 0, Width: 30, Height: 50}) {
		t.Errorf("Union = %+v", u)
	}
}
