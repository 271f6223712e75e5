package engine

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/templates"
	"github.com/fraction12/wireflow/internal/typeid"
)

func sameSet(a, b []string) bool {
	return slices.Equal(slices.Sorted(slices.Values(a)), slices.Sorted(slices.Values(b)))
}

func TestGroupMovesAndSelectsTogether(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	a := addRect(t, e, 10, 10, 20, 20)
	b := addRect(t, e, 50, 50, 20, 20)

	gid, ok := e.GroupElements([]string{a, b})
	if !ok {
		t.Fatal("GroupElements() = false")
	}
	if !strings.HasPrefix(gid, typeid.PrefixElementGroup+"_") {
		t.Errorf("group id = %s", gid)
	}

	if !e.MoveGroup(gid, 5, -5) {
		t.Fatal("MoveGroup() = false")
	}
	if el := mustElement(t, e, a); el.X != 15 || el.Y != 5 {
		t.Errorf("A = (%v,%v), want (15,5)", el.X, el.Y)
	}
	if el := mustElement(t, e, b); el.X != 55 || el.Y != 45 {
		t.Errorf("B = (%v,%v), want (55,45)", el.X, el.Y)
	}

	// A marquee touching only B selects the whole group.
	e.ClearSelection()
	drag(e, 200, 200, 45, 45)
	if got := e.Selection(); !sameSet(got, []string{a, b}) {
		t.Errorf("selection = %v", got)
	}

	// Clicking one member selects both, and dragging moves both.
	e.ClearSelection()
	drag(e, 20, 15, 30, 15)
	if got := e.Selection(); !sameSet(got, []string{a, b}) {
		t.Errorf("click selection = %v", got)
	}
	if el := mustElement(t, e, b); el.X != 65 {
		t.Errorf("B.X = %v after drag", el.X)
	}
}

func TestGroupRejections(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	a := addRect(t, e, 0, 0, 20, 20)
	b := addRect(t, e, 40, 0, 20, 20)
	c := addRect(t, e, 80, 0, 20, 20)

	if _, ok := e.GroupElements([]string{a}); ok {
		t.Error("single element grouped")
	}
	if _, ok := e.GroupElements([]string{a, "el_missing"}); ok {
		t.Error("unknown id grouped")
	}
	if _, ok := e.GroupElements([]string{a, b}); !ok {
		t.Fatal("GroupElements() = false")
	}
	if _, ok := e.GroupElements([]string{b, c}); ok {
		t.Error("an element joined a second group")
	}

	other, _ := e.AddFrame("Other", "")
	d, _ := e.AddElement(other, document.Element{Kind: document.KindRectangle, Width: 20, Height: 20})
	if _, ok := e.GroupElements([]string{c, d}); ok {
		t.Error("group spans frames")
	}
}

func TestGroupIncludesBoundText(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	box := addRect(t, e, 0, 0, 100, 40)
	text, _ := e.AddElement("", document.Element{Kind: document.KindText, Text: &document.TextData{Content: "OK", ContainerID: box}})
	other := addRect(t, e, 200, 0, 20, 20)

	// Naming the bound text groups its container.
	gid, ok := e.GroupElements([]string{text, other})
	if !ok {
		t.Fatal("GroupElements() = false")
	}
	for _, id := range []string{box, text, other} {
		if got := mustElement(t, e, id).ElementGroupID; got != gid {
			t.Errorf("%s group = %q", id, got)
		}
	}

	if !e.Ungroup(gid) {
		t.Fatal("Ungroup() = false")
	}
	for _, id := range []string{box, text, other} {
		if mustElement(t, e, id).ElementGroupID != "" {
			t.Errorf("%s still grouped", id)
		}
	}
	if len(e.Document().ElementGroups) != 0 {
		t.Error("group record kept")
	}
}

func TestDeletingGroupMemberShrinksGroup(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	a := addRect(t, e, 0, 0, 20, 20)
	b := addRect(t, e, 40, 0, 20, 20)
	gid, _ := e.GroupElements([]string{a, b})

	if !e.DeleteGroup(gid) {
		t.Fatal("DeleteGroup() = false")
	}
	if n := len(e.Document().Frames[0].Elements); n != 0 {
		t.Errorf("elements left = %d", n)
	}
	if len(e.Document().ElementGroups) != 0 {
		t.Error("group record survived its members")
	}
}

func TestInstantiateTemplate(t *testing.T) {
	e, _ := newTestEngine(t, Options{Templates: templates.NewRegistry(mono)})

	gid, ok := e.InstantiateTemplate("button", 40, 60)
	if !ok {
		t.Fatal("InstantiateTemplate() = false")
	}
	if _, ok := e.InstantiateTemplate("no-such-template", 0, 0); ok {
		t.Error("unknown template instantiated")
	}

	doc := e.Document()
	if len(doc.ComponentGroups) != 1 {
		t.Fatalf("component groups = %d", len(doc.ComponentGroups))
	}
	g := doc.ComponentGroups[0]
	if g.ID != gid || g.ComponentType != "button" || g.X != 40 || g.Y != 60 || len(g.ElementIDs) != 2 {
		t.Fatalf("group = %+v", g)
	}

	var box, label document.Element
	for _, el := range doc.Frames[0].Elements {
		if el.GroupID != gid {
			t.Errorf("%s not in group", el.ID)
		}
		switch el.Kind {
		case document.KindRectangle:
			box = el
		case document.KindText:
			label = el
		}
	}
	assertRect(t, box.Bounds(), document.Rect{X: 40, Y: 60, Width: 140, Height: 44})
	if label.Text.ContainerID != box.ID || !slices.Contains(box.BoundElements, label.ID) {
		t.Errorf("label %q not bound to %q", label.Text.ContainerID, box.ID)
	}
	if label.X != 44 || label.Width != 132 {
		t.Errorf("label at x=%v width=%v", label.X, label.Width)
	}

	if !e.MoveGroup(gid, 10, 10) {
		t.Fatal("MoveGroup() = false")
	}
	doc = e.Document()
	if g := doc.ComponentGroups[0]; g.X != 50 || g.Y != 70 {
		t.Errorf("origin = (%v,%v), want it to follow the members", g.X, g.Y)
	}
	if el := mustElement(t, e, label.ID); el.X != 54 {
		t.Errorf("label x = %v", el.X)
	}

	if !e.DeleteComponentGroup(gid) {
		t.Fatal("DeleteComponentGroup() = false")
	}
	doc = e.Document()
	if len(doc.Frames[0].Elements) != 0 || len(doc.ComponentGroups) != 0 {
		t.Errorf("leftovers: %d elements, %d groups", len(doc.Frames[0].Elements), len(doc.ComponentGroups))
	}
}

// promoteFixture builds a card (a rectangle plus a free text label),
// promotes it and returns the engine with ids of interest.
func promoteFixture(t *testing.T) (e *Engine, compID, inst1 string, rectDef, textDef string) {
	t.Helper()
	e, _ = newTestEngine(t, Options{})
	r := addRect(t, e, 100, 100, 80, 40)
	txt, _ := e.AddElement("", document.Element{Kind: document.KindText, X: 100, Y: 150, Text: &document.TextData{Content: "Label", AutoWidth: true}})
	gid, ok := e.GroupElements([]string{r, txt})
	if !ok {
		t.Fatal("GroupElements() = false")
	}

	compID, inst1, ok = e.PromoteToComponent(gid, "Card")
	if !ok {
		t.Fatal("PromoteToComponent() = false")
	}
	comp, ok := e.Component(compID)
	if !ok {
		t.Fatal("component missing")
	}
	for _, def := range comp.MasterElements {
		switch def.Kind {
		case document.KindRectangle:
			rectDef = def.ID
		case document.KindText:
			textDef = def.ID
		}
	}
	return e, compID, inst1, rectDef, textDef
}

func TestPromoteToComponent(t *testing.T) {
	e, compID, inst1, rectDef, textDef := promoteFixture(t)

	comp, _ := e.Component(compID)
	if comp.Name != "Card" || comp.Width != 80 || comp.Height != 70 {
		t.Errorf("component = %q %vx%v", comp.Name, comp.Width, comp.Height)
	}
	if len(comp.MasterElements) != 2 {
		t.Fatalf("masters = %d", len(comp.MasterElements))
	}
	for _, def := range comp.MasterElements {
		if !strings.HasPrefix(def.ID, typeid.PrefixMasterElement+"_") {
			t.Errorf("master id %s", def.ID)
		}
	}
	if comp.MasterElements[1].ID != textDef || comp.MasterElements[1].OffsetY != 50 {
		t.Errorf("text master = %+v", comp.MasterElements[1])
	}

	doc := e.Document()
	if len(doc.Frames[0].Elements) != 0 || len(doc.ElementGroups) != 0 {
		t.Error("originals or group record survived promotion")
	}
	inst, ok := e.Instance(inst1)
	if !ok || inst.X != 100 || inst.Y != 100 {
		t.Errorf("instance = %+v", inst)
	}
	if got := e.Selection(); len(got) != 1 || got[0] != inst1 {
		t.Errorf("selection = %v", got)
	}
	if got := e.HitTest(110, 110); got != inst1 {
		t.Errorf("HitTest = %q, want instance", got)
	}

	els, _ := e.ResolvedInstance(inst1)
	if els[0].ID != rectDef || els[0].X != 100 || els[0].Y != 100 {
		t.Errorf("resolved rect = %+v", els[0])
	}

	// Instances drag like elements.
	drag(e, 110, 110, 130, 110)
	if inst, _ := e.Instance(inst1); inst.X != 120 {
		t.Errorf("instance x = %v after drag", inst.X)
	}

	// Undo brings the originals back.
	e.Undo()
	e.Undo()
	doc = e.Document()
	if len(doc.Frames[0].Elements) != 2 || len(doc.UserComponents) != 0 || len(doc.ComponentInstances) != 0 {
		t.Errorf("undo left %d elements, %d components, %d instances",
			len(doc.Frames[0].Elements), len(doc.UserComponents), len(doc.ComponentInstances))
	}
}

func TestInstanceOverrides(t *testing.T) {
	e, compID, inst1, rectDef, textDef := promoteFixture(t)
	inst2, ok := e.PlaceInstance(compID, "", 300, 0)
	if !ok {
		t.Fatal("PlaceInstance() = false")
	}

	if !e.SetInstanceOverride(inst2, textDef, document.PropContent, "Changed") {
		t.Fatal("SetInstanceOverride() = false")
	}
	if e.SetInstanceOverride(inst2, textDef, document.PropContent, "Changed") {
		t.Error("repeating an override recorded a change")
	}
	if e.SetInstanceOverride(inst2, textDef, "width", "10") {
		t.Error("geometry is not overridable")
	}
	if e.SetInstanceOverride(inst2, "mel_missing", document.PropName, "x") {
		t.Error("override of an unknown master element accepted")
	}

	content := func(id string) string {
		t.Helper()
		els, ok := e.ResolvedInstance(id)
		if !ok {
			t.Fatalf("instance %s missing", id)
		}
		for _, el := range els {
			if el.ID == textDef {
				return el.Text.Content
			}
		}
		t.Fatalf("instance %s has no text", id)
		return ""
	}
	if got := content(inst1); got != "Label" {
		t.Errorf("inst1 content = %q", got)
	}
	if got := content(inst2); got != "Changed" {
		t.Errorf("inst2 content = %q", got)
	}

	// Master edits reach every instance except overridden properties.
	if !e.UpdateMasterElement(compID, textDef, document.PropContent, "Title") {
		t.Fatal("UpdateMasterElement() = false")
	}
	if e.UpdateMasterElement(compID, rectDef, document.PropContent, "nope") {
		t.Error("content set on a rectangle master")
	}
	if got := content(inst1); got != "Title" {
		t.Errorf("inst1 content = %q after master edit", got)
	}
	if got := content(inst2); got != "Changed" {
		t.Errorf("inst2 content = %q, override must win", got)
	}

	if !e.ClearInstanceOverride(inst2, textDef, document.PropContent) {
		t.Fatal("ClearInstanceOverride() = false")
	}
	if got := content(inst2); got != "Title" {
		t.Errorf("inst2 content = %q after clearing", got)
	}
	if inst, _ := e.Instance(inst2); inst.Overrides != nil {
		t.Errorf("overrides = %v", inst.Overrides)
	}
}

func TestDeleteComponentModes(t *testing.T) {
	t.Run("cascade", func(t *testing.T) {
		e, compID, _, _, _ := promoteFixture(t)
		e.PlaceInstance(compID, "", 300, 0)
		if !e.DeleteComponent(compID, DeleteCascade) {
			t.Fatal("DeleteComponent() = false")
		}
		doc := e.Document()
		if len(doc.UserComponents) != 0 || len(doc.ComponentInstances) != 0 || len(doc.Frames[0].Elements) != 0 {
			t.Errorf("cascade left %d components, %d instances, %d elements",
				len(doc.UserComponents), len(doc.ComponentInstances), len(doc.Frames[0].Elements))
		}
		if len(e.Selection()) != 0 {
			t.Error("deleted instance still selected")
		}
	})

	t.Run("flatten", func(t *testing.T) {
		e, compID, _, _, textDef := promoteFixture(t)
		inst2, _ := e.PlaceInstance(compID, "", 300, 0)
		e.SetInstanceOverride(inst2, textDef, document.PropContent, "Changed")

		if !e.DeleteComponent(compID, DeleteFlatten) {
			t.Fatal("DeleteComponent() = false")
		}
		doc := e.Document()
		if len(doc.UserComponents) != 0 || len(doc.ComponentInstances) != 0 {
			t.Fatal("component or instances survived")
		}
		els := doc.Frames[0].Elements
		if len(els) != 4 || len(doc.ElementGroups) != 2 {
			t.Fatalf("flattened into %d elements, %d groups", len(els), len(doc.ElementGroups))
		}

		var texts []document.Element
		for _, el := range els {
			if !strings.HasPrefix(el.ID, typeid.PrefixElement+"_") || el.ElementGroupID == "" {
				t.Errorf("flattened element %s (group %q)", el.ID, el.ElementGroupID)
			}
			if el.Kind == document.KindText {
				texts = append(texts, el)
			}
		}
		if len(texts) != 2 {
			t.Fatalf("texts = %d", len(texts))
		}
		if texts[0].Text.Content != "Label" || texts[0].X != 100 || texts[0].Y != 150 {
			t.Errorf("first text = %q at (%v,%v)", texts[0].Text.Content, texts[0].X, texts[0].Y)
		}
		if texts[1].Text.Content != "Changed" || texts[1].X != 300 || texts[1].Y != 50 {
			t.Errorf("second text = %q at (%v,%v)", texts[1].Text.Content, texts[1].X, texts[1].Y)
		}

		e.Undo()
		if doc := e.Document(); len(doc.ComponentInstances) != 2 || len(doc.Frames[0].Elements) != 0 {
			t.Error("undo did not restore the instances")
		}
	})

	t.Run("single element flattens ungrouped", func(t *testing.T) {
		e, _ := newTestEngine(t, Options{})
		r := addRect(t, e, 0, 0, 30, 30)
		gid, _ := e.CreateComponentGroup("badge", []string{r})
		compID, _, ok := e.PromoteToComponent(gid, "")
		if !ok {
			t.Fatal("PromoteToComponent() = false")
		}
		if comp, _ := e.Component(compID); comp.Name != "Component 1" {
			t.Errorf("default name = %q", comp.Name)
		}
		e.DeleteComponent(compID, DeleteFlatten)
		doc := e.Document()
		if len(doc.Frames[0].Elements) != 1 || doc.Frames[0].Elements[0].ElementGroupID != "" || len(doc.ElementGroups) != 0 {
			t.Errorf("single flattened element grouped: %+v", doc.Frames[0].Elements)
		}
		if len(doc.ComponentGroups) != 0 {
			t.Error("component group survived promotion")
		}
	})
}

func TestFrames(t *testing.T) {
	e, log := newTestEngine(t, Options{})
	first := e.ActiveFrameID()

	if e.DeleteFrame(first) {
		t.Fatal("deleted the last frame")
	}
	if len(log.notices) != 1 || log.notices[0].Message != "Cannot delete the last frame" {
		t.Errorf("notices = %+v", log.notices)
	}

	second, ok := e.AddFrame("", document.FrameTypeModal)
	if !ok {
		t.Fatal("AddFrame() = false")
	}
	if _, ok := e.AddFrame("Bad", "sidebar"); ok {
		t.Error("unknown frame type accepted")
	}
	frames := e.Frames()
	if len(frames) != 2 || frames[1].Name != "Page 2" || frames[1].Type != document.FrameTypeModal || !frames[1].Active {
		t.Fatalf("frames = %+v", frames)
	}

	id := addRect(t, e, 0, 0, 20, 20)
	if f, _ := e.findElement(id); f.ID != second {
		t.Error("element not added to the active frame")
	}

	depth := e.history.UndoCount()
	if !e.SetActiveFrame(first) || e.ActiveFrameID() != first {
		t.Fatal("SetActiveFrame() failed")
	}
	if e.history.UndoCount() != depth {
		t.Error("switching frames recorded history")
	}

	if !e.RenameFrame(second, "Dialog") {
		t.Error("RenameFrame() = false")
	}
	if !e.SetFrameNotes(second, "Shown on submit") {
		t.Error("SetFrameNotes() = false")
	}
	if !e.SetAnnotation(second, id, "Primary action") {
		t.Error("SetAnnotation() = false")
	}
	doc := e.Document()
	if d := doc.Frames[1].Documentation; d == nil || d.Notes != "Shown on submit" || d.Annotations[id] != "Primary action" {
		t.Errorf("documentation = %+v", d)
	}

	if !e.DeleteFrame(second) {
		t.Fatal("DeleteFrame() = false")
	}
	if _, ok := e.Element(id); ok {
		t.Error("frame elements survived")
	}
	if e.ActiveFrameID() != first {
		t.Error("active frame changed")
	}

	e.Undo()
	if _, ok := e.Element(id); !ok {
		t.Error("undo did not restore the frame")
	}
}

func TestCompileDrawCommands(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	r := addRect(t, e, 0, 0, 100, 50)
	e.AddElement("", document.Element{Kind: document.KindText, X: 200, Y: 0, Text: &document.TextData{Content: "Hi", AutoWidth: true}})
	e.Select([]string{r})

	cmds := CompileDrawCommands(e.View(), mono)
	if len(cmds) != 12 {
		t.Fatalf("commands = %d, want 2 elements + selection box + 9 handles", len(cmds))
	}
	if c := cmds[0]; c.Op != "path" || c.ObjectID != r || len(c.Path) != 5 || c.Transform != nil || c.Overlay {
		t.Errorf("rect command = %+v", c)
	}
	if c := cmds[1]; c.Op != "text" || len(c.Lines) != 1 || c.Lines[0] != "Hi" || c.LineHeight != 20 {
		t.Errorf("text command = %+v", c)
	}
	for _, c := range cmds[2:] {
		if !c.Overlay {
			t.Errorf("overlay expected: %+v", c)
		}
	}
	if cmds[2].Dash == nil {
		t.Error("selection box must be dashed")
	}

	e.RotateElement(r, math.Pi/2)
	v, ok := e.FrameView(e.ActiveFrameID())
	if !ok {
		t.Fatal("FrameView() = false")
	}
	cmds = CompileDrawCommands(v, mono)
	if len(cmds) != 2 {
		t.Fatalf("frame view commands = %d, want no overlays", len(cmds))
	}
	if len(cmds[0].Transform) != 6 {
		t.Errorf("rotated transform = %v", cmds[0].Transform)
	}

	out, err := DrawCommandsToJSON(cmds)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"op":"text"`) {
		t.Errorf("json = %s", out)
	}
}

func TestBoundTextDrawsWithContainerRotation(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	box := addRect(t, e, 0, 0, 200, 60)
	label, ok := e.AddElement("", document.Element{Kind: document.KindText, Text: &document.TextData{Content: "Go", ContainerID: box}})
	if !ok {
		t.Fatal("AddElement(label) = false")
	}

	textCommand := func() DrawCommand {
		t.Helper()
		v, _ := e.FrameView(e.ActiveFrameID())
		for _, c := range CompileDrawCommands(v, mono) {
			if c.Op == "text" && c.ObjectID == label {
				return c
			}
		}
		t.Fatal("no text command for the label")
		return DrawCommand{}
	}

	if c := textCommand(); c.Transform != nil {
		t.Errorf("unrotated label transform = %v", c.Transform)
	}

	e.RotateElement(box, math.Pi/2)
	container := mustElement(t, e, box)
	want := ElementTransform(&container).ToSlice()
	got := textCommand().Transform
	if len(got) != 6 {
		t.Fatalf("label transform = %v, want container transform %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("transform[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if txt := mustElement(t, e, label); txt.Rotation != 0 {
		t.Errorf("label rotation = %v, layout stays unrotated", txt.Rotation)
	}
}
