package engine

import (
	"strings"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/typeid"
)

type textEdit struct {
	id       string
	frameID  string
	before   document.Snapshot
	created  bool
	original string
}

// EditingID returns the id of the text element being edited, or "".
func (e *Engine) EditingID() string {
	if e.edit == nil {
		return ""
	}
	return e.edit.id
}

// EditText enters text editing on a text element or on a container's bound
// text, creating the bound text when missing.
func (e *Engine) EditText(id string) bool {
	e.finishInteraction()
	f := e.activeFrame()
	idx := indexOf(f, id)
	if idx < 0 {
		return false
	}
	switch el := &f.Elements[idx]; {
	case el.Kind == document.KindText:
		return e.beginTextEdit(f, idx, e.doc.Snapshot(), false)
	case el.Kind.IsContainer():
		return e.editBoundText(f, idx)
	}
	return false
}

// TextInput replaces the content of the text being edited. Layout is
// recomputed immediately; history is recorded when editing commits.
func (e *Engine) TextInput(content string) bool {
	if e.edit == nil {
		return false
	}
	f := e.frame(e.edit.frameID)
	idx := indexOf(f, e.edit.id)
	if idx < 0 {
		return false
	}
	f.Elements[idx].Text.Content = content
	e.normalizeAt(f, idx)
	return true
}

func (e *Engine) beginTextEdit(f *document.Frame, idx int, before document.Snapshot, created bool) bool {
	el := &f.Elements[idx]
	if !created && !e.allowed(ActionTextEdit, []string{el.ID}) {
		return false
	}
	if el.Text == nil {
		el.Text = &document.TextData{FontSize: document.DefaultFontSize}
	}
	e.edit = &textEdit{
		id:       el.ID,
		frameID:  f.ID,
		before:   before,
		created:  created,
		original: el.Text.Content,
	}
	e.state = StateTextEditing
	e.setSelection([]string{el.ID}, SelectionDirect)
	return true
}

func (e *Engine) editBoundText(f *document.Frame, idx int) bool {
	container := &f.Elements[idx]
	if !e.allowed(ActionTextEdit, []string{container.ID}) {
		return false
	}
	if ids := e.boundText(f, container); len(ids) > 0 {
		return e.beginTextEdit(f, indexOf(f, ids[0]), e.doc.Snapshot(), false)
	}

	before := e.doc.Snapshot()
	text := document.Element{
		ID:   typeid.NewElementID(),
		Kind: document.KindText,
		Text: &document.TextData{
			FontSize:      document.DefaultFontSize,
			TextAlign:     "center",
			VerticalAlign: document.AlignMiddle,
			ContainerID:   container.ID,
		},
		GroupID:        container.GroupID,
		ElementGroupID: container.ElementGroupID,
	}
	container.BoundElements = append(container.BoundElements, text.ID)
	document.SyncBoundText(container, &text, e.measurer)
	e.addGroupMember(text.GroupID, text.ElementGroupID, text.ID)

	f.Elements = append(f.Elements, text)
	return e.beginTextEdit(f, len(f.Elements)-1, before, true)
}

// addGroupMember appends id to whichever group record is named.
func (e *Engine) addGroupMember(componentGroupID, elementGroupID, id string) {
	if g := e.componentGroup(componentGroupID); g != nil {
		g.ElementIDs = append(g.ElementIDs, id)
	}
	if g := e.elementGroup(elementGroupID); g != nil {
		g.ElementIDs = append(g.ElementIDs, id)
	}
}

// insideEdit reports whether a world point lies on the text being edited
// or on its container.
func (e *Engine) insideEdit(x, y float64) bool {
	f := e.frame(e.edit.frameID)
	idx := indexOf(f, e.edit.id)
	if idx < 0 {
		return false
	}
	el := &f.Elements[idx]
	if el.Bounds().Contains(x, y) {
		return true
	}
	if el.IsBoundText() {
		if ci := indexOf(f, el.Text.ContainerID); ci >= 0 {
			return hitElement(&f.Elements[ci], x, y, 0)
		}
	}
	return false
}

// commitTextEdit ends text editing. Empty content deletes the element and
// detaches it from its container; text created by this edit then leaves no
// history entry at all.
func (e *Engine) commitTextEdit() {
	ed := e.edit
	e.edit = nil
	e.state = StateIdle

	f := e.frame(ed.frameID)
	idx := indexOf(f, ed.id)
	if idx < 0 {
		return
	}
	el := &f.Elements[idx]

	if strings.TrimSpace(el.Text.Content) == "" {
		if ed.created {
			e.doc.Restore(ed.before)
		} else {
			e.deleteElements([]string{ed.id})
			e.commit(ed.before)
		}
		e.clearSelection()
		return
	}

	if ed.created || el.Text.Content != ed.original {
		e.commit(ed.before)
	}
	e.setSelection([]string{ed.id}, SelectionTextExit)
}
