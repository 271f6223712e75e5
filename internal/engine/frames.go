package engine

import (
	"slices"
	"strconv"

	"github.com/fraction12/wireflow/internal/document"
)

// FrameSummary describes a frame without its elements.
type FrameSummary struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Type         document.FrameType `json:"type"`
	ElementCount int                `json:"elementCount"`
	Active       bool               `json:"active"`
}

// Frames lists the document's frames in order.
func (e *Engine) Frames() []FrameSummary {
	active := e.ActiveFrameID()
	out := make([]FrameSummary, 0, len(e.doc.Frames))
	for _, f := range e.doc.Frames {
		out = append(out, FrameSummary{
			ID:           f.ID,
			Name:         f.Name,
			Type:         f.Type,
			ElementCount: len(f.Elements),
			Active:       f.ID == active,
		})
	}
	return out
}

func validFrameType(t document.FrameType) bool {
	return t == document.FrameTypePage || t == document.FrameTypeModal || t == document.FrameTypeFlyout
}

// AddFrame appends a new frame and makes it active. An empty type creates
// a page.
func (e *Engine) AddFrame(name string, frameType document.FrameType) (string, bool) {
	e.finishInteraction()
	if frameType == "" {
		frameType = document.FrameTypePage
	}
	if !validFrameType(frameType) {
		return "", false
	}
	if name == "" {
		name = "Page " + strconv.Itoa(len(e.doc.Frames)+1)
	}
	f := document.NewFrame(name, frameType)
	e.mutate(func() bool {
		e.doc.Frames = append(e.doc.Frames, f)
		e.doc.ActiveFrameID = f.ID
		return true
	})
	e.clearSelection()
	return f.ID, true
}

// RenameFrame changes a frame's name.
func (e *Engine) RenameFrame(id, name string) bool {
	e.finishInteraction()
	if name == "" {
		return false
	}
	return e.mutate(func() bool {
		f := e.frame(id)
		if f == nil || f.Name == name {
			return false
		}
		f.Name = name
		return true
	})
}

// DeleteFrame removes a frame with its elements, the groups over them and
// the instances placed on it. The last remaining frame cannot be deleted.
func (e *Engine) DeleteFrame(id string) bool {
	e.finishInteraction()
	f := e.frame(id)
	if f == nil {
		return false
	}
	if len(e.doc.Frames) == 1 {
		e.notifier.Notify(Notice{Level: NoticeWarning, Message: "Cannot delete the last frame"})
		return false
	}
	ids := make([]string, 0, len(f.Elements))
	for _, el := range f.Elements {
		ids = append(ids, el.ID)
	}
	ok := e.mutate(func() bool {
		e.deleteElements(ids)
		e.removeInstances(func(inst *document.ComponentInstance) bool { return inst.FrameID == id })
		e.doc.ElementGroups = slices.DeleteFunc(e.doc.ElementGroups, func(g document.ElementGroup) bool { return g.FrameID == id })
		e.doc.Frames = slices.DeleteFunc(e.doc.Frames, func(f document.Frame) bool { return f.ID == id })
		if e.doc.ActiveFrameID == id {
			e.doc.ActiveFrameID = e.doc.Frames[0].ID
		}
		return true
	})
	e.clearSelection()
	return ok
}

// SetActiveFrame switches the frame being edited. It is not an undoable
// change; the selection is cleared.
func (e *Engine) SetActiveFrame(id string) bool {
	if e.frame(id) == nil {
		return false
	}
	e.finishInteraction()
	if e.doc.ActiveFrameID == id {
		return true
	}
	e.doc.ActiveFrameID = id
	e.clearSelection()
	e.changed()
	return true
}

// SetFrameNotes replaces a frame's documentation notes.
func (e *Engine) SetFrameNotes(id, notes string) bool {
	e.finishInteraction()
	return e.mutate(func() bool {
		f := e.frame(id)
		if f == nil {
			return false
		}
		if f.Documentation == nil {
			if notes == "" {
				return false
			}
			f.Documentation = &document.FrameDocumentation{}
		}
		if f.Documentation.Notes == notes {
			return false
		}
		f.Documentation.Notes = notes
		return true
	})
}

// SetAnnotation attaches a note to an element of the frame. An empty note
// removes the annotation.
func (e *Engine) SetAnnotation(frameID, elementID, note string) bool {
	e.finishInteraction()
	return e.mutate(func() bool {
		f := e.frame(frameID)
		if f == nil || indexOf(f, elementID) < 0 {
			return false
		}
		if note == "" {
			if f.Documentation == nil {
				return false
			}
			if _, ok := f.Documentation.Annotations[elementID]; !ok {
				return false
			}
			delete(f.Documentation.Annotations, elementID)
			return true
		}
		if f.Documentation == nil {
			f.Documentation = &document.FrameDocumentation{}
		}
		if f.Documentation.Annotations == nil {
			f.Documentation.Annotations = make(map[string]string)
		}
		if f.Documentation.Annotations[elementID] == note {
			return false
		}
		f.Documentation.Annotations[elementID] = note
		return true
	})
}
