package engine

import "strings"

// KeyDown handles a key press and reports whether it was consumed. While
// text is being edited only Escape is handled; it commits the edit.
func (e *Engine) KeyDown(k KeyEvent) bool {
	key := k.Key
	lower := strings.ToLower(key)

	if e.edit != nil {
		if key == "Escape" {
			e.commitTextEdit()
			return true
		}
		return false
	}

	if key == "Escape" {
		if e.gesture != nil {
			e.cancelGesture()
			return true
		}
		e.clearSelection()
		e.tool = ToolSelect
		return true
	}

	if k.command() {
		switch {
		case lower == "z" && k.Shift, lower == "y" && !k.Shift:
			return e.Redo()
		case lower == "z":
			return e.Undo()
		case lower == "g" && k.Shift:
			return e.UngroupSelection()
		case lower == "g":
			_, ok := e.GroupSelection()
			return ok
		case lower == "a":
			e.SelectAll()
			return true
		}
		return false
	}

	if e.gesture != nil {
		return false
	}

	switch key {
	case "Delete":
		return e.DeleteSelection()
	case "Backspace":
		if e.deletePolicy.BackspaceRequiresDirectSelection && e.selectionSource != SelectionDirect {
			return false
		}
		return e.DeleteSelection()
	case "ArrowLeft", "ArrowRight", "ArrowUp", "ArrowDown":
		return e.nudgeKey(key, k.Shift)
	}

	if k.Alt {
		return false
	}
	if t, ok := toolKeys[lower]; ok {
		return e.SetTool(t)
	}
	return false
}

func (e *Engine) nudgeKey(key string, large bool) bool {
	if len(e.selection) == 0 {
		return false
	}
	step := 1.0
	switch {
	case e.snapping.GridEnabled:
		step = e.snapping.GridSize
	case large:
		step = 10
	}
	var dx, dy float64
	switch key {
	case "ArrowLeft":
		dx = -step
	case "ArrowRight":
		dx = step
	case "ArrowUp":
		dy = -step
	case "ArrowDown":
		dy = step
	}
	return e.Nudge(dx, dy)
}
