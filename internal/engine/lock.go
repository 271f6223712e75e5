package engine

import (
	"fmt"

	"github.com/fraction12/wireflow/internal/document"
)

// Action is an operation subject to lock enforcement.
type Action string

const (
	ActionDrag     Action = "drag"
	ActionResize   Action = "resize"
	ActionRotate   Action = "rotate"
	ActionNudge    Action = "nudge"
	ActionDelete   Action = "delete"
	ActionTextEdit Action = "edit text of"
	ActionEdit     Action = "edit"
	ActionGroup    Action = "group"
	ActionReorder  Action = "reorder"
)

// lockChecklist is the single list of actions a locked element rejects.
// Actions absent from it (or false) ignore the locked flag.
var lockChecklist = map[Action]bool{
	ActionDrag:     true,
	ActionResize:   true,
	ActionRotate:   true,
	ActionNudge:    true,
	ActionDelete:   true,
	ActionTextEdit: true,
	ActionEdit:     true,
	ActionGroup:    false,
	ActionReorder:  false,
}

// LockEnforced reports whether locked elements reject action.
func LockEnforced(action Action) bool {
	return lockChecklist[action]
}

// allowed reports whether action may touch every element in ids, notifying
// the user when a locked element blocks it. Bound text inherits its
// container's lock.
func (e *Engine) allowed(action Action, ids []string) bool {
	if !LockEnforced(action) {
		return true
	}
	f := e.activeFrame()
	for _, id := range ids {
		fr, idx := e.findElement(id)
		if idx < 0 {
			continue
		}
		el := &fr.Elements[idx]
		locked := el.Locked
		if !locked && el.IsBoundText() {
			if ci := indexOf(fr, el.Text.ContainerID); ci >= 0 {
				locked = fr.Elements[ci].Locked
			}
		}
		if locked {
			e.notifier.Notify(Notice{
				Level:   NoticeWarning,
				Message: fmt.Sprintf("Cannot %s a locked element", action),
			})
			e.logger.Debug("locked element rejected action", "action", string(action), "element", id, "frame", frameID(f))
			return false
		}
	}
	return true
}

func frameID(f *document.Frame) string {
	if f == nil {
		return ""
	}
	return f.ID
}
