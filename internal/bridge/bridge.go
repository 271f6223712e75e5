// Package bridge lets remote callers drive the engine. Every transport
// decodes requests into an Operation and hands it to Apply, which runs it
// against the single engine instance one operation at a time.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/engine"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrRejected means the engine refused the operation: the target does
	// not exist, is locked or the change would be a no-op.
	ErrRejected = errors.New("operation rejected")
)

type handler func(e *engine.Engine, op Operation) (Result, bool)

var handlers = map[string]handler{
	TypeElementCreate: func(e *engine.Engine, op Operation) (Result, bool) {
		id, ok := e.AddElement(op.FrameID, *op.Element)
		return Result{ID: id}, ok
	},
	TypeElementUpdate: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.UpdateElement(op.ID, *op.Patch)
	},
	TypeElementMove: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.MoveElements(op.IDs, op.DX, op.DY)
	},
	TypeElementResize: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.ResizeElement(op.ID, *op.Rect)
	},
	TypeElementDelete: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.DeleteElements(op.IDs)
	},
	TypeElementRotate: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.RotateElement(op.ID, op.Rotation)
	},
	TypeElementLock: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.SetLocked(op.IDs, op.Locked)
	},
	TypeElementFront: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.BringToFront(op.IDs)
	},
	TypeElementBack: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.SendToBack(op.IDs)
	},
	TypeSelectionSet: func(e *engine.Engine, op Operation) (Result, bool) {
		e.Select(op.IDs)
		return Result{}, true
	},
	TypeGroupCreate: func(e *engine.Engine, op Operation) (Result, bool) {
		id, ok := e.GroupElements(op.IDs)
		return Result{ID: id}, ok
	},
	TypeGroupUngroup: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.Ungroup(op.ID)
	},
	TypeGroupMove: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.MoveGroup(op.ID, op.DX, op.DY)
	},
	TypeGroupDelete: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.DeleteGroup(op.ID)
	},
	TypeComponentGroupNew: func(e *engine.Engine, op Operation) (Result, bool) {
		id, ok := e.CreateComponentGroup(op.ComponentType, op.IDs)
		return Result{ID: id}, ok
	},
	TypeTemplateInstantiate: func(e *engine.Engine, op Operation) (Result, bool) {
		id, ok := e.InstantiateTemplate(op.Template, op.X, op.Y)
		return Result{ID: id}, ok
	},
	TypeComponentPromote: func(e *engine.Engine, op Operation) (Result, bool) {
		comp, inst, ok := e.PromoteToComponent(op.ID, op.Name)
		return Result{ID: comp, InstanceID: inst}, ok
	},
	TypeComponentPlace: func(e *engine.Engine, op Operation) (Result, bool) {
		id, ok := e.PlaceInstance(op.ID, op.FrameID, op.X, op.Y)
		return Result{ID: id}, ok
	},
	TypeComponentOverride: func(e *engine.Engine, op Operation) (Result, bool) {
		if op.Value == nil {
			return Result{}, e.ClearInstanceOverride(op.ID, op.ElementID, op.Property)
		}
		return Result{}, e.SetInstanceOverride(op.ID, op.ElementID, op.Property, *op.Value)
	},
	TypeComponentDelete: func(e *engine.Engine, op Operation) (Result, bool) {
		mode := op.Mode
		if mode == "" {
			mode = engine.DeleteCascade
		}
		return Result{}, e.DeleteComponent(op.ID, mode)
	},
	TypeComponentUpdate: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.UpdateMasterElement(op.ID, op.ElementID, op.Property, *op.Value)
	},
	TypeComponentRename: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.RenameComponent(op.ID, op.Name)
	},
	TypeInstanceMove: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.MoveInstance(op.ID, op.DX, op.DY)
	},
	TypeInstanceDelete: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.DeleteInstance(op.ID)
	},
	TypeFrameCreate: func(e *engine.Engine, op Operation) (Result, bool) {
		ft := op.FrameType
		if ft == "" {
			ft = document.FrameTypePage
		}
		id, ok := e.AddFrame(op.Name, ft)
		return Result{ID: id}, ok
	},
	TypeFrameRename: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.RenameFrame(op.ID, op.Name)
	},
	TypeFrameDelete: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.DeleteFrame(op.ID)
	},
	TypeFrameActivate: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.SetActiveFrame(op.ID)
	},
	TypeFrameNotes: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.SetFrameNotes(op.ID, op.Notes)
	},
	TypeFrameAnnotate: func(e *engine.Engine, op Operation) (Result, bool) {
		return Result{}, e.SetAnnotation(op.ID, op.ElementID, op.Notes)
	},
	TypeHistoryUndo: func(e *engine.Engine, _ Operation) (Result, bool) {
		return Result{}, e.Undo()
	},
	TypeHistoryRedo: func(e *engine.Engine, _ Operation) (Result, bool) {
		return Result{}, e.Redo()
	},
}

// Types lists the supported operation types.
func Types() []string {
	types := make([]string, 0, len(handlers))
	for t := range handlers {
		types = append(types, t)
	}
	return types
}

// Bridge serializes access to one engine. The engine is not safe for
// concurrent use; everything that touches it from outside the pointer
// event loop goes through a Bridge.
type Bridge struct {
	mu     sync.Mutex
	engine *engine.Engine
	logger *slog.Logger
}

func New(e *engine.Engine, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{engine: e, logger: logger}
}

// Apply validates op and runs it. A refused operation returns ErrRejected
// and leaves the document untouched.
func (b *Bridge) Apply(op Operation) (Result, error) {
	h, ok := handlers[op.Type]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Type)
	}
	if err := op.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	res, ok := h(b.engine, op)
	res.Revision = b.engine.Revision()
	if !ok {
		b.logger.Debug("operation rejected", "type", op.Type, "id", op.ID)
		return res, fmt.Errorf("%w: %s", ErrRejected, op.Type)
	}
	b.logger.Debug("operation applied", "type", op.Type, "revision", res.Revision)
	return res, nil
}

// Do runs fn with exclusive access to the engine.
func (b *Bridge) Do(fn func(e *engine.Engine)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.engine)
}

// Document returns a copy of the current document.
func (b *Bridge) Document() *document.DocumentState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Document()
}

// FrameView projects one frame for rendering or export. An empty id
// selects the active frame.
func (b *Bridge) FrameView(frameID string) (engine.View, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if frameID == "" {
		frameID = b.engine.ActiveFrameID()
	}
	return b.engine.FrameView(frameID)
}

// Frames lists the document's frames.
func (b *Bridge) Frames() []engine.FrameSummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Frames()
}

// Revision returns the engine's commit counter.
func (b *Bridge) Revision() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Revision()
}
