package engine

import (
	"log/slog"
	"strconv"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/history"
	"github.com/fraction12/wireflow/internal/snap"
	"github.com/fraction12/wireflow/internal/templates"
)

const (
	// MinDragDistance is the pointer travel below which a drawing drag
	// creates nothing.
	MinDragDistance = 4.0
	// HandleRadius is the screen-space hit radius of transform handles.
	HandleRadius = 6.0
	// RotationHandleOffset is the screen distance of the rotation handle above the top edge.
	RotationHandleOffset = 24.0
	// ConnectorHitTolerance is the screen distance within which a line is hit.
	ConnectorHitTolerance = 6.0
	// RotationSnapStep is the rotation increment applied while Shift is held.
	RotationSnapStep = 15.0
)

// TemplateSource looks up fixed component group templates by name.
type TemplateSource interface {
	Lookup(name string) (templates.Template, bool)
}

// DeletePolicy controls which key presses delete the selection.
type DeletePolicy struct {
	// BackspaceRequiresDirectSelection limits Backspace to selections made
	// by clicking an element. Delete always deletes.
	BackspaceRequiresDirectSelection bool
}

// SelectionSource records how the current selection was made.
type SelectionSource string

const (
	SelectionNone       SelectionSource = ""
	SelectionDirect     SelectionSource = "direct"
	SelectionMarquee    SelectionSource = "marquee"
	SelectionAll        SelectionSource = "all"
	SelectionTextExit   SelectionSource = "text-exit"
	SelectionProgrammed SelectionSource = "programmatic"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Measurer     document.Measurer
	Notifier     Notifier
	Logger       *slog.Logger
	Templates    TemplateSource
	Snap         snap.Settings
	HistoryDepth int
	DeletePolicy DeletePolicy
}

// CommitFunc receives a deep copy of the document after every committed change.
type CommitFunc func(state *document.DocumentState)

// Engine owns the document, the interaction state machine and history. It
// is the single writer: every mutation goes through its methods. An Engine
// is not safe for concurrent use.
type Engine struct {
	doc      *document.DocumentState
	history  *history.History
	measurer document.Measurer
	notifier Notifier
	logger   *slog.Logger

	templates    TemplateSource
	snapping     snap.Settings
	deletePolicy DeletePolicy

	// Selection state (backend owns this)
	selection       []string
	selectionSource SelectionSource

	tool     Tool
	state    State
	viewport Viewport

	gesture *gesture
	edit    *textEdit
	guides  []snap.Guide

	listeners []CommitFunc
	revision  uint64
}

// New creates an engine holding an empty document.
func New(opts Options) *Engine {
	if opts.Measurer == nil {
		opts.Measurer = document.MonospaceMeasurer{}
	}
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Snap.GridSize <= 0 {
		opts.Snap.GridSize = snap.DefaultGridSize
	}
	if opts.Snap.GuideTolerance <= 0 {
		opts.Snap.GuideTolerance = snap.DefaultGuideTolerance
	}
	if opts.Snap.ConnectorRadius <= 0 {
		opts.Snap.ConnectorRadius = snap.DefaultConnectorRadius
	}

	return &Engine{
		doc:          document.NewEmptyDocument(),
		history:      history.New(opts.HistoryDepth),
		measurer:     opts.Measurer,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		templates:    opts.Templates,
		snapping:     opts.Snap,
		deletePolicy: opts.DeletePolicy,
		tool:         ToolSelect,
		state:        StateIdle,
		viewport:     Viewport{Zoom: 1},
	}
}

// --- Commands ---

// LoadState replaces the document with a loaded state. Dangling references
// are pruned first; orphaned instances are reported to the user. History
// and selection are cleared.
func (e *Engine) LoadState(s *document.DocumentState) document.PruneReport {
	e.abortInteraction()

	var doc *document.DocumentState
	if s == nil {
		doc = document.NewEmptyDocument()
	} else {
		doc = s.Clone()
	}
	report := document.PruneOrphans(doc, e.measurer)
	if report.OrphanedInstances > 0 {
		e.notifier.Notify(Notice{
			Level:   NoticeWarning,
			Message: pluralize(report.OrphanedInstances, "component instance", "component instances") + " removed because their component no longer exists",
		})
	}
	if report.DanglingRefs > 0 {
		e.logger.Info("pruned dangling references", "count", report.DanglingRefs)
	}

	e.doc = doc
	e.history.Clear()
	e.clearSelection()
	e.revision++
	return report
}

// OnCommit registers fn to run after every committed change.
func (e *Engine) OnCommit(fn CommitFunc) {
	e.listeners = append(e.listeners, fn)
}

// SetTool switches the active tool, finishing any in-progress interaction.
func (e *Engine) SetTool(t Tool) bool {
	if !t.Valid() {
		return false
	}
	e.finishInteraction()
	e.tool = t
	return true
}

// SetGridEnabled toggles grid snapping. Alignment guides are active only
// while the grid is off.
func (e *Engine) SetGridEnabled(on bool) {
	e.snapping.GridEnabled = on
}

// SetViewport replaces the viewport.
func (e *Engine) SetViewport(v Viewport) {
	if v.Zoom <= 0 {
		v.Zoom = 1
	}
	e.viewport = v
}

// Undo restores the previous snapshot. In-flight gestures are cancelled
// and text editing is committed first.
func (e *Engine) Undo() bool {
	e.finishInteraction()
	prev, err := e.history.Undo(e.doc.Snapshot())
	if err != nil {
		return false
	}
	e.restore(prev)
	return true
}

// Redo re-applies the last undone snapshot.
func (e *Engine) Redo() bool {
	e.finishInteraction()
	next, err := e.history.Redo(e.doc.Snapshot())
	if err != nil {
		return false
	}
	e.restore(next)
	return true
}

func (e *Engine) restore(s document.Snapshot) {
	e.doc.Restore(s)
	if e.frame(e.doc.ActiveFrameID) == nil {
		e.doc.ActiveFrameID = e.doc.Frames[0].ID
	}
	e.clearSelection()
	e.changed()
}

// --- Queries ---

// Document returns a deep copy of the current document state.
func (e *Engine) Document() *document.DocumentState { return e.doc.Clone() }

// State returns the active interaction state.
func (e *Engine) State() State { return e.state }

// Tool returns the active tool.
func (e *Engine) Tool() Tool { return e.tool }

// Viewport returns the current viewport.
func (e *Engine) Viewport() Viewport { return e.viewport }

// Snap returns the snapping settings.
func (e *Engine) Snap() snap.Settings { return e.snapping }

// Revision increases after every committed change.
func (e *Engine) Revision() uint64 { return e.revision }

// CanUndo reports whether undo is available.
func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether redo is available.
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// Measurer returns the text measurer used for layout.
func (e *Engine) Measurer() document.Measurer { return e.measurer }

// --- Mutation plumbing ---

// mutate runs fn against the document. The pre-mutation snapshot is taken
// before fn runs and recorded only when fn reports a change; a rejected fn
// leaves the document exactly as it was.
func (e *Engine) mutate(fn func() bool) bool {
	before := e.doc.Snapshot()
	if !fn() {
		e.doc.Restore(before)
		return false
	}
	e.commit(before)
	return true
}

// commit records before as the undo entry for a change already applied.
func (e *Engine) commit(before document.Snapshot) {
	e.history.Record(before)
	e.changed()
}

func (e *Engine) changed() {
	e.revision++
	for _, fn := range e.listeners {
		fn(e.doc.Clone())
	}
}

// finishInteraction completes whatever the user is doing before a
// structural operation runs: pointer gestures are cancelled and text
// editing is committed.
func (e *Engine) finishInteraction() {
	if e.gesture != nil {
		e.cancelGesture()
	}
	if e.edit != nil {
		e.commitTextEdit()
	}
}

// abortInteraction drops all transient interaction state without committing.
func (e *Engine) abortInteraction() {
	e.gesture = nil
	e.edit = nil
	e.guides = nil
	e.state = StateIdle
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
