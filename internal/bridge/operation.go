package bridge

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/engine"
)

// Operation types accepted by Apply.
const (
	TypeElementCreate       = "element.create"
	TypeElementUpdate       = "element.update"
	TypeElementMove         = "element.move"
	TypeElementResize       = "element.resize"
	TypeElementDelete       = "element.delete"
	TypeElementRotate       = "element.rotate"
	TypeElementLock         = "element.lock"
	TypeElementFront        = "element.front"
	TypeElementBack         = "element.back"
	TypeSelectionSet        = "selection.set"
	TypeGroupCreate         = "group.create"
	TypeGroupUngroup        = "group.ungroup"
	TypeGroupMove           = "group.move"
	TypeGroupDelete         = "group.delete"
	TypeComponentGroupNew   = "componentGroup.create"
	TypeTemplateInstantiate = "template.instantiate"
	TypeComponentPromote    = "component.promote"
	TypeComponentPlace      = "component.place"
	TypeComponentOverride   = "component.override"
	TypeComponentDelete     = "component.delete"
	TypeComponentUpdate     = "component.update"
	TypeComponentRename     = "component.rename"
	TypeInstanceMove        = "instance.move"
	TypeInstanceDelete      = "instance.delete"
	TypeFrameCreate         = "frame.create"
	TypeFrameRename         = "frame.rename"
	TypeFrameDelete         = "frame.delete"
	TypeFrameActivate       = "frame.activate"
	TypeFrameNotes          = "frame.notes"
	TypeFrameAnnotate       = "frame.annotate"
	TypeHistoryUndo         = "history.undo"
	TypeHistoryRedo         = "history.redo"
)

// Operation is the envelope every transport decodes remote requests into.
// Which fields are read depends on Type.
type Operation struct {
	Type string `json:"type"`

	// ID names the element, group, component, instance or frame the
	// operation targets. component.place reads the component id here,
	// component.override the instance id and frame.annotate the frame id.
	ID  string   `json:"id,omitempty"`
	IDs []string `json:"ids,omitempty"`

	// For element.create and component.place. Empty selects the active frame.
	FrameID string `json:"frameId,omitempty"`

	// For element.create
	Element *document.Element `json:"element,omitempty"`

	// For element.update
	Patch *engine.ElementPatch `json:"patch,omitempty"`

	// For element.move, group.move and instance.move
	DX float64 `json:"dx,omitempty"`
	DY float64 `json:"dy,omitempty"`

	// For element.resize
	Rect *document.Rect `json:"rect,omitempty"`

	// For element.rotate, in radians
	Rotation float64 `json:"rotation,omitempty"`

	// For element.lock; false unlocks
	Locked bool `json:"locked,omitempty"`

	// For template.instantiate and component.place
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// For component.promote, component.rename, frame.create and frame.rename
	Name      string             `json:"name,omitempty"`
	FrameType document.FrameType `json:"frameType,omitempty"`

	Template string `json:"template,omitempty"`

	// For componentGroup.create
	ComponentType string `json:"componentType,omitempty"`

	// For component.override and component.update. A nil Value clears an
	// override; component.update requires one.
	ElementID string  `json:"elementId,omitempty"`
	Property  string  `json:"property,omitempty"`
	Value     *string `json:"value,omitempty"`

	// For component.delete
	Mode engine.ComponentDeleteMode `json:"mode,omitempty"`

	// For frame.notes and frame.annotate. Empty clears.
	Notes string `json:"notes,omitempty"`
}

// Result reports the outcome of an applied operation.
type Result struct {
	// ID is the id of whatever the operation created, when it created
	// something.
	ID         string `json:"id,omitempty"`
	InstanceID string `json:"instanceId,omitempty"`
	Revision   uint64 `json:"revision"`
}

func targetsID(t string) bool {
	switch t {
	case TypeElementUpdate, TypeElementResize, TypeElementRotate,
		TypeGroupUngroup, TypeGroupMove, TypeGroupDelete,
		TypeComponentPromote, TypeComponentPlace, TypeComponentOverride, TypeComponentDelete,
		TypeComponentUpdate, TypeComponentRename, TypeInstanceMove, TypeInstanceDelete,
		TypeFrameRename, TypeFrameDelete, TypeFrameActivate, TypeFrameNotes, TypeFrameAnnotate:
		return true
	}
	return false
}

func targetsIDs(t string) bool {
	switch t {
	case TypeElementMove, TypeElementDelete, TypeElementLock, TypeElementFront, TypeElementBack,
		TypeGroupCreate, TypeComponentGroupNew:
		return true
	}
	return false
}

func editsProperty(t string) bool {
	return t == TypeComponentOverride || t == TypeComponentUpdate
}

// Validate checks that the fields the operation type reads are present.
func (op Operation) Validate() error {
	t := op.Type
	return validation.ValidateStruct(&op,
		validation.Field(&op.Type, validation.Required),
		validation.Field(&op.ID, validation.When(targetsID(t), validation.Required)),
		validation.Field(&op.IDs, validation.When(targetsIDs(t), validation.Required)),
		validation.Field(&op.Element, validation.When(t == TypeElementCreate, validation.Required)),
		validation.Field(&op.Patch, validation.When(t == TypeElementUpdate, validation.Required)),
		validation.Field(&op.Rect, validation.When(t == TypeElementResize, validation.Required)),
		validation.Field(&op.Template, validation.When(t == TypeTemplateInstantiate, validation.Required)),
		validation.Field(&op.ComponentType, validation.When(t == TypeComponentGroupNew, validation.Required)),
		validation.Field(&op.Name, validation.When(t == TypeComponentRename, validation.Required)),
		validation.Field(&op.ElementID,
			validation.When(editsProperty(t) || t == TypeFrameAnnotate, validation.Required)),
		validation.Field(&op.Value, validation.When(t == TypeComponentUpdate, validation.NotNil)),
		validation.Field(&op.Property,
			validation.When(editsProperty(t), validation.Required),
			validation.In(document.PropContent, document.PropStrokeColor, document.PropFillColor,
				document.PropName, document.PropSemanticTag, document.PropVisible),
		),
		validation.Field(&op.FrameType,
			validation.In(document.FrameTypePage, document.FrameTypeModal, document.FrameTypeFlyout)),
		validation.Field(&op.Mode, validation.In(engine.DeleteCascade, engine.DeleteFlatten)),
	)
}
