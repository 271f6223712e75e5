// Package templates provides the fixed component group templates that can
// be stamped onto a frame, loaded from YAML.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fraction12/wireflow/internal/document"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalidTemplate = errors.New("invalid template")

// Template is a named component group layout. Element geometry is relative
// to the template origin; element ids are local to the template.
type Template struct {
	Name          string                         `json:"name"`
	ComponentType string                         `json:"componentType"`
	Elements      []document.ComponentElementDef `json:"elements"`
	Width         float64                        `json:"width"`
	Height        float64                        `json:"height"`
}

type templatesFile struct {
	Templates []templateSpec `yaml:"templates"`
}

type templateSpec struct {
	Name          string        `yaml:"name"`
	ComponentType string        `yaml:"componentType"`
	Elements      []elementSpec `yaml:"elements"`
}

type elementSpec struct {
	ID            string  `yaml:"id"`
	Type          string  `yaml:"type"`
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	Width         float64 `yaml:"width"`
	Height        float64 `yaml:"height"`
	StrokeColor   string  `yaml:"strokeColor"`
	FillColor     string  `yaml:"fillColor"`
	SemanticTag   string  `yaml:"semanticTag"`
	Name          string  `yaml:"name"`
	Content       string  `yaml:"content"`
	FontSize      float64 `yaml:"fontSize"`
	TextAlign     string  `yaml:"textAlign"`
	VerticalAlign string  `yaml:"verticalAlign"`
	AutoWidth     bool    `yaml:"autoWidth"`
	Container     string  `yaml:"container"`
}

// Parse decodes a templates document.
func Parse(data []byte, m document.Measurer) ([]Template, error) {
	var file templatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	out := make([]Template, 0, len(file.Templates))
	for _, ts := range file.Templates {
		t, err := ts.build(m)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ParseFile reads and decodes a templates file.
func ParseFile(path string, m document.Measurer) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return Parse(data, m)
}

// Defaults returns the built-in templates.
func Defaults(m document.Measurer) []Template {
	t, err := Parse(defaultsYAML, m)
	if err != nil {
		// defaults.yaml is compiled in; a decode failure is a build defect.
		panic(err)
	}
	return t
}

func (ts templateSpec) build(m document.Measurer) (Template, error) {
	if ts.Name == "" {
		return Template{}, fmt.Errorf("%w: missing name", ErrInvalidTemplate)
	}
	if len(ts.Elements) == 0 {
		return Template{}, fmt.Errorf("%w: %s has no elements", ErrInvalidTemplate, ts.Name)
	}

	t := Template{Name: ts.Name, ComponentType: ts.ComponentType}
	if t.ComponentType == "" {
		t.ComponentType = ts.Name
	}

	els := make([]document.Element, 0, len(ts.Elements))
	index := make(map[string]int, len(ts.Elements))
	for _, es := range ts.Elements {
		kind := document.ElementKind(es.Type)
		if !kind.Valid() {
			return Template{}, fmt.Errorf("%w: %s: unknown element type %q", ErrInvalidTemplate, ts.Name, es.Type)
		}
		if es.ID == "" {
			return Template{}, fmt.Errorf("%w: %s: element without id", ErrInvalidTemplate, ts.Name)
		}
		if _, dup := index[es.ID]; dup {
			return Template{}, fmt.Errorf("%w: %s: duplicate element id %q", ErrInvalidTemplate, ts.Name, es.ID)
		}
		index[es.ID] = len(els)
		els = append(els, es.element(kind))
	}

	for i := range els {
		el := &els[i]
		if !el.IsBoundText() {
			document.Normalize(el, m)
			continue
		}
		ci, ok := index[el.Text.ContainerID]
		if !ok || !els[ci].Kind.IsContainer() {
			return Template{}, fmt.Errorf("%w: %s: %s names missing container %q", ErrInvalidTemplate, ts.Name, el.ID, el.Text.ContainerID)
		}
		els[ci].BoundElements = append(els[ci].BoundElements, el.ID)
	}
	for i := range els {
		el := &els[i]
		if el.IsBoundText() {
			document.SyncBoundText(&els[index[el.Text.ContainerID]], el, m)
		}
	}

	bounds, _ := document.BoundsOf(els)
	t.Width, t.Height = bounds.Right(), bounds.Bottom()
	for _, el := range els {
		t.Elements = append(t.Elements, document.DefFromElement(el, 0, 0))
	}
	return t, nil
}

func (es elementSpec) element(kind document.ElementKind) document.Element {
	el := document.Element{
		ID:          es.ID,
		Kind:        kind,
		X:           es.X,
		Y:           es.Y,
		Width:       es.Width,
		Height:      es.Height,
		SemanticTag: es.SemanticTag,
		Name:        es.Name,
	}
	if es.StrokeColor != "" || es.FillColor != "" {
		el.Style = &document.Style{StrokeColor: es.StrokeColor, FillColor: es.FillColor}
	}
	switch kind {
	case document.KindText:
		el.Text = &document.TextData{
			Content:       es.Content,
			FontSize:      es.FontSize,
			TextAlign:     es.TextAlign,
			VerticalAlign: document.VerticalAlign(es.VerticalAlign),
			AutoWidth:     es.AutoWidth,
			ContainerID:   es.Container,
		}
		if es.Container != "" && el.Text.TextAlign == "" {
			el.Text.TextAlign = "center"
		}
	case document.KindArrow, document.KindLine:
		el.Connector = &document.ConnectorData{StartX: es.X, StartY: es.Y, EndX: es.X + es.Width, EndY: es.Y + es.Height}
	case document.KindFreedraw:
		el.Freedraw = &document.FreedrawData{}
	}
	return el
}
