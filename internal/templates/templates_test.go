package templates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fraction12/wireflow/internal/document"
)

var mono = document.MonospaceMeasurer{Ratio: 0.625}

func TestDefaults(t *testing.T) {
	r := NewRegistry(mono)
	btn, ok := r.Lookup("button")
	if !ok {
		t.Fatal("button template missing")
	}
	if btn.ComponentType != "button" || len(btn.Elements) != 2 {
		t.Fatalf("button = %+v", btn)
	}
	box, label := btn.Elements[0], btn.Elements[1]
	if len(box.BoundElements) != 1 || box.BoundElements[0] != "label" {
		t.Errorf("box bound elements = %v", box.BoundElements)
	}
	if label.Text == nil || label.Text.ContainerID != "box" {
		t.Fatalf("label = %+v", label)
	}
	if label.OffsetX != document.BoundTextPadding || label.Width != 140-2*document.BoundTextPadding {
		t.Errorf("label not synced to container: x=%v w=%v", label.OffsetX, label.Width)
	}
	if btn.Width != 140 || btn.Height != 44 {
		t.Errorf("size = %vx%v", btn.Width, btn.Height)
	}
	if len(r.Names()) < 4 {
		t.Errorf("Names() = %v", r.Names())
	}
}

func TestParseRejectsBadTemplates(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no name", "templates:\n  - elements:\n      - {id: a, type: rectangle}\n"},
		{"no elements", "templates:\n  - name: x\n"},
		{"bad type", "templates:\n  - name: x\n    elements:\n      - {id: a, type: star}\n"},
		{"duplicate id", "templates:\n  - name: x\n    elements:\n      - {id: a, type: rectangle}\n      - {id: a, type: ellipse}\n"},
		{"missing container", "templates:\n  - name: x\n    elements:\n      - {id: t, type: text, container: nope}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), mono)
			if !errors.Is(err, ErrInvalidTemplate) {
				t.Errorf("Parse() error = %v, want ErrInvalidTemplate", err)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const tagYAML = `templates:
  - name: tag
    componentType: badge
    elements:
      - {id: pill, type: ellipse, width: 60, height: 24}
  - name: button
    elements:
      - {id: only, type: rectangle, width: 10, height: 10}
`

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	writeFile(t, path, tagYAML)

	r := NewRegistry(mono)
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if tag, ok := r.Lookup("tag"); !ok || tag.ComponentType != "badge" {
		t.Errorf("tag = %+v, %v", tag, ok)
	}
	if btn, _ := r.Lookup("button"); len(btn.Elements) != 1 {
		t.Errorf("button not overridden: %+v", btn)
	}
	if _, ok := r.Lookup("card"); !ok {
		t.Error("defaults dropped")
	}

	writeFile(t, path, "templates: [")
	if err := r.LoadFile(path); err == nil {
		t.Error("LoadFile() accepted invalid yaml")
	}
	if _, ok := r.Lookup("tag"); !ok {
		t.Error("failed reload must keep previous templates")
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	writeFile(t, path, "templates: []\n")

	r := NewRegistry(mono)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, path, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		writeFile(t, path, tagYAML)
		if _, ok := r.Lookup("tag"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("template file change not picked up")
		}
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
