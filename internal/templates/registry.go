package templates

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/fraction12/wireflow/internal/document"
)

// Registry holds templates by name. Templates from a file overlay the
// built-in defaults. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
	measurer  document.Measurer
}

// NewRegistry returns a registry holding the built-in templates.
func NewRegistry(m document.Measurer) *Registry {
	r := &Registry{measurer: m}
	r.set(nil)
	return r
}

func (r *Registry) set(overlay []Template) {
	next := make(map[string]Template)
	for _, t := range Defaults(r.measurer) {
		next[t.Name] = t
	}
	for _, t := range overlay {
		next[t.Name] = t
	}
	r.mu.Lock()
	r.templates = next
	r.mu.Unlock()
}

// Lookup returns a template by name.
func (r *Registry) Lookup(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// Names returns the sorted template names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// LoadFile overlays the templates in path onto the defaults. On error the
// registry is left unchanged.
func (r *Registry) LoadFile(path string) error {
	overlay, err := ParseFile(path, r.measurer)
	if err != nil {
		return err
	}
	r.set(overlay)
	return nil
}

// Watch reloads path whenever it changes until ctx is cancelled. The
// containing directory is watched so editors that replace the file on save
// are picked up. A file that fails to parse keeps the previous templates.
func (r *Registry) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve templates path: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch templates dir: %w", err)
	}
	logger.Info("templates watcher started", slog.String("path", abs))

	for {
		select {
		case <-ctx.Done():
			logger.Info("templates watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if err := r.LoadFile(abs); err != nil {
				logger.Warn("templates reload failed", slog.String("path", abs), slog.String("error", err.Error()))
				continue
			}
			logger.Info("templates reloaded", slog.String("path", abs), slog.Int("count", len(r.Names())))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("templates watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
