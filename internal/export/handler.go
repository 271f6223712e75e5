package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/fraction12/wireflow/internal/engine"
)

// FrameViewer projects a frame for export.
type FrameViewer interface {
	FrameView(frameID string) (engine.View, bool)
}

type Handler struct {
	views    FrameViewer
	renderer *Renderer
}

func NewHandler(views FrameViewer, renderer *Renderer) *Handler {
	return &Handler{views: views, renderer: renderer}
}

// ExportPNG serves GET /api/frames/{frameId}/export.png. The optional
// scale query parameter ranges over (0, MaxScale].
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	frameID := mux.Vars(r)["frameId"]

	opts := Options{}
	if raw := r.URL.Query().Get("scale"); raw != "" {
		scale, err := strconv.ParseFloat(raw, 64)
		if err != nil || scale <= 0 || scale > MaxScale {
			http.Error(w, fmt.Sprintf("invalid scale: must be in (0, %g]", MaxScale), http.StatusBadRequest)
			return
		}
		opts.Scale = scale
	}
	if bg := r.URL.Query().Get("background"); bg != "" {
		if !paintable(bg) {
			http.Error(w, "invalid background: must be a hex color", http.StatusBadRequest)
			return
		}
		opts.Background = bg
	}

	view, ok := h.views.FrameView(frameID)
	if !ok {
		http.Error(w, "frame not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.PNG(&buf, view, opts); err != nil {
		if errors.Is(err, ErrImageTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		slog.Error("export png", "frame", frameID, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.png"`, fileName(view.Frame.Name)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func fileName(name string) string {
	if name == "" {
		name = "frame"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
