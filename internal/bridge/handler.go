package bridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler exposes the bridge over plain HTTP for scripted clients.
type Handler struct {
	bridge *Bridge
}

func NewHandler(b *Bridge) *Handler {
	return &Handler{bridge: b}
}

// Document serves GET /api/document.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"revision": h.bridge.Revision(),
		"document": h.bridge.Document(),
	})
}

// Frames serves GET /api/frames.
func (h *Handler) Frames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bridge.Frames())
}

// Frame serves GET /api/frames/{frameId} with the frame's projected view.
func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	view, ok := h.bridge.FrameView(mux.Vars(r)["frameId"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "frame not found"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Apply serves POST /api/ops.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var op Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := h.bridge.Apply(op)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, ErrUnknownOperation), errors.Is(err, ErrInvalidOperation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrRejected):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("apply operation failed", "type", op.Type, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
