package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/engine"
)

const (
	DefaultAutosaveDelay = 800 * time.Millisecond
	saveTimeout          = 10 * time.Second
)

// Autosaver saves the latest committed state once commits have been quiet
// for the configured delay. A failed save is reported through the notifier;
// the in-memory document stays authoritative and the next commit retries.
type Autosaver struct {
	store    Store
	notifier engine.Notifier
	logger   *slog.Logger
	debounce func(func())

	mu      sync.Mutex
	pending *document.DocumentState
}

// NewAutosaver creates an autosaver writing to s. Register Schedule with
// Engine.OnCommit.
func NewAutosaver(s Store, delay time.Duration, notifier engine.Notifier, logger *slog.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if notifier == nil {
		notifier = engine.NotifierFunc(func(engine.Notice) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Autosaver{
		store:    s,
		notifier: notifier,
		logger:   logger,
		debounce: debounce.New(delay),
	}
}

// Schedule queues state to be saved after the quiescence window.
func (a *Autosaver) Schedule(state *document.DocumentState) {
	a.mu.Lock()
	a.pending = state
	a.mu.Unlock()
	a.debounce(func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		a.Flush(ctx)
	})
}

// Flush saves the pending state now, if there is one.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	state := a.pending
	a.pending = nil
	a.mu.Unlock()
	if state == nil {
		return nil
	}

	if err := a.store.Save(ctx, state); err != nil {
		a.mu.Lock()
		if a.pending == nil {
			a.pending = state
		}
		a.mu.Unlock()
		a.logger.Error("autosave failed", "error", err)
		a.notifier.Notify(engine.Notice{Level: engine.NoticeError, Message: "Could not save the document"})
		return fmt.Errorf("autosave: %w", err)
	}
	return nil
}

// Require loads the saved document and fails with ErrNotFound when nothing
// has been saved yet.
func Require(ctx context.Context, s Store) (*document.DocumentState, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNotFound
	}
	return state, nil
}
