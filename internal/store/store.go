// Package store persists the document. Every save appends a new version
// of the serialized DocumentState; loading returns the latest version.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fraction12/wireflow/internal/document"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store loads and saves one document.
type Store interface {
	// Load returns the latest saved state, or nil and no error when the
	// document has never been saved.
	Load(ctx context.Context) (*document.DocumentState, error)
	Save(ctx context.Context, state *document.DocumentState) error
	Close() error
}

// Driver names a Store implementation.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMemory   Driver = "memory"
)

// Options selects and configures a Store for Open.
type Options struct {
	Driver      Driver
	DatabaseURL string
	SQLitePath  string
	DocumentID  string
	Logger      *slog.Logger
}

// Open connects the store named by opts.Driver and prepares its schema.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DocumentID == "" {
		opts.DocumentID = "default"
	}
	switch opts.Driver {
	case DriverPostgres:
		return NewPostgres(ctx, opts.DatabaseURL, opts.DocumentID, opts.Logger)
	case DriverSQLite:
		return NewSQLite(ctx, opts.SQLitePath, opts.DocumentID, opts.Logger)
	case DriverMemory, "":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
}

func encode(state *document.DocumentState) ([]byte, error) {
	if state == nil {
		return nil, errors.New("nil document state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*document.DocumentState, error) {
	var state document.DocumentState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &state, nil
}
