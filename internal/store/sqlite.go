package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/typeid"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS document_snapshots (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	version     INTEGER NOT NULL,
	document    TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (document_id, version)
)`

// SQLite stores snapshots in a local database file.
type SQLite struct {
	conn       *sql.DB
	documentID string
	logger     *slog.Logger
}

// NewSQLite opens (or creates) the database at path.
func NewSQLite(ctx context.Context, path, documentID string, logger *slog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{conn: conn, documentID: documentID, logger: logger}, nil
}

func (s *SQLite) Load(ctx context.Context) (*document.DocumentState, error) {
	var data string
	err := s.conn.QueryRowContext(ctx,
		`SELECT document FROM document_snapshots WHERE document_id = ? ORDER BY version DESC LIMIT 1`,
		s.documentID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return decode([]byte(data))
}

func (s *SQLite) Save(ctx context.Context, state *document.DocumentState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM document_snapshots WHERE document_id = ?`,
		s.documentID,
	).Scan(&version)
	if err != nil {
		return fmt.Errorf("next version: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO document_snapshots (id, document_id, version, document) VALUES (?, ?, ?, ?)`,
		typeid.NewSnapshotID(), s.documentID, version, string(data),
	)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("document saved", "document", s.documentID, "version", version)
	return nil
}

// Versions returns how many snapshots exist for the document.
func (s *SQLite) Versions(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_snapshots WHERE document_id = ?`, s.documentID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
