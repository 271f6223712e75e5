package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fraction12/wireflow/internal/document"
	"github.com/fraction12/wireflow/internal/typeid"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS document_snapshots (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	version     INTEGER NOT NULL,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (document_id, version)
)`

// Postgres stores snapshots in a document_snapshots table.
type Postgres struct {
	pool       *pgxpool.Pool
	documentID string
	logger     *slog.Logger
}

// NewPostgres connects to databaseURL and creates the schema when missing.
func NewPostgres(ctx context.Context, databaseURL, documentID string, logger *slog.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{pool: pool, documentID: documentID, logger: logger}, nil
}

func (p *Postgres) Load(ctx context.Context) (*document.DocumentState, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT document FROM document_snapshots WHERE document_id = $1 ORDER BY version DESC LIMIT 1`,
		p.documentID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return decode(data)
}

func (p *Postgres) Save(ctx context.Context, state *document.DocumentState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var version int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM document_snapshots WHERE document_id = $1`,
		p.documentID,
	).Scan(&version)
	if err != nil {
		return fmt.Errorf("next version: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO document_snapshots (id, document_id, version, document) VALUES ($1, $2, $3, $4)`,
		typeid.NewSnapshotID(), p.documentID, version, data,
	)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.logger.Debug("document saved", "document", p.documentID, "version", version)
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
