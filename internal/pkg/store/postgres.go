package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

const createEntriesTable = `CREATE TABLE IF NOT EXISTS store_entries (
	namespace  VARCHAR(64) NOT NULL,
	id         VARCHAR(64) NOT NULL,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, id)
)`

type postgresBackend struct {
	db        *sql.DB
	namespace string
}

// NewPostgresBackend stores entries as rows of store_entries keyed by
// (namespace, id). The *sql.DB is shared and not closed by the backend.
func NewPostgresBackend(db *sql.DB, namespace string) Backend {
	return &postgresBackend{db: db, namespace: namespace}
}

func (b *postgresBackend) Open(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, createEntriesTable); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

func (b *postgresBackend) Load(ctx context.Context) (map[string][]byte, error) {
	query := `SELECT id, data FROM store_entries WHERE namespace = $1`
	rows, err := b.db.QueryContext(ctx, query, b.namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		out[id] = data
	}
	return out, rows.Err()
}

func (b *postgresBackend) Put(ctx context.Context, id string, data []byte) error {
	query := `INSERT INTO store_entries (namespace, id, data, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (namespace, id) DO UPDATE SET data = EXCLUDED.data, updated_at = CURRENT_TIMESTAMP`
	_, err := b.db.ExecContext(ctx, query, b.namespace, id, data)
	return err
}

func (b *postgresBackend) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM store_entries WHERE namespace = $1 AND id = ANY($2)`
	_, err := b.db.ExecContext(ctx, query, b.namespace, pq.Array(ids))
	return err
}

func (b *postgresBackend) Close() error { return nil }
