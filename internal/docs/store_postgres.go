package docs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ryegate/pkg/domain"
	"ryegate/pkg/platform/sentinel"
)

// PostgresStore persists documents in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    name       TEXT PRIMARY KEY,
    uri        TEXT NOT NULL,
    hash       TEXT NOT NULL DEFAULT '',
    updated_by TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);`

func (s *PostgresStore) Save(ctx context.Context, doc Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (name, uri, hash, updated_by, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO UPDATE SET
		   uri        = EXCLUDED.uri,
		   hash       = EXCLUDED.hash,
		   updated_by = EXCLUDED.updated_by,
		   updated_at = EXCLUDED.updated_at`,
		doc.Name, doc.URI, doc.Hash, doc.UpdatedBy.String(), doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, name string) (Document, error) {
	var (
		doc       Document
		updatedBy string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT name, uri, hash, updated_by, updated_at FROM documents WHERE name = $1`,
		name).
		Scan(&doc.Name, &doc.URI, &doc.Hash, &updatedBy, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, sentinel.ErrNotFound
		}
		return Document{}, fmt.Errorf("find document: %w", err)
	}
	doc.UpdatedBy = domain.Address(updatedBy)
	return doc, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, uri, hash, updated_by, updated_at FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			doc       Document
			updatedBy string
		)
		if err := rows.Scan(&doc.Name, &doc.URI, &doc.Hash, &updatedBy, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.UpdatedBy = domain.Address(updatedBy)
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

var _ Store = (*PostgresStore)(nil)
