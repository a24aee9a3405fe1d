package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"ryegate/pkg/domain"
)

// PostgresStore persists role membership in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is applied by the caller at startup; kept here so migrations and
// integration tests share one definition.
const Schema = `
CREATE TABLE IF NOT EXISTS role_members (
    role    TEXT NOT NULL,
    address TEXT NOT NULL,
    granted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (role, address)
);`

func (s *PostgresStore) Add(ctx context.Context, role Role, addr domain.Address) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO role_members (role, address) VALUES ($1, $2)
		 ON CONFLICT (role, address) DO NOTHING`,
		string(role), addr.String())
	if err != nil {
		return fmt.Errorf("add role member: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, role Role, addr domain.Address) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM role_members WHERE role = $1 AND address = $2`,
		string(role), addr.String())
	if err != nil {
		return fmt.Errorf("remove role member: %w", err)
	}
	return nil
}

func (s *PostgresStore) Has(ctx context.Context, role Role, addr domain.Address) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_members WHERE role = $1 AND address = $2)`,
		string(role), addr.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check role member: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Members(ctx context.Context, role Role) ([]domain.Address, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT address FROM role_members WHERE role = $1 ORDER BY address`,
		string(role))
	if err != nil {
		return nil, fmt.Errorf("list role members: %w", err)
	}
	defer rows.Close()

	var members []domain.Address
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, fmt.Errorf("scan role member: %w", err)
		}
		members = append(members, domain.Address(addr))
	}
	return members, rows.Err()
}
