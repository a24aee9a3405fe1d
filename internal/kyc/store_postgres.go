package kyc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ryegate/pkg/domain"
	"ryegate/pkg/platform/sentinel"
)

// PostgresStore persists KYC records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const Schema = `
CREATE TABLE IF NOT EXISTS kyc_records (
    address     TEXT PRIMARY KEY,
    whitelisted BOOLEAN NOT NULL,
    accredited  BOOLEAN NOT NULL,
    expires_at  TIMESTAMPTZ,
    kyc_hash    TEXT NOT NULL DEFAULT '',
    updated_at  TIMESTAMPTZ NOT NULL
);`

func (s *PostgresStore) Save(ctx context.Context, record Record) error {
	var expires *time.Time
	if !record.ExpiresAt.IsZero() {
		expires = &record.ExpiresAt
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO kyc_records (address, whitelisted, accredited, expires_at, kyc_hash, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (address) DO UPDATE SET
		   whitelisted = EXCLUDED.whitelisted,
		   accredited  = EXCLUDED.accredited,
		   expires_at  = EXCLUDED.expires_at,
		   kyc_hash    = EXCLUDED.kyc_hash,
		   updated_at  = EXCLUDED.updated_at`,
		record.Address.String(), record.Whitelisted, record.Accredited,
		expires, record.KYCHash, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save kyc record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, addr domain.Address) (Record, error) {
	var (
		record  Record
		address string
		expires *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT address, whitelisted, accredited, expires_at, kyc_hash, updated_at
		 FROM kyc_records WHERE address = $1`,
		addr.String()).
		Scan(&address, &record.Whitelisted, &record.Accredited, &expires, &record.KYCHash, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("find kyc record: %w", err)
	}
	record.Address = domain.Address(address)
	if expires != nil {
		record.ExpiresAt = *expires
	}
	return record, nil
}
