package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ryegate/pkg/domain"
	"ryegate/pkg/platform/sentinel"
	"ryegate/pkg/usdc"
)

// PostgresStore persists revenue reports in PostgreSQL. The primary key on
// period enforces write-once at the database level.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const Schema = `
CREATE TABLE IF NOT EXISTS revenue_reports (
    period            BIGINT PRIMARY KEY,
    gross_revenue     BIGINT NOT NULL,
    operating_costs   BIGINT NOT NULL,
    adjusted_ebitda   BIGINT NOT NULL,
    distribute_amount BIGINT NOT NULL,
    period_start      BIGINT NOT NULL,
    period_end        BIGINT NOT NULL,
    evidence_uri      TEXT NOT NULL,
    reported_by       TEXT NOT NULL,
    reported_at       TIMESTAMPTZ NOT NULL
);`

const uniqueViolation = "23505"

func (s *PostgresStore) Save(ctx context.Context, report Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO revenue_reports
		 (period, gross_revenue, operating_costs, adjusted_ebitda, distribute_amount,
		  period_start, period_end, evidence_uri, reported_by, reported_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		int64(report.Period), int64(report.GrossRevenue), int64(report.OperatingCosts),
		int64(report.AdjustedEBITDA), int64(report.DistributeAmount),
		report.PeriodStart, report.PeriodEnd, report.EvidenceURI,
		report.ReportedBy.String(), report.ReportedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save revenue report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, period domain.Period) (Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT period, gross_revenue, operating_costs, adjusted_ebitda, distribute_amount,
		        period_start, period_end, evidence_uri, reported_by, reported_at
		 FROM revenue_reports WHERE period = $1`, int64(period))
	return scanReport(row)
}

func (s *PostgresStore) Latest(ctx context.Context) (Report, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT period, gross_revenue, operating_costs, adjusted_ebitda, distribute_amount,
		        period_start, period_end, evidence_uri, reported_by, reported_at
		 FROM revenue_reports ORDER BY reported_at DESC LIMIT 1`)
	return scanReport(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]Report, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT period, gross_revenue, operating_costs, adjusted_ebitda, distribute_amount,
		        period_start, period_end, evidence_uri, reported_by, reported_at
		 FROM revenue_reports ORDER BY period`)
	if err != nil {
		return nil, fmt.Errorf("list revenue reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func scanReport(row pgx.Row) (Report, error) {
	var report Report
	var period, gross, opex, ebitda, distribute int64
	var reportedBy string
	err := row.Scan(&period, &gross, &opex, &ebitda, &distribute,
		&report.PeriodStart, &report.PeriodEnd, &report.EvidenceURI,
		&reportedBy, &report.ReportedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, sentinel.ErrNotFound
		}
		return Report{}, fmt.Errorf("scan revenue report: %w", err)
	}
	report.Period = domain.Period(period)
	report.GrossRevenue = usdc.Amount(gross)
	report.OperatingCosts = usdc.Amount(opex)
	report.AdjustedEBITDA = usdc.Amount(ebitda)
	report.DistributeAmount = usdc.Amount(distribute)
	report.ReportedBy = domain.Address(reportedBy)
	return report, nil
}
