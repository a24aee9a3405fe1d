package oracle

import (
	"context"
	"errors"

	"ryegate/internal/rbac"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/platform/sentinel"
	"ryegate/pkg/requestcontext"
	"ryegate/pkg/usdc"
)

// PushRequest carries one period's figures into the oracle.
type PushRequest struct {
	Period           domain.Period
	GrossRevenue     usdc.Amount
	OperatingCosts   usdc.Amount
	AdjustedEBITDA   usdc.Amount
	DistributeAmount usdc.Amount
	PeriodStart      int64
	PeriodEnd        int64
	EvidenceURI      string
}

// Service validates and stores revenue reports. Economic checks run at write
// time, not distribution time, so bad data is rejected before it can anchor
// a payout.
type Service struct {
	store Store
	roles *rbac.Service
}

func NewService(store Store, roles *rbac.Service) *Service {
	return &Service{store: store, roles: roles}
}

// PushReport validates in fixed order (first failure wins) and stores the
// report immutably. Requires the oracle role.
func (s *Service) PushReport(ctx context.Context, caller domain.Address, req PushRequest) (Report, error) {
	if err := s.roles.Require(ctx, rbac.RoleOracle, caller); err != nil {
		return Report{}, err
	}
	if req.Period == 0 {
		return Report{}, dErrors.New(dErrors.CodeInvalidPeriod, "period must be non-zero")
	}
	if _, err := s.store.Find(ctx, req.Period); err == nil {
		return Report{}, dErrors.Newf(dErrors.CodeDuplicatePeriod, "period %s already reported", req.Period)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "report lookup failed")
	}
	if req.AdjustedEBITDA > req.GrossRevenue {
		return Report{}, dErrors.New(dErrors.CodeEBITDAExceedsRevenue, "EBITDA cannot exceed gross revenue")
	}
	if req.DistributeAmount > req.AdjustedEBITDA {
		return Report{}, dErrors.New(dErrors.CodeDistributionExceedsEBITDA, "distribution cannot exceed EBITDA")
	}
	if req.EvidenceURI == "" {
		return Report{}, dErrors.New(dErrors.CodeMissingEvidence, "evidence URI is required")
	}

	report := Report{
		Period:           req.Period,
		GrossRevenue:     req.GrossRevenue,
		OperatingCosts:   req.OperatingCosts,
		AdjustedEBITDA:   req.AdjustedEBITDA,
		DistributeAmount: req.DistributeAmount,
		PeriodStart:      req.PeriodStart,
		PeriodEnd:        req.PeriodEnd,
		EvidenceURI:      req.EvidenceURI,
		ReportedBy:       caller,
		ReportedAt:       requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, report); err != nil {
		// A concurrent push for the same period loses here rather than at
		// the pre-check above.
		if errors.Is(err, sentinel.ErrConflict) {
			return Report{}, dErrors.Newf(dErrors.CodeDuplicatePeriod, "period %s already reported", req.Period)
		}
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save report")
	}
	return report, nil
}

// GetReport reads one period's report.
func (s *Service) GetReport(ctx context.Context, period domain.Period) (Report, error) {
	report, err := s.store.Find(ctx, period)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Report{}, dErrors.Newf(dErrors.CodeNotFound, "no report for period %s", period)
		}
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "report lookup failed")
	}
	return report, nil
}

// LatestReport reads the most recently pushed report.
func (s *Service) LatestReport(ctx context.Context) (Report, error) {
	report, err := s.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Report{}, dErrors.New(dErrors.CodeNoReports, "no reports pushed yet")
		}
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "report lookup failed")
	}
	return report, nil
}

// ListReports returns all reports ordered by period.
func (s *Service) ListReports(ctx context.Context) ([]Report, error) {
	reports, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "report list failed")
	}
	return reports, nil
}
