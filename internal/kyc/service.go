package kyc

import (
	"context"
	"errors"
	"time"

	"ryegate/internal/rbac"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/platform/sentinel"
	"ryegate/pkg/requestcontext"
)

// Service owns the whitelist/accreditation registry. Writes require the
// compliance role; reads are open and cannot fail on policy (an unknown
// address simply reads as not whitelisted).
type Service struct {
	store   Store
	roles   *rbac.Service
	metrics *Metrics
}

func NewService(store Store, roles *rbac.Service, metrics *Metrics) *Service {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &Service{store: store, roles: roles, metrics: metrics}
}

// SetWhitelist upserts a record. A zero expiry means the whitelist status
// never ages out. Expiry in the past is allowed: that is how revocation-by-
// date is expressed.
func (s *Service) SetWhitelist(ctx context.Context, caller, addr domain.Address, accredited bool, expiresAt time.Time, kycHash string) (Record, error) {
	if err := s.roles.Require(ctx, rbac.RoleCompliance, caller); err != nil {
		return Record{}, err
	}
	if addr.IsZero() {
		return Record{}, dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	record := Record{
		Address:     addr,
		Whitelisted: true,
		Accredited:  accredited,
		ExpiresAt:   expiresAt,
		KYCHash:     kycHash,
		UpdatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Save(ctx, record); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save kyc record")
	}
	s.metrics.ObserveWrite()
	return record, nil
}

// Revoke soft-revokes the whitelist flag. The record is retained for audit.
func (s *Service) Revoke(ctx context.Context, caller, addr domain.Address) error {
	if err := s.roles.Require(ctx, rbac.RoleCompliance, caller); err != nil {
		return err
	}
	record, err := s.store.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no kyc record for address")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load kyc record")
	}
	record.Whitelisted = false
	record.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Save(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke kyc record")
	}
	s.metrics.ObserveWrite()
	return nil
}

// IsWhitelisted returns the effective whitelist status, accounting for
// expiry without any background sweeping.
func (s *Service) IsWhitelisted(ctx context.Context, addr domain.Address) (bool, error) {
	s.metrics.ObserveLookup()
	record, err := s.store.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "kyc lookup failed")
	}
	return record.EffectiveWhitelisted(requestcontext.Now(ctx)), nil
}

// IsAccredited returns the raw accreditation flag. Accreditation has no
// expiry in this design; only the whitelist status ages out.
func (s *Service) IsAccredited(ctx context.Context, addr domain.Address) (bool, error) {
	s.metrics.ObserveLookup()
	record, err := s.store.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "kyc lookup failed")
	}
	return record.Accredited, nil
}

// Get returns the raw record for the admin surface.
func (s *Service) Get(ctx context.Context, addr domain.Address) (Record, error) {
	record, err := s.store.Find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.New(dErrors.CodeNotFound, "no kyc record for address")
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "kyc lookup failed")
	}
	return record, nil
}
