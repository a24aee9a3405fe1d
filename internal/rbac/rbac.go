// Package rbac implements the set-valued capability map guarding privileged
// ledger operations. Role membership is dynamic: signers rotate by adding and
// removing addresses, never by hardcoded identity checks, and revocation
// takes effect on the next call.
package rbac

import (
	"context"
	"strings"

	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
)

// Role labels a capability. A caller may hold any number of roles.
type Role string

const (
	// RoleAdmin manages role membership, pause state, and documents.
	RoleAdmin Role = "admin"
	// RoleIssuer may issue and redeem notes.
	RoleIssuer Role = "issuer"
	// RoleOperator may trigger yield distributions.
	RoleOperator Role = "operator"
	// RoleOracle may push revenue reports.
	RoleOracle Role = "oracle"
	// RoleFunder may fund the yield pool.
	RoleFunder Role = "funder"
	// RoleCompliance may mutate the KYC registry.
	RoleCompliance Role = "compliance"
)

// ParseRole maps a wire label onto a known Role.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	switch role {
	case RoleAdmin, RoleIssuer, RoleOperator, RoleOracle, RoleFunder, RoleCompliance:
		return role, nil
	}
	return "", dErrors.Newf(dErrors.CodeBadRequest, "unknown role %q", s)
}

// Store persists role membership.
type Store interface {
	Add(ctx context.Context, role Role, addr domain.Address) error
	Remove(ctx context.Context, role Role, addr domain.Address) error
	Has(ctx context.Context, role Role, addr domain.Address) (bool, error)
	Members(ctx context.Context, role Role) ([]domain.Address, error)
}

// Service enforces role checks at the top of each privileged operation.
type Service struct {
	store Store
}

// NewService builds the service and grants RoleAdmin to each bootstrap
// address so the capability map is never empty at startup.
func NewService(ctx context.Context, store Store, bootstrapAdmins ...domain.Address) (*Service, error) {
	s := &Service{store: store}
	for _, addr := range bootstrapAdmins {
		if err := store.Add(ctx, RoleAdmin, addr); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Require fails with Unauthorized unless addr holds role.
func (s *Service) Require(ctx context.Context, role Role, addr domain.Address) error {
	ok, err := s.store.Has(ctx, role, addr)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "role lookup failed")
	}
	if !ok {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller lacks %s role", role)
	}
	return nil
}

// Grant adds addr to role. Caller must hold RoleAdmin.
func (s *Service) Grant(ctx context.Context, caller domain.Address, role Role, addr domain.Address) error {
	if err := s.Require(ctx, RoleAdmin, caller); err != nil {
		return err
	}
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "address is required")
	}
	return s.store.Add(ctx, role, addr)
}

// Revoke removes addr from role. Caller must hold RoleAdmin. Revocation is
// immediate: the next Require against this role sees the updated set.
func (s *Service) Revoke(ctx context.Context, caller domain.Address, role Role, addr domain.Address) error {
	if err := s.Require(ctx, RoleAdmin, caller); err != nil {
		return err
	}
	return s.store.Remove(ctx, role, addr)
}

// Members lists the addresses holding role.
func (s *Service) Members(ctx context.Context, role Role) ([]domain.Address, error) {
	return s.store.Members(ctx, role)
}
