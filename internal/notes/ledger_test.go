package notes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ryegate/internal/kyc"
	"ryegate/internal/oracle"
	"ryegate/internal/rbac"
	"ryegate/pkg/domain"
	dErrors "ryegate/pkg/domain-errors"
	"ryegate/pkg/requestcontext"
	"ryegate/pkg/usdc"
)

// =============================================================================
// Ledger Test Suite
// =============================================================================
// Justification for unit tests: the gate ordering, lockup clock, and
// settlement accounting are timing-sensitive invariants that need a pinned
// clock; the HTTP tests cannot exercise them deterministically.

const (
	adminAddr      = domain.Address("0xadmin")
	issuerAddr     = domain.Address("0xissuer")
	operatorAddr   = domain.Address("0xoperator")
	oracleAddr     = domain.Address("0xoracle")
	funderAddr     = domain.Address("0xfunder")
	complianceAddr = domain.Address("0xcompliance")
	ledgerAddr     = domain.Address("0xledger")

	inv1 = domain.Address("0xinvestor1")
	inv2 = domain.Address("0xinvestor2")
	inv3 = domain.Address("0xinvestor3")
)

type LedgerSuite struct {
	suite.Suite
	ctx     context.Context
	t0      time.Time
	regD    domain.PartitionID
	regA    domain.PartitionID
	roles   *rbac.Service
	kyc     *kyc.Service
	oracle  *oracle.Service
	reserve *MockReserve
	ledger  *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.t0 = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.t0)
	s.regD = domain.NewPartitionID(LabelRegD)
	s.regA = domain.NewPartitionID(LabelRegAPlus)

	var err error
	s.roles, err = rbac.NewService(s.ctx, rbac.NewInMemoryStore(), adminAddr)
	s.Require().NoError(err)
	for role, addr := range map[rbac.Role]domain.Address{
		rbac.RoleIssuer:     issuerAddr,
		rbac.RoleOperator:   operatorAddr,
		rbac.RoleOracle:     oracleAddr,
		rbac.RoleFunder:     funderAddr,
		rbac.RoleCompliance: complianceAddr,
	} {
		s.Require().NoError(s.roles.Grant(s.ctx, adminAddr, role, addr))
	}

	s.kyc = kyc.NewService(kyc.NewInMemoryStore(), s.roles, nil)
	s.oracle = oracle.NewService(oracle.NewInMemoryStore(), s.roles)
	s.reserve = NewMockReserve()
	s.ledger = NewLedger(Config{
		MaxSupply:     1_000_000 * usdc.Unit,
		LedgerAddress: ledgerAddr,
		Reserve:       s.reserve,
		KYC:           s.kyc,
		Reports:       s.oracle,
		Roles:         s.roles,
	})
}

// whitelist registers an investor, optionally accredited, with no expiry.
func (s *LedgerSuite) whitelist(addr domain.Address, accredited bool) {
	_, err := s.kyc.SetWhitelist(s.ctx, complianceAddr, addr, accredited, time.Time{}, "kyc-hash")
	s.Require().NoError(err)
}

// at returns the suite context with the clock moved forward.
func (s *LedgerSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(s.ctx, s.t0.Add(offset))
}

// =============================================================================
// Issuance Tests
// =============================================================================

func (s *LedgerSuite) TestIssue() {
	s.Run("requires issuer role", func() {
		err := s.ledger.Issue(s.ctx, inv1, s.regA, inv1, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejects receiver without kyc", func() {
		err := s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeNotKYCd))
	})

	s.Run("rejects unaccredited receiver for restricted partition", func() {
		s.whitelist(inv2, false)
		err := s.ledger.Issue(s.ctx, issuerAddr, s.regD, inv2, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAccredited))
	})

	s.Run("mints into partition and updates supply", func() {
		s.whitelist(inv1, true)
		err := s.ledger.Issue(s.ctx, issuerAddr, s.regD, inv1, 100*usdc.Unit)
		s.NoError(err)
		s.Equal(uint64(100*usdc.Unit), s.ledger.BalanceOf(inv1))
		s.Equal(uint64(100*usdc.Unit), s.ledger.BalanceOfByPartition(s.regD, inv1))
		s.Equal(uint64(100*usdc.Unit), s.ledger.TotalSupply())
		s.Equal([]domain.PartitionID{s.regD}, s.ledger.PartitionsOf(inv1))
	})

	s.Run("enforces max supply cap", func() {
		s.whitelist(inv1, true)
		err := s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 2_000_000*usdc.Unit)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects zero amount", func() {
		err := s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects unknown partition", func() {
		s.whitelist(inv1, true)
		err := s.ledger.Issue(s.ctx, issuerAddr, domain.NewPartitionID("REG_S"), inv1, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Transfer and Gate Tests
// =============================================================================

func (s *LedgerSuite) TestTransfer() {
	s.whitelist(inv1, true)
	s.whitelist(inv2, false)
	s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 1000))

	s.Run("moves balance between whitelisted holders", func() {
		err := s.ledger.Transfer(s.ctx, inv1, s.regA, inv1, inv2, 400)
		s.NoError(err)
		s.Equal(uint64(600), s.ledger.BalanceOf(inv1))
		s.Equal(uint64(400), s.ledger.BalanceOf(inv2))
		s.Equal(uint64(1000), s.ledger.TotalSupply())
	})

	s.Run("rejects third party caller without operator role", func() {
		err := s.ledger.Transfer(s.ctx, inv2, s.regA, inv1, inv2, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("operator may move on behalf of a holder", func() {
		err := s.ledger.Transfer(s.ctx, operatorAddr, s.regA, inv1, inv2, 100)
		s.NoError(err)
		s.Equal(uint64(500), s.ledger.BalanceOf(inv1))
	})

	s.Run("rejects unwhitelisted receiver", func() {
		err := s.ledger.Transfer(s.ctx, inv1, s.regA, inv1, inv3, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeNotKYCd))
	})

	s.Run("rejects overdraw within partition", func() {
		err := s.ledger.Transfer(s.ctx, inv1, s.regA, inv1, inv2, 10_000)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	})

	s.Run("failed transfer leaves balances untouched", func() {
		before1, before2 := s.ledger.BalanceOf(inv1), s.ledger.BalanceOf(inv2)
		err := s.ledger.Transfer(s.ctx, inv1, s.regA, inv1, inv2, 10_000)
		s.Error(err)
		s.Equal(before1, s.ledger.BalanceOf(inv1))
		s.Equal(before2, s.ledger.BalanceOf(inv2))
	})
}

func (s *LedgerSuite) TestLockup() {
	s.whitelist(inv1, true)
	s.whitelist(inv2, true)
	s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regD, inv1, 1000))

	s.Run("blocks transfer during lockup", func() {
		err := s.ledger.Transfer(s.at(100*24*time.Hour), inv1, s.regD, inv1, inv2, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeLockupActive))
	})

	s.Run("preview agrees with the gate", func() {
		err := s.ledger.CheckTransfer(s.at(100*24*time.Hour), s.regD, inv1, inv2, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeLockupActive))
	})

	s.Run("allows transfer once lockup elapses", func() {
		err := s.ledger.Transfer(s.at(366*24*time.Hour), inv1, s.regD, inv1, inv2, 100)
		s.NoError(err)
	})

	s.Run("top-up does not restart the clock", func() {
		s.Require().NoError(s.ledger.Issue(s.at(200*24*time.Hour), issuerAddr, s.regD, inv1, 500))
		err := s.ledger.Transfer(s.at(366*24*time.Hour), inv1, s.regD, inv1, inv2, 100)
		s.NoError(err)
	})

	s.Run("receiver starts their own lockup on first entry", func() {
		err := s.ledger.Transfer(s.at(400*24*time.Hour), inv2, s.regD, inv2, inv1, 50)
		s.True(dErrors.HasCode(err, dErrors.CodeLockupActive))
	})

	s.Run("retail partition has no lockup", func() {
		s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 100))
		err := s.ledger.Transfer(s.ctx, inv1, s.regA, inv1, inv2, 100)
		s.NoError(err)
	})
}

// =============================================================================
// Pause Tests
// =============================================================================

func (s *LedgerSuite) TestPause() {
	s.whitelist(inv1, true)
	s.whitelist(inv2, true)
	s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 1000))

	s.Run("requires admin role", func() {
		err := s.ledger.Pause(s.ctx, issuerAddr)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("pause blocks transfers issuance and redemption", func() {
		s.Require().NoError(s.ledger.Pause(s.ctx, adminAddr))
		s.True(s.ledger.Paused())

		err := s.ledger.Transfer(s.ctx, inv1, s.regA, inv1, inv2, 100)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))

		err = s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 100)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))

		err = s.ledger.Redeem(s.ctx, issuerAddr, s.regA, inv1, 100)
		s.True(dErrors.HasCode(err, dErrors.CodePaused))
	})

	s.Run("unpause restores operation", func() {
		s.Require().NoError(s.ledger.Unpause(s.ctx, adminAddr))
		s.False(s.ledger.Paused())
		err := s.ledger.Transfer(s.ctx, inv1, s.regA, inv1, inv2, 100)
		s.NoError(err)
	})
}

// =============================================================================
// Redemption Tests
// =============================================================================

func (s *LedgerSuite) TestRedeem() {
	s.whitelist(inv1, true)
	s.Require().NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 1000))

	s.Run("requires issuer role", func() {
		err := s.ledger.Redeem(s.ctx, inv1, s.regA, inv1, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("burns from partition and shrinks supply", func() {
		err := s.ledger.Redeem(s.ctx, issuerAddr, s.regA, inv1, 400)
		s.NoError(err)
		s.Equal(uint64(600), s.ledger.BalanceOf(inv1))
		s.Equal(uint64(600), s.ledger.TotalSupply())
	})

	s.Run("rejects overdraw", func() {
		err := s.ledger.Redeem(s.ctx, issuerAddr, s.regA, inv1, 10_000)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	})

	s.Run("whitelist revocation does not block redemption", func() {
		s.Require().NoError(s.kyc.Revoke(s.ctx, complianceAddr, inv1))
		err := s.ledger.Redeem(s.ctx, issuerAddr, s.regA, inv1, 100)
		s.NoError(err)
	})
}

// =============================================================================
// KYC Expiry Interaction Tests
// =============================================================================

func (s *LedgerSuite) TestKYCExpiry() {
	expiry := s.t0.Add(30 * 24 * time.Hour)
	_, err := s.kyc.SetWhitelist(s.ctx, complianceAddr, inv1, true, expiry, "kyc-hash")
	s.Require().NoError(err)

	s.Run("issuance works before expiry", func() {
		s.NoError(s.ledger.Issue(s.ctx, issuerAddr, s.regA, inv1, 100))
	})

	s.Run("expired whitelist reads as not kycd", func() {
		err := s.ledger.Issue(s.at(31*24*time.Hour), issuerAddr, s.regA, inv1, 100)
		s.True(dErrors.HasCode(err, dErrors.CodeNotKYCd))
	})
}
